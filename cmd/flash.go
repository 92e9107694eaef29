// Copyright © 2019 Marcus Mengs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.


package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/mame82/bitdoflash/ebitdo"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	tmpFirmwarePathRaw = ""
	tmpFirmwarePathHex = ""
)

// loadFirmware reads either a raw binary or an Intel HEX image, exactly one
// of both paths has to be given.
func loadFirmware(rawPath, hexPath string) (fw *ebitdo.Firmware, err error) {
	switch {
	case len(rawPath) > 0 && len(hexPath) > 0:
		return nil, errors.New("only one of raw and hex firmware file can be given")
	case len(hexPath) > 0:
		f, err := os.Open(hexPath)
		if err != nil {
			return nil, errors.Wrap(err, "error reading firmware file")
		}
		defer f.Close()
		return ebitdo.ParseFirmwareHex(f)
	case len(rawPath) > 0:
		return ebitdo.ParseFirmwareFile(rawPath)
	}
	return nil, errors.New("no firmware file given for flashing")
}

func printProgress(p ebitdo.Progress) {
	switch p.Status {
	case ebitdo.STATUS_WRITING:
		fmt.Printf("\rwriting firmware: %3.0f%% (%d/%d bytes)", p.Fraction()*100, p.Written, p.Total)
	case ebitdo.STATUS_IDLE:
		fmt.Println()
	}
}

func FlashFirmware(fw *ebitdo.Firmware) (err error) {
	fmt.Println("trying to flash firmware...")
	fmt.Println(fw.String())

	ctrl, err := openController(cfg)
	if err != nil {
		return err
	}
	defer ctrl.Close()
	printControllerInfo(ctrl)

	if !ctrl.session.IsBootloader {
		fmt.Println("The controller is running its application firmware. Switch it off and")
		fmt.Println("start it in bootloader mode (usually by holding L + R + START while")
		fmt.Println("connecting USB), then run this command again.")
		return ebitdo.ErrNotBootloader
	}

	if err = ebitdo.FlashFirmware(ctrl.ex, ctrl.session, fw, printProgress); err != nil {
		fmt.Println()
		if ebitdo.IsStepFailure(err) {
			fmt.Println("Flashing was interrupted, the controller stays in bootloader mode and")
			fmt.Println("the update has to be started again.")
		}
		return err
	}

	fmt.Println("Firmware update done, reconnect the controller to start the new firmware.")
	return nil
}

var flashCmd = &cobra.Command{
	Use:   "flash",
	Short: "Flash a firmware image to a controller in bootloader mode",
	Long:  "",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(tmpFirmwarePathHex) == 0 && len(tmpFirmwarePathRaw) == 0 {
			fmt.Println("Error: no firmware file given for flashing")
			fmt.Println()
			fmt.Println("A firmware file could either be provided as Intel hex file with the `-f` flag")
			fmt.Println("or as raw binary (as distributed by 8Bitdo) using the `-r` flag")
			fmt.Println()
			return cmd.Usage()
		}

		if len(tmpFirmwarePathHex) > 0 {
			fmt.Printf("Trying to flash hex file '%s'\n", tmpFirmwarePathHex)
		} else {
			fmt.Printf("Trying to flash raw file '%s'\n", tmpFirmwarePathRaw)
		}
		fw, err := loadFirmware(tmpFirmwarePathRaw, tmpFirmwarePathHex)
		if err != nil {
			log.Error(err)
			return err
		}

		if err = FlashFirmware(fw); err != nil {
			log.Error(err)
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(flashCmd)
	// -f --hexfile, -r --rawfile
	flashCmd.Flags().StringVarP(&tmpFirmwarePathHex, "hexfile", "f", "", "path to firmware file in Intel hex format")
	flashCmd.Flags().StringVarP(&tmpFirmwarePathRaw, "rawfile", "r", "", "path to firmware file in raw binary format")
}

// isHexFile guesses the image container from the file name
func isHexFile(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".hex") || strings.HasSuffix(lower, ".ihex")
}
