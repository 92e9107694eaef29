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
	"encoding/hex"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func DumpFirmwareInfo(path string) error {
	rawPath, hexPath := path, ""
	if isHexFile(path) {
		rawPath, hexPath = "", path
	}

	fw, err := loadFirmware(rawPath, hexPath)
	if err != nil {
		return err
	}

	fmt.Printf("Firmware file '%s'\n", path)
	fmt.Println(fw.String())
	fmt.Printf("Payload size:        %d bytes\n", len(fw.Payload()))
	if cfg.Verbose {
		fmt.Println("Header:")
		fmt.Print(hex.Dump(fw.HeaderBytes()))
	}
	return nil
}

var dumpCmd = &cobra.Command{
	Use:   "dump <firmware file>",
	Short: "Validate a firmware image and print its header, no device needed",
	Long:  "Files ending in .hex or .ihex are read as Intel hex, everything else as raw binary.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := DumpFirmwareInfo(args[0]); err != nil {
			log.Error(err)
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dumpCmd)
}
