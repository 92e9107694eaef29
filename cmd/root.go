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
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	cfgFile        string
	flagVerbose    bool
	flagTimeout    time.Duration
	flagVID        uint16
	flagPID        uint16
	flagBootloader bool

	cfg = DefaultConfig()
)

var rootCmd = &cobra.Command{
	Use:   "bitdoflash",
	Short: "Query and update the firmware of 8Bitdo game controllers",
	Long: `bitdoflash talks to 8Bitdo controllers over USB. In runtime mode only the
firmware version can be read, flashing requires the controller to be started
in bootloader mode.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) (err error) {
		cfg, err = LoadConfig(cfgFile, cmd.Flags().Changed("config"))
		if err != nil {
			return err
		}
		cfg.ApplyFlags(cmd.Flags())

		if cfg.Verbose {
			log.SetLevel(log.DebugLevel)
		}
		return nil
	},
}

// Execute runs the root command, it is called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", DefaultConfigPath(), "config file")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "dump all USB traffic")
	rootCmd.PersistentFlags().DurationVar(&flagTimeout, "timeout", 0, "USB transfer timeout (default 5s)")
	rootCmd.PersistentFlags().Uint16Var(&flagVID, "vid", 0, "open this USB vendor ID instead of the known controllers")
	rootCmd.PersistentFlags().Uint16Var(&flagPID, "pid", 0, "USB product ID to use together with --vid")
	rootCmd.PersistentFlags().BoolVar(&flagBootloader, "bootloader", false, "treat the device given by --vid/--pid as bootloader")
}
