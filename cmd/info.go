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

	"github.com/mame82/bitdoflash/ebitdo"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// controller bundles an opened USB device with its protocol session
type controller struct {
	dev     *ebitdo.USBDevice
	ex      *ebitdo.Exchange
	session *ebitdo.Session
}

func (c *controller) Close() {
	c.dev.Close()
}

func openController(c *Config) (ctrl *controller, err error) {
	dev, err := ebitdo.NewUSBDevice(c.Quirks())
	if err != nil {
		return nil, err
	}

	ex := ebitdo.NewExchange(dev, dev.IsBootloader(), c.ExchangeOptions()...)
	session, err := ebitdo.OpenSession(ex, dev)
	if err != nil {
		dev.Close()
		return nil, errors.Wrapf(err, "can not open %s", dev.Quirk.String())
	}

	return &controller{dev: dev, ex: ex, session: session}, nil
}

func printControllerInfo(ctrl *controller) {
	fmt.Printf("Device:  %s\n", ctrl.dev.Quirk.String())
	if ctrl.session.IsBootloader {
		fmt.Println("Mode:    bootloader")
	} else {
		fmt.Println("Mode:    runtime")
	}
	fmt.Printf("Version: %s\n", ctrl.session.Version)
	if len(ctrl.session.Serial) > 0 {
		fmt.Printf("Serial:  %08x\n", ctrl.session.Serial)
	}
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show mode and firmware version of the first controller found on USB",
	Long:  "",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctrl, err := openController(cfg)
		if err != nil {
			log.Error(err)
			return err
		}
		defer ctrl.Close()

		printControllerInfo(ctrl)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
