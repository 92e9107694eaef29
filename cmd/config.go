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
	"io/ioutil"
	"os"
	"path/filepath"
	"time"

	"github.com/mame82/bitdoflash/ebitdo"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v2"
)

const configFileName = ".bitdoflash.yaml"

/*
Example:

verbose: false
timeout: 5s
devices:
  - vid: 0x2dc8
    pid: 0x3105
    hint: bootloader
    name: 8Bitdo M30 bootloader
*/
type Config struct {
	Verbose bool           `yaml:"verbose"`
	Timeout time.Duration  `yaml:"timeout"`
	Devices []ebitdo.Quirk `yaml:"devices"`

	// set from --vid/--pid, takes precedence over Devices
	override *ebitdo.Quirk
}

func DefaultConfig() *Config {
	return &Config{
		Timeout: ebitdo.USB_TIMEOUT,
	}
}

func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return configFileName
	}
	return filepath.Join(home, configFileName)
}

// LoadConfig reads the YAML config at path. A missing file is only an error
// if it was asked for explicitly.
func LoadConfig(path string, explicit bool) (c *Config, err error) {
	c = DefaultConfig()
	if path == "" {
		return c, nil
	}

	data, err := ioutil.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return c, nil
		}
		return nil, errors.Wrap(err, "failed to read config file")
	}
	if err = yaml.UnmarshalStrict(data, c); err != nil {
		return nil, errors.Wrapf(err, "failed to parse config file '%s'", path)
	}
	if c.Timeout <= 0 {
		c.Timeout = ebitdo.USB_TIMEOUT
	}
	for _, d := range c.Devices {
		if d.Hint != ebitdo.HINT_BOOTLOADER && d.Hint != ebitdo.HINT_RUNTIME {
			return nil, errors.Errorf("device %04x:%04x has invalid hint '%s'", d.VID, d.PID, d.Hint)
		}
	}
	log.Debugf("Loaded config from '%s'", path)
	return c, nil
}

// ApplyFlags lets explicitly set command line flags win over the file.
func (c *Config) ApplyFlags(flags *pflag.FlagSet) {
	if flags.Changed("verbose") {
		c.Verbose = flagVerbose
	}
	if flags.Changed("timeout") && flagTimeout > 0 {
		c.Timeout = flagTimeout
	}
	if flags.Changed("vid") {
		hint := ebitdo.HINT_RUNTIME
		if flagBootloader {
			hint = ebitdo.HINT_BOOTLOADER
		}
		c.override = &ebitdo.Quirk{VID: flagVID, PID: flagPID, Hint: hint}
	}
}

// Quirks is the list of devices to try, in order.
func (c *Config) Quirks() []ebitdo.Quirk {
	if c.override != nil {
		return []ebitdo.Quirk{*c.override}
	}
	return ebitdo.MergeQuirks(ebitdo.DefaultQuirks, c.Devices)
}

func (c *Config) ExchangeOptions() []ebitdo.Option {
	return []ebitdo.Option{
		ebitdo.WithVerbose(c.Verbose),
		ebitdo.WithTimeout(c.Timeout),
		ebitdo.WithLogger(log.StandardLogger()),
	}
}
