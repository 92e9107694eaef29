package ebitdo

import (
	"fmt"

	"github.com/samber/lo"
)

const (
	HINT_BOOTLOADER = "bootloader"
	HINT_RUNTIME    = "runtime"
)

// Quirk maps a USB VID/PID pair to the mode the device runs in. Only devices
// listed here are opened.
type Quirk struct {
	VID  uint16 `yaml:"vid"`
	PID  uint16 `yaml:"pid"`
	Hint string `yaml:"hint"`
	Name string `yaml:"name"`
}

func (q Quirk) IsBootloader() bool {
	return q.Hint == HINT_BOOTLOADER
}

func (q Quirk) String() string {
	name := q.Name
	if name == "" {
		name = "8Bitdo controller"
	}
	return fmt.Sprintf("%s (%04x:%04x, %s)", name, q.VID, q.PID, q.Hint)
}

var DefaultQuirks = []Quirk{
	{VID: 0x0483, PID: 0x5750, Hint: HINT_BOOTLOADER, Name: "8Bitdo bootloader (legacy)"},
	{VID: 0x2dc8, PID: 0x5750, Hint: HINT_BOOTLOADER, Name: "8Bitdo bootloader"},
	{VID: 0x1235, PID: 0xab11, Hint: HINT_RUNTIME, Name: "8Bitdo FC30"},
	{VID: 0x1235, PID: 0xab12, Hint: HINT_RUNTIME, Name: "8Bitdo NES30"},
	{VID: 0x1235, PID: 0xab21, Hint: HINT_RUNTIME, Name: "8Bitdo SFC30"},
	{VID: 0x1235, PID: 0xab20, Hint: HINT_RUNTIME, Name: "8Bitdo SNES30"},
	{VID: 0x1002, PID: 0x9000, Hint: HINT_RUNTIME, Name: "8Bitdo FC30 Pro"},
	{VID: 0x2002, PID: 0x9000, Hint: HINT_RUNTIME, Name: "8Bitdo NES30 Pro"},
	{VID: 0x8000, PID: 0x1002, Hint: HINT_RUNTIME, Name: "8Bitdo FC30 Arcade"},
	{VID: 0x2dc8, PID: 0x6000, Hint: HINT_RUNTIME, Name: "8Bitdo SF30 Pro"},
	{VID: 0x2dc8, PID: 0x6001, Hint: HINT_RUNTIME, Name: "8Bitdo SN30 Pro"},
	{VID: 0x057e, PID: 0x2009, Hint: HINT_RUNTIME, Name: "8Bitdo SF30/SN30 Pro (Switch mode)"},
}

// LookupQuirk returns the first quirk matching vid/pid.
func LookupQuirk(quirks []Quirk, vid, pid uint16) (Quirk, bool) {
	return lo.Find(quirks, func(q Quirk) bool {
		return q.VID == vid && q.PID == pid
	})
}

// MergeQuirks lets entries in override replace defaults with the same VID/PID.
func MergeQuirks(defaults, override []Quirk) []Quirk {
	kept := lo.Reject(defaults, func(d Quirk, _ int) bool {
		_, replaced := LookupQuirk(override, d.VID, d.PID)
		return replaced
	})
	return append(append([]Quirk{}, override...), kept...)
}
