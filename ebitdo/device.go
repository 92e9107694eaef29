package ebitdo

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

const (
	VID_8BITDO uint16 = 0x2dc8

	// SF30/SN30 Pro started with "START + Y" emulate a Nintendo Switch Pro
	// Controller. Real Nintendo controllers don't talk this protocol over USB.
	VID_NINTENDO        uint16 = 0x057e
	PID_SWITCH_PRO_CTRL uint16 = 0x2009

	SerialWords = 9
)

var vendorWhitelist = []string{
	"8Bitdo",
	"SFC30",
}

// Session holds what was learned from the device when it was opened.
// Serial is only populated in bootloader mode.
type Session struct {
	IsBootloader bool
	Version      string
	Serial       []uint32
}

func (s *Session) String() string {
	mode := "runtime"
	if s.IsBootloader {
		mode = "bootloader"
	}
	res := fmt.Sprintf("Mode: %s, Version: %s", mode, s.Version)
	if len(s.Serial) > 0 {
		res += fmt.Sprintf(", Serial: %08x", s.Serial)
	}
	return res
}

// FormatVersion renders the device version value as firmware version string,
// e.g. 350 -> "3.50".
func FormatVersion(version uint32) string {
	return fmt.Sprintf("%.2f", float32(version)/100)
}

// ValidateDevice makes sure the device actually is 8Bitdo hardware.
func ValidateDevice(d DescriptorSource) (err error) {
	// this is a new, always valid, VID
	if d.VendorID() == VID_8BITDO {
		return nil
	}

	if d.VendorID() == VID_NINTENDO && d.ProductID() == PID_SWITCH_PRO_CTRL {
		return nil
	}

	ven, err := d.Manufacturer()
	if err != nil {
		return errors.Wrap(err, "could not check vendor descriptor")
	}
	for _, prefix := range vendorWhitelist {
		if strings.HasPrefix(ven, prefix) {
			return nil
		}
	}
	return errors.Wrapf(ErrUnrecognizedDevice, "vendor '%s' did not match whitelist, probably not a 8Bitdo device", ven)
}

// OpenSession validates the device and queries version and, in bootloader
// mode, the verification ID. On error no session is returned.
func OpenSession(ex *Exchange, d DescriptorSource) (s *Session, err error) {
	if err = ValidateDevice(d); err != nil {
		return nil, err
	}

	if !ex.IsBootloader() {
		buf, err := ex.Transact(PKT_TYPE_USER_CMD, PKT_CMD_GET_VERSION, 0, nil, 4)
		if err != nil {
			return nil, errors.Wrap(err, "failed to get firmware version")
		}
		if len(buf) < 4 {
			return nil, errors.Wrapf(ErrSizeMismatch, "firmware version has %d bytes", len(buf))
		}
		s = &Session{
			Version: FormatVersion(binary.LittleEndian.Uint32(buf)),
		}
		ex.Logger().Debugf("Runtime firmware version %s", s.Version)
		return s, nil
	}

	buf, err := ex.Transact(PKT_TYPE_USER_CMD, PKT_CMD_UPDATE_FIRMWARE_DATA, PKT_CMD_FW_GET_VERSION, nil, 4)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get bootloader version")
	}
	if len(buf) < 4 {
		return nil, errors.Wrapf(ErrSizeMismatch, "bootloader version has %d bytes", len(buf))
	}
	version := FormatVersion(binary.LittleEndian.Uint32(buf))

	buf, err = ex.Transact(PKT_TYPE_USER_CMD, PKT_CMD_GET_VERIFICATION_ID, 0x00, nil, SerialWords*4)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get verification ID")
	}
	if len(buf) < SerialWords*4 {
		return nil, errors.Wrapf(ErrSizeMismatch, "verification ID has %d bytes", len(buf))
	}
	serial := make([]uint32, SerialWords)
	for i := range serial {
		serial[i] = binary.LittleEndian.Uint32(buf[i*4:])
	}

	s = &Session{
		IsBootloader: true,
		Version:      version,
		Serial:       serial,
	}
	ex.Logger().Debugf("Bootloader version %s, verification ID %08x", s.Version, s.Serial)
	return s, nil
}
