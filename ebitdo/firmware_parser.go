package ebitdo

import (
	"encoding/binary"
	"fmt"
	"io"
	"io/ioutil"

	"github.com/marcinbor85/gohex"
	"github.com/pkg/errors"
	"github.com/sigurn/crc16"
)

/*
Firmware file header (LE), payload follows immediately:
guint32		version;
guint32		destination_addr;
guint32		destination_len;
guint32		reserved[4];
*/
const FirmwareHeaderSize = 28

type FirmwareHeader struct {
	Version         uint32
	DestinationAddr uint32
	DestinationLen  uint32
	Reserved        [4]uint32
}

func (h *FirmwareHeader) FromWire(data []byte) (err error) {
	if len(data) < FirmwareHeaderSize {
		return errors.Wrapf(ErrImageTooSmall, "got %d bytes, header needs %d", len(data), FirmwareHeaderSize)
	}
	h.Version = binary.LittleEndian.Uint32(data[0:])
	h.DestinationAddr = binary.LittleEndian.Uint32(data[4:])
	h.DestinationLen = binary.LittleEndian.Uint32(data[8:])
	for i := range h.Reserved {
		h.Reserved[i] = binary.LittleEndian.Uint32(data[12+4*i:])
	}
	return nil
}

// Firmware is a validated image, only ParseFirmware and friends create
// usable values.
type Firmware struct {
	Header FirmwareHeader
	CRC    uint16

	data []byte
}

// HeaderBytes is what gets pushed with PKT_CMD_FW_UPDATE_HEADER.
func (f *Firmware) HeaderBytes() []byte {
	return f.data[:FirmwareHeaderSize]
}

func (f *Firmware) Payload() []byte {
	return f.data[FirmwareHeaderSize:]
}

// Valid reports whether f came out of ParseFirmware.
func (f *Firmware) Valid() bool {
	return f != nil && len(f.data) >= FirmwareHeaderSize &&
		uint32(len(f.data)-FirmwareHeaderSize) == f.Header.DestinationLen
}

func (f *Firmware) String() string {
	res := ""
	res += fmt.Sprintf("Version:             %.2f\n", float32(f.Header.Version)/100)
	res += fmt.Sprintf("Destination Address: %#x\n", f.Header.DestinationAddr)
	res += fmt.Sprintf("Destination Length:  %#x\n", f.Header.DestinationLen)
	for i, r := range f.Header.Reserved {
		res += fmt.Sprintf("Reserved[%d]:         %#x\n", i, r)
	}
	res += fmt.Sprintf("Payload CRC:         %#04x", f.CRC)
	return res
}

// ParseFirmware validates a raw firmware image. The data is not copied and
// must not be modified afterwards.
func ParseFirmware(data []byte) (f *Firmware, err error) {
	if len(data) < FirmwareHeaderSize {
		return nil, errors.Wrapf(ErrImageTooSmall, "got %d bytes, header needs %d", len(data), FirmwareHeaderSize)
	}

	f = &Firmware{data: data}
	if err = f.Header.FromWire(data); err != nil {
		return nil, err
	}

	// check the file size
	payloadLen := uint32(len(data) - FirmwareHeaderSize)
	if payloadLen != f.Header.DestinationLen {
		return nil, errors.Wrapf(ErrSizeMismatch, "file size incorrect, expected %#04x got %#04x", f.Header.DestinationLen, payloadLen)
	}

	// check if this is firmware
	for i, r := range f.Header.Reserved {
		if r != 0 {
			return nil, errors.Wrapf(ErrCorruptImage, "data invalid, reserved[%d] = %#04x", i, r)
		}
	}

	f.CRC = crc16.Checksum(f.Payload(), crc16.MakeTable(crc16.CRC16_CCITT_FALSE))
	return f, nil
}

// ParseFirmwareHex converts an Intel HEX image into its binary form, gaps
// between segments are filled with 0xff, and validates the result.
func ParseFirmwareHex(r io.Reader) (f *Firmware, err error) {
	mem := gohex.NewMemory()
	if err = mem.ParseIntelHex(r); err != nil {
		return nil, errors.Wrap(err, "error parsing hex file")
	}

	segments := mem.GetDataSegments()
	if len(segments) == 0 {
		return nil, errors.Wrap(ErrImageTooSmall, "hex file contains no data")
	}
	start := segments[0].Address
	last := segments[len(segments)-1]
	end := last.Address + uint32(len(last.Data))

	return ParseFirmware(mem.ToBinary(start, end-start, 0xff))
}

func ParseFirmwareFile(filepath string) (f *Firmware, err error) {
	data, err := ioutil.ReadFile(filepath)
	if err != nil {
		return nil, errors.Wrap(err, "error reading firmware file")
	}
	return ParseFirmware(data)
}
