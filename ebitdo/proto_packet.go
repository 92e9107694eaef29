package ebitdo

import (
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"
)

/*
USB interrupt frame exchanged with the controller (64 bytes, LE):
guint8		pkt_len;	total length - 1
guint8		type;
guint8		subtype;
guint16		cmd_len;
guint8		cmd;
guint16		payload_len;	only valid if a payload follows
guint8		payload[56];
*/

const (
	FrameSize      = 64
	HeaderSize     = 8
	MaxPayloadSize = FrameSize - HeaderSize
)

type PktType byte

const (
	PKT_TYPE_USER_CMD  PktType = 0x00
	PKT_TYPE_USER_DATA PktType = 0x01
	PKT_TYPE_MID_CMD   PktType = 0x02
)

func (t PktType) String() string {
	switch t {
	case PKT_TYPE_USER_CMD:
		return "user-cmd"
	case PKT_TYPE_USER_DATA:
		return "user-data"
	case PKT_TYPE_MID_CMD:
		return "mid-cmd"
	}
	return fmt.Sprintf("unknown packet type %#02x", byte(t))
}

type PktCmd byte

const (
	PKT_CMD_FW_UPDATE_DATA       PktCmd = 0x00 // update firmware data
	PKT_CMD_FW_UPDATE_HEADER     PktCmd = 0x01 // update firmware header
	PKT_CMD_FW_UPDATE_OK         PktCmd = 0x02 // mark update as successful
	PKT_CMD_FW_UPDATE_ERROR      PktCmd = 0x03
	PKT_CMD_FW_GET_VERSION       PktCmd = 0x04 // bootloader firmware version
	PKT_CMD_FW_SET_VERSION       PktCmd = 0x05
	PKT_CMD_FW_SET_ENCODE_ID     PktCmd = 0x06 // commit code derived from the verification ID
	PKT_CMD_ACK                  PktCmd = 0x14
	PKT_CMD_NAK                  PktCmd = 0x15
	PKT_CMD_UPDATE_FIRMWARE_DATA PktCmd = 0x16
	PKT_CMD_TRANSFER_ABORT       PktCmd = 0x18
	PKT_CMD_VERIFICATION_ID      PktCmd = 0x19
	PKT_CMD_GET_VERIFICATION_ID  PktCmd = 0x1a
	PKT_CMD_VERIFY_ERROR         PktCmd = 0x1b
	PKT_CMD_VERIFY_OK            PktCmd = 0x1c
	PKT_CMD_TRANSFER_TIMEOUT     PktCmd = 0x1d
	PKT_CMD_GET_VERSION          PktCmd = 0x21 // runtime firmware version
	PKT_CMD_GET_VERSION_RESPONSE PktCmd = 0x22 // runtime reply, raw data instead of a packet
)

func (c PktCmd) String() string {
	switch c {
	case PKT_CMD_FW_UPDATE_DATA:
		return "fw-update-data"
	case PKT_CMD_FW_UPDATE_HEADER:
		return "fw-update-header"
	case PKT_CMD_FW_UPDATE_OK:
		return "fw-update-ok"
	case PKT_CMD_FW_UPDATE_ERROR:
		return "fw-update-error"
	case PKT_CMD_FW_GET_VERSION:
		return "fw-get-version"
	case PKT_CMD_FW_SET_VERSION:
		return "fw-set-version"
	case PKT_CMD_FW_SET_ENCODE_ID:
		return "fw-set-encode-id"
	case PKT_CMD_ACK:
		return "ack"
	case PKT_CMD_NAK:
		return "nak"
	case PKT_CMD_UPDATE_FIRMWARE_DATA:
		return "update-firmware-data"
	case PKT_CMD_TRANSFER_ABORT:
		return "transfer-abort"
	case PKT_CMD_VERIFICATION_ID:
		return "verification-id"
	case PKT_CMD_GET_VERIFICATION_ID:
		return "get-verification-id"
	case PKT_CMD_VERIFY_ERROR:
		return "verify-error"
	case PKT_CMD_VERIFY_OK:
		return "verify-ok"
	case PKT_CMD_TRANSFER_TIMEOUT:
		return "transfer-timeout"
	case PKT_CMD_GET_VERSION:
		return "get-version"
	case PKT_CMD_GET_VERSION_RESPONSE:
		return "get-version-response"
	}
	return fmt.Sprintf("unknown command %#02x", byte(c))
}

type Packet struct {
	PktLen     byte
	Type       PktType
	Subtype    PktCmd
	CmdLen     uint16
	Cmd        PktCmd
	PayloadLen uint16
	Payload    []byte
}

// Encode builds a request packet. The header differs depending on whether a
// payload is present, which is what the device firmware expects.
func Encode(typ PktType, subtype PktCmd, cmd PktCmd, payload []byte) (p *Packet, err error) {
	if len(payload) > MaxPayloadSize {
		return nil, errors.Wrapf(ErrInvalidInput, "payload of %d bytes exceeds %d", len(payload), MaxPayloadSize)
	}

	p = &Packet{
		Type:    typ,
		Subtype: subtype,
		Cmd:     cmd,
	}
	if len(payload) > 0 {
		p.CmdLen = uint16(len(payload) + 3)
		p.PayloadLen = uint16(len(payload))
		p.PktLen = byte(len(payload) + 7)
		p.Payload = append([]byte(nil), payload...)
	} else {
		p.CmdLen = 1
		p.PktLen = 5
	}
	return p, nil
}

func (p *Packet) ToWire() (frame []byte, err error) {
	if len(p.Payload) > MaxPayloadSize {
		return nil, errors.Wrapf(ErrInvalidInput, "payload of %d bytes exceeds %d", len(p.Payload), MaxPayloadSize)
	}
	frame = make([]byte, FrameSize)
	frame[0] = p.PktLen
	frame[1] = byte(p.Type)
	frame[2] = byte(p.Subtype)
	binary.LittleEndian.PutUint16(frame[3:], p.CmdLen)
	frame[5] = byte(p.Cmd)
	binary.LittleEndian.PutUint16(frame[6:], p.PayloadLen)
	copy(frame[HeaderSize:], p.Payload)
	return frame, nil
}

// FromWire decodes the header fields only, payload location depends on the
// response shape (see Classify).
func (p *Packet) FromWire(frame []byte) (err error) {
	if len(frame) < HeaderSize {
		return errors.Wrapf(ErrSizeMismatch, "frame of %d bytes shorter than header", len(frame))
	}
	p.PktLen = frame[0]
	p.Type = PktType(frame[1])
	p.Subtype = PktCmd(frame[2])
	p.CmdLen = binary.LittleEndian.Uint16(frame[3:])
	p.Cmd = PktCmd(frame[5])
	p.PayloadLen = binary.LittleEndian.Uint16(frame[6:])
	p.Payload = nil
	return nil
}

func (p *Packet) String() (res string) {
	res = fmt.Sprintf("PktLength: %#02x, PktType: %s, CmdSubtype: %s, CmdLen: %#04x, Cmd: %s",
		p.PktLen, p.Type, p.Subtype, p.CmdLen, p.Cmd)
	if p.PayloadLen > 0 {
		res += fmt.Sprintf(", PayloadLen: %#04x", p.PayloadLen)
	}
	return res
}

type ResponseKind int

const (
	RESPONSE_RUNTIME_VERSION ResponseKind = iota
	RESPONSE_BOOTLOADER_VERSION
	RESPONSE_VERIFICATION_ID
	RESPONSE_ACK
)

func (k ResponseKind) String() string {
	switch k {
	case RESPONSE_RUNTIME_VERSION:
		return "runtime version"
	case RESPONSE_BOOTLOADER_VERSION:
		return "bootloader version"
	case RESPONSE_VERIFICATION_ID:
		return "verification id"
	case RESPONSE_ACK:
		return "ack"
	}
	return fmt.Sprintf("unknown response kind %d", int(k))
}

// Response is one of the reply shapes the device sends on its IN endpoint.
// For RESPONSE_ACK the payload is empty and Packet.Cmd carries the result.
type Response struct {
	Kind    ResponseKind
	Packet  Packet
	Payload []byte
}

type responseShape struct {
	kind    ResponseKind
	matches func(p *Packet) bool
	extract func(p *Packet, frame []byte) ([]byte, error)
}

// Evaluated in order. The runtime version reply carries no header at all, so
// its sentinel length has to be checked before any other field is trusted.
var responseShapes = []responseShape{
	{
		kind: RESPONSE_RUNTIME_VERSION,
		matches: func(p *Packet) bool {
			return p.PktLen == byte(PKT_CMD_GET_VERSION_RESPONSE)
		},
		extract: func(p *Packet, frame []byte) ([]byte, error) {
			return frame[1:5], nil
		},
	},
	{
		kind: RESPONSE_BOOTLOADER_VERSION,
		matches: func(p *Packet) bool {
			return p.Type == PKT_TYPE_USER_CMD &&
				p.Subtype == PKT_CMD_UPDATE_FIRMWARE_DATA &&
				p.Cmd == PKT_CMD_FW_GET_VERSION
		},
		extract: func(p *Packet, frame []byte) ([]byte, error) {
			return slicePayload(frame, HeaderSize, int(p.PayloadLen))
		},
	},
	{
		kind: RESPONSE_VERIFICATION_ID,
		matches: func(p *Packet) bool {
			return p.Type == PKT_TYPE_USER_CMD && p.Subtype == PKT_CMD_VERIFICATION_ID
		},
		extract: func(p *Packet, frame []byte) ([]byte, error) {
			// data starts where cmd would be, length is taken from cmd_len
			return slicePayload(frame, HeaderSize-3, int(p.CmdLen))
		},
	},
	{
		kind: RESPONSE_ACK,
		matches: func(p *Packet) bool {
			return p.Type == PKT_TYPE_USER_CMD &&
				p.Subtype == PKT_CMD_UPDATE_FIRMWARE_DATA &&
				p.PayloadLen == 0
		},
		extract: func(p *Packet, frame []byte) ([]byte, error) {
			return []byte{}, nil
		},
	},
}

func slicePayload(frame []byte, offset, length int) ([]byte, error) {
	if offset+length > len(frame) {
		return nil, errors.Wrapf(ErrSizeMismatch, "declared length %d at offset %d exceeds frame of %d bytes", length, offset, len(frame))
	}
	return frame[offset : offset+length], nil
}

// Classify matches a raw frame against the known response shapes and
// extracts its payload.
func Classify(frame []byte) (r *Response, err error) {
	p := Packet{}
	if err = p.FromWire(frame); err != nil {
		return nil, err
	}
	for _, shape := range responseShapes {
		if !shape.matches(&p) {
			continue
		}
		payload, err := shape.extract(&p, frame)
		if err != nil {
			return nil, err
		}
		r = &Response{
			Kind:    shape.kind,
			Packet:  p,
			Payload: append([]byte(nil), payload...),
		}
		return r, nil
	}
	return nil, ErrUnexpectedResponse
}
