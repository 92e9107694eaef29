package ebitdo

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrInvalidInput       = errors.New("input buffer too large")
	ErrTransport          = errors.New("transport failure")
	ErrUnexpectedResponse = errors.New("unexpected device response")
	ErrProtocol           = errors.New("protocol error")
	ErrSizeMismatch       = errors.New("size mismatch")
	ErrCorruptImage       = errors.New("firmware image corrupt")
	ErrImageTooSmall      = errors.New("firmware too small for header")
	ErrUnrecognizedDevice = errors.New("unrecognized device")
	ErrNotBootloader      = errors.New("device is not in bootloader mode")
	ErrNoDevice           = errors.New("no 8Bitdo controller found")

	ErrHeaderRejected   = errors.New("failed to set up firmware header")
	ErrChunkWriteFailed = errors.New("failed to write firmware")
	ErrEncodeIDFailed   = errors.New("failed to set encoding ID")
	ErrFinalizeFailed   = errors.New("failed to mark firmware as successful")
)

// TransportError is returned when a frame could not be moved over the
// transport. It matches ErrTransport.
type TransportError struct {
	Op       string
	Endpoint Endpoint
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("failed to %s device on ep %#02x: %v", e.Op, byte(e.Endpoint), e.Err)
}

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

func (e *TransportError) Unwrap() error { return e.Err }

// FlashError reports the flashing step that failed. Step is one of the
// ErrHeaderRejected, ErrChunkWriteFailed, ErrEncodeIDFailed or
// ErrFinalizeFailed sentinels, Offset is only meaningful for chunk writes.
type FlashError struct {
	Step   error
	Offset uint32
	Err    error
}

func (e *FlashError) Error() string {
	if e.Step == ErrChunkWriteFailed {
		return fmt.Sprintf("%v @%#04x: %v", e.Step, e.Offset, e.Err)
	}
	return fmt.Sprintf("%v: %v", e.Step, e.Err)
}

func (e *FlashError) Is(target error) bool { return target == e.Step }

func (e *FlashError) Unwrap() error { return e.Err }
