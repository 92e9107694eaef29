package ebitdo

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

type Endpoint byte

const (
	USB_BOOTLOADER_EP_IN  Endpoint = 0x82
	USB_BOOTLOADER_EP_OUT Endpoint = 0x01
	USB_RUNTIME_EP_IN     Endpoint = 0x81
	USB_RUNTIME_EP_OUT    Endpoint = 0x02

	USB_TIMEOUT = 5000 * time.Millisecond
)

func (e Endpoint) String() string {
	return fmt.Sprintf("ep %#02x", byte(e))
}

// Number strips the direction bit.
func (e Endpoint) Number() int {
	return int(e & 0x0f)
}

// Endpoints returns the IN and OUT endpoint for the given device mode.
func Endpoints(bootloader bool) (in, out Endpoint) {
	if bootloader {
		return USB_BOOTLOADER_EP_IN, USB_BOOTLOADER_EP_OUT
	}
	return USB_RUNTIME_EP_IN, USB_RUNTIME_EP_OUT
}

// Transport moves single 64-byte frames to and from the controller.
type Transport interface {
	Write(ep Endpoint, frame []byte, timeout time.Duration) error
	Read(ep Endpoint, buf []byte, timeout time.Duration) (n int, err error)
}

// DescriptorSource exposes the USB descriptor fields used to recognize
// 8Bitdo hardware.
type DescriptorSource interface {
	VendorID() uint16
	ProductID() uint16
	Manufacturer() (string, error)
}

// checkWritten fails partial frame writes, the device only accepts whole
// frames.
func checkWritten(n, want int) error {
	if n != want {
		return errors.Errorf("short write, %d of %d bytes", n, want)
	}
	return nil
}
