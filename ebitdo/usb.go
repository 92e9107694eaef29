package ebitdo

import (
	"context"
	"time"

	"github.com/google/gousb"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// USBDevice is a controller opened through libusb. It implements Transport
// and DescriptorSource.
type USBDevice struct {
	UsbCtx *gousb.Context
	Dev    *gousb.Device
	Config *gousb.Config
	Iface  *gousb.Interface
	Quirk  Quirk

	epIn  map[Endpoint]*gousb.InEndpoint
	epOut map[Endpoint]*gousb.OutEndpoint
}

var (
	_ Transport        = (*USBDevice)(nil)
	_ DescriptorSource = (*USBDevice)(nil)
)

func (u *USBDevice) IsBootloader() bool {
	return u.Quirk.IsBootloader()
}

func (u *USBDevice) VendorID() uint16 {
	return uint16(u.Dev.Desc.Vendor)
}

func (u *USBDevice) ProductID() uint16 {
	return uint16(u.Dev.Desc.Product)
}

func (u *USBDevice) Manufacturer() (string, error) {
	return u.Dev.Manufacturer()
}

func (u *USBDevice) inEndpoint(ep Endpoint) (*gousb.InEndpoint, error) {
	if in, ok := u.epIn[ep]; ok {
		return in, nil
	}
	in, err := u.Iface.InEndpoint(ep.Number())
	if err != nil {
		return nil, err
	}
	u.epIn[ep] = in
	return in, nil
}

func (u *USBDevice) outEndpoint(ep Endpoint) (*gousb.OutEndpoint, error) {
	if out, ok := u.epOut[ep]; ok {
		return out, nil
	}
	out, err := u.Iface.OutEndpoint(ep.Number())
	if err != nil {
		return nil, err
	}
	u.epOut[ep] = out
	return out, nil
}

func (u *USBDevice) Write(ep Endpoint, frame []byte, timeout time.Duration) (err error) {
	out, err := u.outEndpoint(ep)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	n, err := out.WriteContext(ctx, frame)
	if err != nil {
		return err
	}
	return checkWritten(n, len(frame))
}

func (u *USBDevice) Read(ep Endpoint, buf []byte, timeout time.Duration) (n int, err error) {
	in, err := u.inEndpoint(ep)
	if err != nil {
		return 0, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	return in.ReadContext(ctx, buf)
}

func (u *USBDevice) Close() {
	log.Debugf("Closing %s", u.Quirk.String())

	if u.Iface != nil {
		u.Iface.Close()
	}

	if u.Config != nil {
		u.Config.Close()
	}

	if u.Dev != nil {
		u.Dev.SetAutoDetach(false)
		u.Dev.Close()
	}

	if u.UsbCtx != nil {
		u.UsbCtx.Close()
	}
}

// NewUSBDevice opens the first connected controller listed in quirks and
// claims interface 0, detaching the kernel driver.
func NewUSBDevice(quirks []Quirk) (res *USBDevice, err error) {
	res = &USBDevice{
		epIn:  make(map[Endpoint]*gousb.InEndpoint),
		epOut: make(map[Endpoint]*gousb.OutEndpoint),
	}

	res.UsbCtx = gousb.NewContext()

	for _, q := range quirks {
		res.Dev, err = res.UsbCtx.OpenDeviceWithVIDPID(gousb.ID(q.VID), gousb.ID(q.PID))
		if err == nil && res.Dev != nil {
			res.Quirk = q
			log.Infof("Found %s", q.String())
			break
		}
	}
	if res.Dev == nil {
		res.Close()
		if err != nil {
			return nil, errors.Wrap(ErrNoDevice, err.Error())
		}
		return nil, ErrNoDevice
	}

	// ... detached from the kernel, to avoid interference from the HID driver
	if err = res.Dev.SetAutoDetach(true); err != nil {
		res.Close()
		return nil, errors.Wrap(err, "couldn't enable kernel driver auto detach")
	}

	num, err := res.Dev.ActiveConfigNum()
	if err != nil {
		res.Close()
		return nil, errors.Wrap(err, "couldn't retrieve active config number")
	}

	res.Config, err = res.Dev.Config(num)
	if err != nil {
		res.Close()
		return nil, errors.Wrapf(err, "couldn't retrieve config %d", num)
	}

	res.Iface, err = res.Config.Interface(0, 0)
	if err != nil {
		res.Close()
		return nil, errors.Wrap(err, "couldn't claim interface 0")
	}
	log.Debugf("... accessing controller on interface: %s", res.Iface.String())

	return res, nil
}
