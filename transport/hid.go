package transport

import (
	"os"

	"github.com/GeertJohan/go.hid"
	"github.com/pkg/errors"

	"github.com/riking/wiimote/wmpc"
)

// HID is a Transport over hidapi.
type HID struct {
	*stream
}

var _ wmpc.Transport = (*HID)(nil)

// OpenHID opens an enumerated hidapi device.
func OpenHID(info *hid.DeviceInfo) (*HID, error) {
	dev, err := info.Device()
	if err != nil {
		if os.IsPermission(err) {
			return nil, errors.Wrap(err, "open Wii Remote: install udev rules or run as root")
		}
		return nil, errors.Wrapf(err, "open Wii Remote %s", info.Path)
	}
	serial := info.SerialNumber
	if serial == "" {
		serial, err = dev.SerialNumberString()
		if err != nil {
			dev.Close()
			return nil, errors.Wrap(err, "read serial number")
		}
	}
	h := handle{
		read:  dev.Read,
		write: dev.Write,
		close: func() { dev.Close() },
	}
	return &HID{stream: newStream(h, "hidapi", serial)}, nil
}
