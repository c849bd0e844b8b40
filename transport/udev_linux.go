package transport

import (
	"context"
	"fmt"

	"github.com/jkeiser/iter"
	"github.com/jochenvg/go-udev"
	"github.com/pkg/errors"
)

// HidrawInfo describes a hidraw node belonging to a remote.
type HidrawInfo struct {
	Devnode string
	Serial  string
	Name    string
	Product uint16
}

// parseHIDID splits a HID_ID property, "0005:0000057E:00000306".
func parseHIDID(s string) (bus uint32, vendor, product uint16, err error) {
	var v, p uint32
	n, err := fmt.Sscanf(s, "%x:%x:%x", &bus, &v, &p)
	if err != nil || n != 3 {
		return 0, 0, 0, errors.Errorf("malformed HID_ID %q", s)
	}
	if v > 0xffff || p > 0xffff {
		return 0, 0, 0, errors.Errorf("HID_ID %q out of range", s)
	}
	return bus, uint16(v), uint16(p), nil
}

// hidrawInfo reads a hidraw device's parent HID properties.  ok is false for
// anything that is not a remote.
func hidrawInfo(dev *udev.Device) (HidrawInfo, bool) {
	parent := dev.ParentWithSubsystemDevtype("hid", "")
	if parent == nil || dev.Devnode() == "" {
		return HidrawInfo{}, false
	}
	_, vendor, product, err := parseHIDID(parent.PropertyValue("HID_ID"))
	if err != nil || !IsWiimote(vendor, product) {
		return HidrawInfo{}, false
	}
	return HidrawInfo{
		Devnode: dev.Devnode(),
		Serial:  parent.PropertyValue("HID_UNIQ"),
		Name:    parent.PropertyValue("HID_NAME"),
		Product: product,
	}, true
}

// EnumerateHidraw lists the hidraw nodes of connected remotes.
func EnumerateHidraw() ([]HidrawInfo, error) {
	u := udev.Udev{}
	e := u.NewEnumerate()
	if err := e.AddMatchSubsystem("hidraw"); err != nil {
		return nil, errors.Wrap(err, "udev match hidraw")
	}
	it, err := e.DeviceIterator()
	if err != nil {
		return nil, errors.Wrap(err, "udev scan")
	}

	var out []HidrawInfo
	err = wiimotesOnly(it).Each(func(v interface{}) {
		out = append(out, v.(HidrawInfo))
	})
	if err != nil && err != iter.FINISHED {
		return nil, errors.Wrap(err, "udev scan")
	}
	return out, nil
}

// wiimotesOnly turns an iterator of hidraw devices into one of HidrawInfo
// for the remotes among them.
func wiimotesOnly(devices iter.Iterator) iter.Iterator {
	return devices.
		Map(func(v interface{}) interface{} {
			dev, _ := v.(*udev.Device)
			if dev == nil {
				return nil
			}
			info, ok := hidrawInfo(dev)
			if !ok {
				return nil
			}
			return info
		}).
		Select(func(v interface{}) bool { return v != nil })
}

// Hotplug is a hidraw node appearing or disappearing.
type Hotplug struct {
	Action  string // "add" or "remove"
	Devnode string
}

// Monitor reports hidraw hotplug events until ctx is done.
func Monitor(ctx context.Context) (<-chan Hotplug, error) {
	u := udev.Udev{}
	m := u.NewMonitorFromNetlink("udev")
	if m == nil {
		return nil, errors.New("udev netlink monitor unavailable")
	}
	if err := m.FilterAddMatchSubsystem("hidraw"); err != nil {
		return nil, errors.Wrap(err, "udev monitor filter")
	}
	devices, err := m.DeviceChan(ctx.Done())
	if err != nil {
		return nil, errors.Wrap(err, "udev monitor")
	}

	out := make(chan Hotplug, 8)
	go func() {
		defer close(out)
		for dev := range devices {
			ev := Hotplug{Action: dev.Action(), Devnode: dev.Devnode()}
			if ev.Action != "add" && ev.Action != "remove" {
				continue
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
