package transport

import (
	"github.com/GeertJohan/go.hid"
	"github.com/pkg/errors"

	"github.com/riking/wiimote/wmpc"
)

var wiimoteProducts = []uint16{wmpc.WIIMOTE_PRODUCT, wmpc.WIIMOTE_PRODUCT_TR}

// IsWiimote reports whether a vendor/product pair is a Wii Remote.
func IsWiimote(vendor, product uint16) bool {
	if vendor != wmpc.VENDOR_NINTENDO {
		return false
	}
	for _, p := range wiimoteProducts {
		if p == product {
			return true
		}
	}
	return false
}

// Candidate is a remote found by a scan that has not been opened yet.
type Candidate struct {
	Serial  string
	Product uint16
	Path    string
	open    func() (wmpc.Transport, error)
}

// NewCandidate describes a remote opened by open.
func NewCandidate(serial, path string, product uint16, open func() (wmpc.Transport, error)) Candidate {
	return Candidate{Serial: serial, Path: path, Product: product, open: open}
}

func (c Candidate) Open() (wmpc.Transport, error) {
	return c.open()
}

// Enumerate lists the remotes hidapi can see.
func Enumerate() ([]*hid.DeviceInfo, error) {
	var out []*hid.DeviceInfo
	for _, product := range wiimoteProducts {
		list, err := hid.Enumerate(wmpc.VENDOR_NINTENDO, product)
		if err != nil {
			return nil, errors.Wrapf(err, "enumerate %04x:%04x", wmpc.VENDOR_NINTENDO, product)
		}
		out = append(out, list...)
	}
	return out, nil
}

// Scan lists connected remotes through hidapi, or through udev and raw
// hidraw nodes when useHidraw is set.
func Scan(useHidraw bool) ([]Candidate, error) {
	var out []Candidate
	if useHidraw {
		list, err := EnumerateHidraw()
		if err != nil {
			return nil, err
		}
		for _, info := range list {
			info := info
			out = append(out, Candidate{
				Serial:  info.Serial,
				Product: info.Product,
				Path:    info.Devnode,
				open: func() (wmpc.Transport, error) {
					t, err := OpenHidraw(info)
					if err != nil {
						return nil, err
					}
					return t, nil
				},
			})
		}
		return out, nil
	}

	list, err := Enumerate()
	if err != nil {
		return nil, err
	}
	for _, info := range list {
		info := info
		out = append(out, Candidate{
			Serial:  info.SerialNumber,
			Product: info.ProductId,
			Path:    info.Path,
			open: func() (wmpc.Transport, error) {
				t, err := OpenHID(info)
				if err != nil {
					return nil, err
				}
				return t, nil
			},
		})
	}
	return out, nil
}
