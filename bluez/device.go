package bluez

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/godbus/dbus/v5"

	"github.com/riking/wiimote/wmpc"
)

var wiimoteNames = []string{
	wmpc.WIIMOTE_NAME,
	wmpc.WIIMOTE_NAME_TR,
}

type deviceInfo struct {
	Name    string
	Address string

	Paired        bool
	Trusted       bool
	Connected     bool
	IsInputDevice bool
	IsWiimote     bool
}

// merge applies Device1 properties over d.
func (d deviceInfo) merge(props map[string]dbus.Variant) deviceInfo {
	for k, v := range props {
		switch k {
		case "Name":
			d.Name, _ = v.Value().(string)
		case "Address":
			d.Address, _ = v.Value().(string)
		case "Paired":
			d.Paired, _ = v.Value().(bool)
		case "Trusted":
			d.Trusted, _ = v.Value().(bool)
		case "Connected":
			d.Connected, _ = v.Value().(bool)
		case "UUIDs":
			uuids, _ := v.Value().([]string)
			d.IsInputDevice = false
			for _, u := range uuids {
				if u == HIDProfileUUIDStrL || u == HIDProfileUUIDStrU {
					d.IsInputDevice = true
					break
				}
			}
		}
	}
	d.IsWiimote = false
	for _, n := range wiimoteNames {
		if d.Name == n {
			d.IsWiimote = true
			break
		}
	}
	return d
}

type action int

const (
	actTrust action = iota
	actPair
	actConnect
)

func (a action) String() string {
	switch a {
	case actTrust:
		return "trust"
	case actPair:
		return "pair"
	case actConnect:
		return "connect"
	}
	return "unknown"
}

// plan decides what to ask BlueZ for after a device changed from prev to
// cur.
func plan(prev, cur deviceInfo, discovering bool) []action {
	if !cur.IsWiimote {
		return nil
	}
	var out []action
	if cur.Paired && !cur.Trusted {
		out = append(out, actTrust)
	}
	switch {
	case !cur.Paired && discovering && !prev.IsWiimote:
		out = append(out, actPair)
	case cur.Paired && !cur.Connected && (!prev.Paired || !prev.IsWiimote):
		out = append(out, actConnect)
	}
	return out
}

// parseMACPath extracts the address from /org/bluez/hci0/dev_00_19_1D_AA_BB_CC.
func parseMACPath(path dbus.ObjectPath) (mac [6]byte, str string, ok bool) {
	idx := strings.LastIndex(string(path), "/")
	if idx < 0 {
		return mac, "", false
	}
	macSplit := strings.Split(string(path)[idx+1:], "_")
	if len(macSplit) != 7 || macSplit[0] != "dev" {
		return mac, "", false
	}
	for i := 0; i < 6; i++ {
		by, err := strconv.ParseUint(macSplit[i+1], 16, 8)
		if err != nil {
			return mac, "", false
		}
		mac[i] = byte(by)
	}
	str = fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X",
		mac[0], mac[1], mac[2], mac[3], mac[4], mac[5],
	)
	return mac, str, true
}
