package output

import "github.com/riking/wiimote/controller"

type commonKeyMap struct {
	Input string
	Name  string
}

// commonStickMap combines two half axes into one gamepad axis.
type commonStickMap struct {
	Neg, Pos string
	Invert   bool
	Name     string
}

// commonTriggerMap maps an unsigned [0,1] input to a gamepad axis.
type commonTriggerMap struct {
	Input string
	Name  string
}

type ControllerMapping struct {
	Keys     []commonKeyMap
	Axes     []commonStickMap
	Triggers []commonTriggerMap
}

// https://w3c.github.io/gamepad/#remapping
// Inputs report positive up/right; the system expects negative up.

// MappingRemote is the remote held upright, with a Nunchuk if attached.
var MappingRemote = ControllerMapping{
	Keys: []commonKeyMap{
		{"A", "GamepadSouth"},
		{"B", "GamepadEast"},
		{"1", "GamepadWest"},
		{"2", "GamepadNorth"},

		{"Up", "GamepadD-Up"},
		{"Down", "GamepadD-Down"},
		{"Left", "GamepadD-Left"},
		{"Right", "GamepadD-Right"},

		{"Nunchuk C", "GamepadTL"},
		{"Nunchuk Z", "GamepadTL2"},

		{"HOME", "GamepadLogo"},
		{"+", "GamepadStart"},
		{"-", "GamepadSelect"},
	},
	Axes: []commonStickMap{
		{"Nunchuk Stick Left", "Nunchuk Stick Right", false, "MainStickHoriz"},
		{"Nunchuk Stick Down", "Nunchuk Stick Up", true, "MainStickVertical"},
	},
}

// MappingClassic is a Classic Controller, with the remote's HOME as well.
var MappingClassic = ControllerMapping{
	Keys: []commonKeyMap{
		{"Classic B", "GamepadSouth"},
		{"Classic A", "GamepadEast"},
		{"Classic Y", "GamepadWest"},
		{"Classic X", "GamepadNorth"},

		{"Classic Up", "GamepadD-Up"},
		{"Classic Down", "GamepadD-Down"},
		{"Classic Left", "GamepadD-Left"},
		{"Classic Right", "GamepadD-Right"},

		{"Classic L", "GamepadTL"},
		{"Classic R", "GamepadTR"},
		{"Classic ZL", "GamepadTL2"},
		{"Classic ZR", "GamepadTR2"},

		{"Classic HOME", "GamepadLogo"},
		{"HOME", "GamepadLogo"},
		{"Classic +", "GamepadStart"},
		{"Classic -", "GamepadSelect"},
	},
	Axes: []commonStickMap{
		{"Classic Left Stick Left", "Classic Left Stick Right", false, "MainStickHoriz"},
		{"Classic Left Stick Down", "Classic Left Stick Up", true, "MainStickVertical"},
		{"Classic Right Stick Left", "Classic Right Stick Right", false, "SecondStickHoriz"},
		{"Classic Right Stick Down", "Classic Right Stick Up", true, "SecondStickVertical"},
	},
	Triggers: []commonTriggerMap{
		{"Classic L-Analog", "LeftTrigger"},
		{"Classic R-Analog", "RightTrigger"},
	},
}

// MappingByName returns the mapping for a config value.
func MappingByName(name string) (ControllerMapping, bool) {
	switch name {
	case "remote":
		return MappingRemote, true
	case "classic":
		return MappingClassic, true
	}
	return ControllerMapping{}, false
}

// axisState tracks the two halves of a mapped stick.
type axisState struct {
	neg, pos float64
}

// value combines the halves into [-1,1].
func (a axisState) value(invert bool) float64 {
	v := a.pos - a.neg
	if invert {
		v = -v
	}
	return v
}

// Tee sends every update to each sink in turn.
type Tee []controller.Sink

func (t Tee) BeginUpdate() {
	for _, s := range t {
		s.BeginUpdate()
	}
}

func (t Tee) InputUpdate(d controller.Device, in controller.Input, value float64) {
	for _, s := range t {
		s.InputUpdate(d, in, value)
	}
}

// FlushUpdate flushes every sink and returns the first error.
func (t Tee) FlushUpdate() error {
	var first error
	for _, s := range t {
		if err := s.FlushUpdate(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
