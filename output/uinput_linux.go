package output

import (
	"encoding/binary"
	"math"
	"os"
	"sync"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/riking/wiimote/controller"
)

// linux/input-event-codes.h
const (
	evSyn = 0x00
	evKey = 0x01
	evAbs = 0x03

	synReport = 0

	btnSouth        = 0x130
	btnEast         = 0x131
	btnNorth        = 0x133
	btnWest         = 0x134
	btnTL           = 0x136
	btnTR           = 0x137
	btnTL2          = 0x138
	btnTR2          = 0x139
	btnSelect       = 0x13a
	btnStart        = 0x13b
	btnMode         = 0x13c
	btnThumbL       = 0x13d
	btnThumbR       = 0x13e
	btnDpadUp       = 0x220
	btnDpadDown     = 0x221
	btnDpadLeft     = 0x222
	btnDpadRight    = 0x223
	btnTriggerHappy = 0x2c0

	absZ     = 0x02
	absRX    = 0x03
	absRY    = 0x04
	absRZ    = 0x05
	absGas   = 0x09
	absBrake = 0x0a
)

// linux/uinput.h
const (
	uiDevCreate  = 0x5501
	uiDevDestroy = 0x5502
	uiDevSetup   = 0x405c5503
	uiAbsSetup   = 0x401c5504
	uiSetEvBit   = 0x40045564
	uiSetKeyBit  = 0x40045565
	uiSetAbsBit  = 0x40045567

	busBluetooth = 0x05
)

type linuxKeyCode struct {
	Name  string
	Value uint16
}

var linuxKeyNames = []linuxKeyCode{
	// linux requires that BTN_SOUTH be used
	{"GamepadSouth", btnSouth},
	{"GamepadEast", btnEast},
	{"GamepadNorth", btnNorth},
	{"GamepadWest", btnWest},
	{"GamepadTL", btnTL},
	{"GamepadTR", btnTR},
	{"GamepadTL2", btnTL2},
	{"GamepadTR2", btnTR2},
	{"GamepadSelect", btnSelect},
	{"GamepadStart", btnStart},
	{"GamepadLogo", btnMode},
	{"GamepadLStick", btnThumbL},
	{"GamepadRStick", btnThumbR},
	{"GamepadD-Up", btnDpadUp},
	{"GamepadD-Down", btnDpadDown},
	{"GamepadD-Left", btnDpadLeft},
	{"GamepadD-Right", btnDpadRight},

	{"GamepadExtra1", btnTriggerHappy + 0},
	{"GamepadExtra2", btnTriggerHappy + 1},
	{"GamepadExtra3", btnTriggerHappy + 2},
	{"GamepadExtra4", btnTriggerHappy + 3},
}

var linuxAxisNames = []linuxKeyCode{
	// have to avoid ABS_X and ABS_Y because X thinks it's a mouse despite BTN_GAMEPAD
	{"MainStickHoriz", absZ},
	{"MainStickVertical", absRX},
	{"SecondStickHoriz", absRY},
	{"SecondStickVertical", absRZ},
	{"LeftTrigger", absBrake},
	{"RightTrigger", absGas},
}

var linuxKeyMap = make(map[string]uint16)

func init() {
	for _, e := range linuxKeyNames {
		linuxKeyMap[e.Name] = e.Value
	}
	for _, e := range linuxAxisNames {
		linuxKeyMap[e.Name] = e.Value
	}
}

const axisMax = 32767

type stickCode struct {
	code   uint16
	invert bool
	state  *axisState
}

type internalKeyCodeMapping struct {
	keys     map[string]uint16
	sticks   map[string]stickCode // keyed by both half-axis names
	triggers map[string]uint16

	keyCodes, axisCodes []uint16
}

func commonMappingToInternal(m ControllerMapping) (internalKeyCodeMapping, error) {
	r := internalKeyCodeMapping{
		keys:     make(map[string]uint16),
		sticks:   make(map[string]stickCode),
		triggers: make(map[string]uint16),
	}
	seen := make(map[uint16]bool)
	lookup := func(name string, axis bool) (uint16, error) {
		code, ok := linuxKeyMap[name]
		if !ok {
			return 0, errors.Errorf("unknown gamepad code %q", name)
		}
		if !seen[code] {
			seen[code] = true
			if axis {
				r.axisCodes = append(r.axisCodes, code)
			} else {
				r.keyCodes = append(r.keyCodes, code)
			}
		}
		return code, nil
	}

	for _, k := range m.Keys {
		code, err := lookup(k.Name, false)
		if err != nil {
			return r, err
		}
		r.keys[k.Input] = code
	}
	for _, a := range m.Axes {
		code, err := lookup(a.Name, true)
		if err != nil {
			return r, err
		}
		sc := stickCode{code: code, invert: a.Invert, state: new(axisState)}
		r.sticks[a.Neg] = sc
		r.sticks[a.Pos] = sc
	}
	for _, t := range m.Triggers {
		code, err := lookup(t.Name, true)
		if err != nil {
			return r, err
		}
		r.triggers[t.Input] = code
	}
	return r, nil
}

// UInput presents a remote to the system as an evdev gamepad.
type UInput struct {
	mu      sync.Mutex
	f       *os.File
	mapping internalKeyCodeMapping

	pending []byte
	err     error
}

// NewUInput creates a gamepad device named after the remote.
func NewUInput(m ControllerMapping, name string) (*UInput, error) {
	mapping, err := commonMappingToInternal(m)
	if err != nil {
		return nil, err
	}
	f, err := os.OpenFile("/dev/uinput", os.O_WRONLY, 0)
	if err != nil {
		if os.IsPermission(err) {
			return nil, errors.Wrap(err, "opening /dev/uinput (is the uinput module loaded and writable?)")
		}
		return nil, errors.Wrap(err, "opening /dev/uinput")
	}
	if err := setupDevice(f.Fd(), mapping, name); err != nil {
		f.Close()
		return nil, err
	}
	return &UInput{f: f, mapping: mapping}, nil
}

func ioctl(fd uintptr, req uintptr, arg uintptr) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, req, arg)
	if errno != 0 {
		return errno
	}
	return nil
}

// struct uinput_setup
type uinputSetup struct {
	bustype, vendor, product, version uint16
	name                              [80]byte
	ffEffectsMax                      uint32
}

// struct uinput_abs_setup
type uinputAbsSetup struct {
	code                                    uint16
	_                                       uint16
	value, min, max, fuzz, flat, resolution int32
}

func setupDevice(fd uintptr, m internalKeyCodeMapping, name string) error {
	if err := ioctl(fd, uiSetEvBit, evKey); err != nil {
		return errors.Wrap(err, "UI_SET_EVBIT")
	}
	for _, code := range m.keyCodes {
		if err := ioctl(fd, uiSetKeyBit, uintptr(code)); err != nil {
			return errors.Wrapf(err, "UI_SET_KEYBIT %#x", code)
		}
	}
	if len(m.axisCodes) > 0 {
		if err := ioctl(fd, uiSetEvBit, evAbs); err != nil {
			return errors.Wrap(err, "UI_SET_EVBIT")
		}
	}
	for _, code := range m.axisCodes {
		if err := ioctl(fd, uiSetAbsBit, uintptr(code)); err != nil {
			return errors.Wrapf(err, "UI_SET_ABSBIT %#x", code)
		}
		abs := uinputAbsSetup{code: code, min: -axisMax, max: axisMax, fuzz: 16, flat: 128}
		if code == absGas || code == absBrake {
			abs.min = 0
			abs.flat = 0
		}
		if err := ioctl(fd, uiAbsSetup, uintptr(unsafe.Pointer(&abs))); err != nil {
			return errors.Wrapf(err, "UI_ABS_SETUP %#x", code)
		}
	}

	setup := uinputSetup{bustype: busBluetooth, vendor: 0x057e, product: 0x0306, version: 1}
	copy(setup.name[:len(setup.name)-1], name)
	if err := ioctl(fd, uiDevSetup, uintptr(unsafe.Pointer(&setup))); err != nil {
		return errors.Wrap(err, "UI_DEV_SETUP")
	}
	if err := ioctl(fd, uiDevCreate, 0); err != nil {
		return errors.Wrap(err, "UI_DEV_CREATE")
	}
	return nil
}

// appendEvent encodes a struct input_event with the time left zero; the
// kernel fills it in.
func appendEvent(b []byte, typ, code uint16, value int32) []byte {
	var ev [int(unsafe.Sizeof(unix.Timeval{})) + 8]byte
	off := len(ev) - 8
	binary.NativeEndian.PutUint16(ev[off:], typ)
	binary.NativeEndian.PutUint16(ev[off+2:], code)
	binary.NativeEndian.PutUint32(ev[off+4:], uint32(value))
	return append(b, ev[:]...)
}

func scaleAxis(v float64, limit int32) int32 {
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	return int32(math.Round(v * float64(limit)))
}

func (u *UInput) BeginUpdate() {
	u.mu.Lock()
	u.pending = u.pending[:0]
	u.mu.Unlock()
}

func (u *UInput) InputUpdate(d controller.Device, in controller.Input, value float64) {
	u.mu.Lock()
	defer u.mu.Unlock()
	name := in.GetName()
	if code, ok := u.mapping.keys[name]; ok {
		var v int32
		if value != 0 {
			v = 1
		}
		u.pending = appendEvent(u.pending, evKey, code, v)
	}
	if sc, ok := u.mapping.sticks[name]; ok {
		if h, isHalf := in.(*controller.HalfAxis); isHalf && h.Negative {
			sc.state.neg = value
		} else {
			sc.state.pos = value
		}
		u.pending = appendEvent(u.pending, evAbs, sc.code, scaleAxis(sc.state.value(sc.invert), axisMax))
	}
	if code, ok := u.mapping.triggers[name]; ok {
		u.pending = appendEvent(u.pending, evAbs, code, scaleAxis(value, axisMax))
	}
}

func (u *UInput) FlushUpdate() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.err != nil {
		return u.err
	}
	if len(u.pending) == 0 {
		return nil
	}
	u.pending = appendEvent(u.pending, evSyn, synReport, 0)
	_, err := u.f.Write(u.pending)
	u.pending = u.pending[:0]
	if err != nil {
		u.err = errors.Wrap(err, "writing uinput events")
	}
	return u.err
}

// Close destroys the gamepad device.
func (u *UInput) Close() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.f == nil {
		return nil
	}
	ioctl(u.f.Fd(), uiDevDestroy, 0)
	err := u.f.Close()
	u.f = nil
	u.err = errors.New("uinput device closed")
	return err
}

