package wmpc

import (
	"fmt"
	"math"
)

// ExtensionID identifies the peripheral on the extension port, or the one
// behind an active Motion Plus.
type ExtensionID int

const (
	ExtensionUnknown ExtensionID = iota
	ExtensionNone
	ExtensionNunchuk
	ExtensionClassic
	ExtensionUnsupported
)

func (e ExtensionID) String() string {
	switch e {
	case ExtensionUnknown:
		return "unknown"
	case ExtensionNone:
		return "none"
	case ExtensionNunchuk:
		return "Nunchuk"
	case ExtensionClassic:
		return "Classic"
	}
	return "unsupported"
}

// IdentifyExtension resolves the two identity bytes read from the probe
// address.
func IdentifyExtension(b4, b5 byte) ExtensionID {
	switch {
	case b4 == 0x00 && b5 == 0x00:
		return ExtensionNunchuk
	case b4 == 0x01 && b5 == 0x01:
		return ExtensionClassic
	}
	return ExtensionUnsupported
}

// PassthroughMode is the Motion Plus mode tag.  It doubles as the byte
// written to activate that mode.
type PassthroughMode byte

const (
	ModeInactive       PassthroughMode = 0x00
	ModeMotionPlusOnly PassthroughMode = 0x04
	ModeNunchuk        PassthroughMode = 0x05
	ModeClassic        PassthroughMode = 0x07

	// not a device value: "not known" / "not chosen"
	ModeUnset PassthroughMode = 0xff
)

func (m PassthroughMode) String() string {
	switch m {
	case ModeInactive:
		return "inactive"
	case ModeMotionPlusOnly:
		return "motionplus"
	case ModeNunchuk:
		return "nunchuk-passthrough"
	case ModeClassic:
		return "classic-passthrough"
	case ModeUnset:
		return "unset"
	}
	return fmt.Sprintf("mode(0x%02x)", byte(m))
}

// PassthroughModeFor returns the mode that forwards ext's data.
func PassthroughModeFor(ext ExtensionID) PassthroughMode {
	if ext == ExtensionClassic {
		return ModeClassic
	}
	return ModeNunchuk
}

// Peripheral bus registers used for identification and activation.
const (
	ExtInitAddress     = 0xf0
	ExtInitValue       = 0x55
	ExtEncryptAddress  = 0xfb
	ExtIdentityAddress = 0xfa
	ExtIdentitySize    = 6

	MotionPlusActivateAddress = 0xfe
	// an active Motion Plus caches the forwarded peripheral's identity here
	PassthroughIdentityAddress = 0xf6
	PassthroughIdentitySize    = 4

	motionPlusTrailer = 0x05
)

// ProbeResult is the outcome of reading the identity block at 0x52:0xfa.
type ProbeResult struct {
	MotionPlusActive bool
	Mode             PassthroughMode
	Extension        ExtensionID
}

// ParseProbe interprets the 6 identity bytes.  A trailer of 0x05 means the
// Motion Plus answered on the extension address.
func ParseProbe(id []byte) ProbeResult {
	if len(id) < ExtIdentitySize {
		return ProbeResult{Mode: ModeInactive, Extension: ExtensionNone}
	}
	if id[5] == motionPlusTrailer {
		return ProbeResult{MotionPlusActive: true, Mode: PassthroughMode(id[4]), Extension: ExtensionUnknown}
	}
	return ProbeResult{Mode: ModeInactive, Extension: IdentifyExtension(id[4], id[5])}
}

type NunchukState struct {
	Stick   [2]byte
	Accel   [3]uint16
	Buttons NunchukButton
}

// DecodeNunchuk reads a 6-byte Nunchuk payload.
func DecodeNunchuk(b []byte) NunchukState {
	s := NunchukState{
		Stick: [2]byte{b[0], b[1]},
		Accel: [3]uint16{
			uint16(b[2])<<2 | uint16(b[5]>>2)&3,
			uint16(b[3])<<2 | uint16(b[5]>>4)&3,
			uint16(b[4])<<2 | uint16(b[5]>>6)&3,
		},
	}
	// active low
	if b[5]&0x01 == 0 {
		s.Buttons |= Nunchuk_Z
	}
	if b[5]&0x02 == 0 {
		s.Buttons |= Nunchuk_C
	}
	return s
}

// EncodeNunchuk is the inverse of DecodeNunchuk.
func EncodeNunchuk(s NunchukState) []byte {
	b := []byte{s.Stick[0], s.Stick[1], byte(s.Accel[0] >> 2), byte(s.Accel[1] >> 2), byte(s.Accel[2] >> 2), 0}
	b[5] = byte(s.Accel[2]&3)<<6 | byte(s.Accel[1]&3)<<4 | byte(s.Accel[0]&3)<<2
	if s.Buttons&Nunchuk_C == 0 {
		b[5] |= 0x02
	}
	if s.Buttons&Nunchuk_Z == 0 {
		b[5] |= 0x01
	}
	return b
}

func (s NunchukState) Pressed(b NunchukButton) bool {
	return s.Buttons&b != 0
}

// StickPosition returns the stick in [-1,1]².
func (s NunchukState) StickPosition(c NunchukCalibration) (x, y float64) {
	return c.Stick[0].Normalize(s.Stick[0]), c.Stick[1].Normalize(s.Stick[1])
}

type ClassicState struct {
	// 6-bit left stick, 5-bit right stick
	Left, Right [2]byte
	// 5-bit analog triggers, L then R
	Triggers [2]byte
	Buttons  ClassicButton
}

const classicButtonMask = 0xfffe

// DecodeClassic reads a 6-byte Classic Controller payload.
func DecodeClassic(b []byte) ClassicState {
	return ClassicState{
		Left: [2]byte{b[0] & 0x3f, b[1] & 0x3f},
		Right: [2]byte{
			(b[0]&0xc0)>>3 | (b[1]&0xc0)>>5 | (b[2]&0x80)>>7,
			b[2] & 0x1f,
		},
		Triggers: [2]byte{
			(b[2]&0x60)>>2 | (b[3]&0xe0)>>5,
			b[3] & 0x1f,
		},
		Buttons: ^ClassicButton(uint16(b[4])|uint16(b[5])<<8) & classicButtonMask,
	}
}

// EncodeClassic is the inverse of DecodeClassic.
func EncodeClassic(s ClassicState) []byte {
	b := make([]byte, 6)
	rx := s.Right[0] & 0x1f
	b[0] = s.Left[0]&0x3f | (rx>>3&3)<<6
	b[1] = s.Left[1]&0x3f | (rx>>1&3)<<6
	b[2] = (rx&1)<<7 | (s.Triggers[0]>>3&3)<<5 | s.Right[1]&0x1f
	b[3] = (s.Triggers[0]&7)<<5 | s.Triggers[1]&0x1f
	btn := ^uint16(s.Buttons&classicButtonMask) | ^uint16(classicButtonMask)
	b[4], b[5] = byte(btn), byte(btn>>8)
	return b
}

func (s ClassicState) Pressed(b ClassicButton) bool {
	return s.Buttons&b != 0
}

// Sticks returns LX, LY, RX, RY in [-1,1].  Calibration is in 8-bit units.
func (s ClassicState) Sticks(c ClassicCalibration) [4]float64 {
	raw := [4]byte{s.Left[0] << 2, s.Left[1] << 2, s.Right[0] << 3, s.Right[1] << 3}
	var out [4]float64
	for i := range raw {
		out[i] = c.Sticks[i].Normalize(raw[i])
	}
	return out
}

// TriggerLevels returns L and R in [0,1].
func (s ClassicState) TriggerLevels(c ClassicCalibration) [2]float64 {
	var out [2]float64
	for i, t := range s.Triggers {
		zero := float64(c.TriggerZero[i])
		top := float64(0x1f << 3)
		if zero >= top {
			zero = 0
		}
		out[i] = clamp((float64(t<<3)-zero)/(top-zero), 0, 1)
	}
	return out
}

// MotionPlusData is one 6-byte Motion Plus frame.  Axes are 14 bits, ordered
// yaw, roll, pitch.
type MotionPlusData struct {
	Axes [3]uint16
	// true when the axis is in slow (high precision) mode
	Slow               [3]bool
	ExtensionConnected bool
	IsMotionPlusData   bool
}

// DecodeMotionPlus reads the Motion Plus format.  When IsMotionPlusData is
// false the payload is forwarded peripheral data and only
// ExtensionConnected is meaningful.
func DecodeMotionPlus(b []byte) MotionPlusData {
	return MotionPlusData{
		Axes: [3]uint16{
			uint16(b[0]) | uint16(b[3]>>2)<<8,
			uint16(b[1]) | uint16(b[4]>>2)<<8,
			uint16(b[2]) | uint16(b[5]>>2)<<8,
		},
		Slow:               [3]bool{b[3]&0x02 != 0, b[4]&0x02 != 0, b[3]&0x01 != 0},
		ExtensionConnected: b[4]&0x01 != 0,
		IsMotionPlusData:   b[5]&0x02 != 0,
	}
}

// EncodeMotionPlus is the inverse of DecodeMotionPlus.
func EncodeMotionPlus(d MotionPlusData) []byte {
	b := make([]byte, 6)
	for i, v := range d.Axes {
		b[i] = byte(v)
		b[3+i] = byte(v>>8&0x3f) << 2
	}
	b[3] |= boolBit(d.Slow[0], 0x02) | boolBit(d.Slow[2], 0x01)
	b[4] |= boolBit(d.Slow[1], 0x02) | boolBit(d.ExtensionConnected, 0x01)
	b[5] |= boolBit(d.IsMotionPlusData, 0x02)
	return b
}

// Default Motion Plus conversion: 14-bit units per deg/s.
const (
	motionPlusZero        = 0x2000
	motionPlusSlowPerDeg  = 20.0
	motionPlusFastPerDeg  = 20.0 / 4.4
	motionPlusCalibration = 4 // calibration values are 16-bit, data is 14-bit
)

// AngularVelocity converts a frame to rad/s (yaw, roll, pitch).  A zero
// calibration or degenerate block falls back to nominal factors.
func (d MotionPlusData) AngularVelocity(c MotionPlusCalibration) Vec3 {
	var out [3]float64
	for i, raw := range d.Axes {
		blk := c.Fast
		perDeg := motionPlusFastPerDeg
		if d.Slow[i] {
			blk = c.Slow
			perDeg = motionPlusSlowPerDeg
		}
		zero := float64(motionPlusZero)
		if blk.Degrees > 0 && blk.Scale[i] != blk.Zero[i] {
			zero = float64(blk.Zero[i]) / motionPlusCalibration
			perDeg = (float64(blk.Scale[i]) - float64(blk.Zero[i])) / motionPlusCalibration / float64(blk.Degrees)
		}
		out[i] = (float64(raw) - zero) / perDeg * math.Pi / 180
	}
	return Vec3{out[0], out[1], out[2]}
}

// ReversePassthrough rebuilds the native 6-byte payload of the peripheral
// forwarded in mode.  Bits the Motion Plus dropped are zeroed.  Other modes
// return a copy unchanged.
func ReversePassthrough(mode PassthroughMode, pt []byte) []byte {
	b := make([]byte, 6)
	copy(b, pt)
	switch mode {
	case ModeNunchuk:
		b[4] = pt[4]&0xfe | pt[5]>>7&1
		b[5] = (pt[5]>>6&1)<<7 |
			(pt[5]>>5&1)<<5 |
			(pt[5]>>4&1)<<3 |
			(pt[5]>>3&1)<<1 |
			(pt[5]>>2&1)<<0
	case ModeClassic:
		b[0] = pt[0] &^ 1
		b[1] = pt[1] &^ 1
		b[5] = pt[5]&^3 | pt[0]&1 | (pt[1]&1)<<1
	}
	return b
}

// ApplyPassthrough is the inverse of ReversePassthrough, producing what the
// Motion Plus sends for a native payload.
func ApplyPassthrough(mode PassthroughMode, b []byte, extConnected bool) []byte {
	pt := make([]byte, 6)
	copy(pt, b)
	switch mode {
	case ModeNunchuk:
		pt[4] = b[4]&0xfe | boolBit(extConnected, 1)
		pt[5] = (b[4]&1)<<7 |
			(b[5]>>7&1)<<6 |
			(b[5]>>5&1)<<5 |
			(b[5]>>3&1)<<4 |
			(b[5]>>1&1)<<3 |
			(b[5]&1)<<2
	case ModeClassic:
		pt[0] = b[0]&^1 | b[5]&1
		pt[1] = b[1]&^1 | b[5]>>1&1
		pt[4] = b[4]&^1 | boolBit(extConnected, 1)
		pt[5] = b[5] &^ 3
	}
	return pt
}
