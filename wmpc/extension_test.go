package wmpc

import (
	"bytes"
	"math"
	"testing"
)

func TestAccelRoundTrip(t *testing.T) {
	cals := []AccelCalibration{
		DefaultAccelCalibration,
		{Zero: [3]uint16{0x1fc, 0x203, 0x1f0}, OneG: [3]uint16{0x262, 0x26c, 0x259}},
		{Zero: [3]uint16{0x200, 0x200, 0x200}, OneG: [3]uint16{0x180, 0x290, 0x201}},
	}
	for _, want := range cals {
		blk := want.Bytes()
		if !VerifyAccelChecksum(blk) {
			t.Fatalf("Bytes() produced a bad checksum: % x", blk)
		}
		cal, err := ParseAccelCalibration(blk)
		if err != nil {
			t.Fatalf("ParseAccelCalibration() error = %v", err)
		}
		if cal != want {
			t.Fatalf("ParseAccelCalibration() = %+v, want %+v", cal, want)
		}
		for v := uint16(0); v < 0x400; v += 2 {
			raw := [3]uint16{v, v, 0x3fe - v}
			var core [2]byte
			accel := make([]byte, 3)
			PutCoreAccel(&core, accel, raw)
			got := cal.EncodeAccel(cal.Normalize(CoreAccel(core, accel)))
			if got != raw {
				t.Fatalf("round trip %v -> %v with %+v", raw, got, cal)
			}
		}
	}
}

func TestAccelChecksumMismatch(t *testing.T) {
	blk := DefaultAccelCalibration.Bytes()
	blk[2]++
	if VerifyAccelChecksum(blk) {
		t.Errorf("VerifyAccelChecksum accepted a corrupt block")
	}
	if _, err := ParseAccelCalibration(blk); err != nil {
		t.Errorf("ParseAccelCalibration() rejected a block with a bad checksum: %v", err)
	}
}

func TestExtChecksums(t *testing.T) {
	blk := []byte{0x80, 0x80, 0x80, 0x00, 0xb3, 0xb3, 0xb3, 0x00, 0xe0, 0x20, 0x80, 0xe0, 0x20, 0x80, 0, 0}
	SetExtChecksum(blk)
	if !VerifyExtChecksum(blk) {
		t.Fatalf("VerifyExtChecksum rejected % x", blk)
	}
	if blk[15] != blk[14]+0x55 {
		t.Errorf("second checksum byte = %x, want %x", blk[15], blk[14]+0x55)
	}
	blk[15]++
	if VerifyExtChecksum(blk) {
		t.Errorf("VerifyExtChecksum accepted a corrupt block")
	}

	mp := make([]byte, MotionPlusCalibrationSize)
	for i := range mp {
		mp[i] = byte(i * 7)
	}
	SetMotionPlusChecksum(mp)
	if !VerifyMotionPlusChecksum(mp) {
		t.Fatalf("VerifyMotionPlusChecksum rejected % x", mp)
	}
	mp[20] ^= 0x10
	if VerifyMotionPlusChecksum(mp) {
		t.Errorf("VerifyMotionPlusChecksum accepted a corrupt block")
	}
}

func TestNunchuk(t *testing.T) {
	s := DecodeNunchuk([]byte{0x80, 0x7f, 0x90, 0xa0, 0xb0, 0b10_01_11_10})
	if s.Stick != [2]byte{0x80, 0x7f} {
		t.Errorf("Stick = %v", s.Stick)
	}
	want := [3]uint16{0x243, 0x281, 0x2c2}
	if s.Accel != want {
		t.Errorf("Accel = %x, want %x", s.Accel, want)
	}
	if !s.Pressed(Nunchuk_Z) || s.Pressed(Nunchuk_C) {
		t.Errorf("Buttons = %b", s.Buttons)
	}
	if got := EncodeNunchuk(s); !bytes.Equal(got, []byte{0x80, 0x7f, 0x90, 0xa0, 0xb0, 0b10_01_11_10}) {
		t.Errorf("EncodeNunchuk() = % x", got)
	}

	cal := NunchukCalibration{Stick: [2]StickCalibration{{0xe0, 0x20, 0x80}, {0xe0, 0x20, 0x80}}}
	s.Stick = [2]byte{0xe0, 0x20}
	x, y := s.StickPosition(cal)
	if x != 1 || y != -1 {
		t.Errorf("StickPosition() = %v, %v, want 1, -1", x, y)
	}
}

func TestClassic(t *testing.T) {
	in := ClassicState{
		Left:     [2]byte{0x3f, 0x01},
		Right:    [2]byte{0x15, 0x0a},
		Triggers: [2]byte{0x1b, 0x04},
		Buttons:  Classic_A | Classic_ZL | Classic_Right | Classic_R,
	}
	b := EncodeClassic(in)
	if got := DecodeClassic(b); got != in {
		t.Errorf("DecodeClassic(EncodeClassic()) = %+v, want %+v", got, in)
	}
	// all released, centred
	s := DecodeClassic([]byte{0x20, 0x20, 0x10, 0x00, 0xff, 0xff})
	if s.Buttons != 0 {
		t.Errorf("Buttons = %x, want 0", s.Buttons)
	}
	if s.Left != [2]byte{0x20, 0x20} {
		t.Errorf("Left = %v", s.Left)
	}
	lv := s.TriggerLevels(ClassicCalibration{})
	if lv != [2]float64{0, 0} {
		t.Errorf("TriggerLevels() = %v", lv)
	}
}

func TestMotionPlusDecode(t *testing.T) {
	b := []byte{0x00, 0x20, 0x10, 0x82, 0x81, 0x82}
	d := DecodeMotionPlus(b)
	if d.Axes != [3]uint16{0x2000, 0x2020, 0x2010} {
		t.Errorf("Axes = %x", d.Axes)
	}
	if d.Slow != [3]bool{true, false, false} {
		t.Errorf("Slow = %v", d.Slow)
	}
	if !d.ExtensionConnected || !d.IsMotionPlusData {
		t.Errorf("flags = %+v", d)
	}
	if got := EncodeMotionPlus(d); !bytes.Equal(got, b) {
		t.Errorf("EncodeMotionPlus() = % x, want % x", got, b)
	}

	v := d.AngularVelocity(MotionPlusCalibration{})
	if v.X != 0 {
		t.Errorf("yaw = %v, want 0", v.X)
	}
	wantRoll := 0x20 / (20.0 / 4.4) * math.Pi / 180
	if math.Abs(v.Y-wantRoll) > 1e-9 {
		t.Errorf("roll = %v, want %v", v.Y, wantRoll)
	}
}

func TestReversePassthrough(t *testing.T) {
	t.Run("nunchuk", func(t *testing.T) {
		pt := []byte{0x80, 0x7f, 0x90, 0xa0, 0xb1, 0xa8}
		got := ReversePassthrough(ModeNunchuk, pt)
		want := []byte{0x80, 0x7f, 0x90, 0xa0, 0xb1, 0x22}
		if !bytes.Equal(got, want) {
			t.Fatalf("ReversePassthrough() = % x, want % x", got, want)
		}
		s := DecodeNunchuk(got)
		if s.Accel != [3]uint16{0x240, 0x282, 0x2c4} {
			t.Errorf("Accel = %x", s.Accel)
		}
		if !s.Pressed(Nunchuk_Z) || s.Pressed(Nunchuk_C) {
			t.Errorf("Buttons = %b", s.Buttons)
		}
		if DecodeMotionPlus(pt).IsMotionPlusData {
			t.Errorf("passthrough frame flagged as motion plus data")
		}
	})

	t.Run("classic", func(t *testing.T) {
		pt := []byte{0x21, 0x20, 0x10, 0x00, 0xff, 0xfc}
		got := ReversePassthrough(ModeClassic, pt)
		want := []byte{0x20, 0x20, 0x10, 0x00, 0xff, 0xfd}
		if !bytes.Equal(got, want) {
			t.Fatalf("ReversePassthrough() = % x, want % x", got, want)
		}
		if s := DecodeClassic(got); s.Buttons != Classic_Left {
			t.Errorf("Buttons = %x, want Left", s.Buttons)
		}
	})

	t.Run("inverse", func(t *testing.T) {
		// bits the passthrough format cannot carry are left clear
		native := EncodeNunchuk(NunchukState{Stick: [2]byte{1, 2}, Accel: [3]uint16{0x302, 0x1fe, 0x2a6}, Buttons: Nunchuk_C})
		got := ReversePassthrough(ModeNunchuk, ApplyPassthrough(ModeNunchuk, native, true))
		if !bytes.Equal(got, native) {
			t.Errorf("nunchuk: % x, want % x", got, native)
		}
		native = EncodeClassic(ClassicState{Left: [2]byte{0x12, 0x30}, Right: [2]byte{0x03, 0x11}, Buttons: Classic_Up | Classic_B})
		native[0] &^= 1
		native[1] &^= 1
		got = ReversePassthrough(ModeClassic, ApplyPassthrough(ModeClassic, native, true))
		got[4] |= 1
		if !bytes.Equal(got, native) {
			t.Errorf("classic: % x, want % x", got, native)
		}
	})
}

func TestParseProbe(t *testing.T) {
	tests := []struct {
		id   []byte
		want ProbeResult
	}{
		{[]byte{0, 0, 0xa4, 0x20, 0x00, 0x00}, ProbeResult{Mode: ModeInactive, Extension: ExtensionNunchuk}},
		{[]byte{0, 0, 0xa4, 0x20, 0x01, 0x01}, ProbeResult{Mode: ModeInactive, Extension: ExtensionClassic}},
		{[]byte{0, 0, 0xa4, 0x20, 0x03, 0x01}, ProbeResult{Mode: ModeInactive, Extension: ExtensionUnsupported}},
		{[]byte{0, 0, 0xa4, 0x20, 0x04, 0x05}, ProbeResult{MotionPlusActive: true, Mode: ModeMotionPlusOnly}},
		{[]byte{0, 0, 0xa4, 0x20, 0x07, 0x05}, ProbeResult{MotionPlusActive: true, Mode: ModeClassic}},
	}
	for _, tt := range tests {
		if got := ParseProbe(tt.id); got != tt.want {
			t.Errorf("ParseProbe(% x) = %+v, want %+v", tt.id, got, tt.want)
		}
	}
}

func TestIRBasic(t *testing.T) {
	pts := [4]IRPoint{
		{X: 0, Y: 0, Visible: true},
		{X: 1023, Y: 767, Visible: true},
	}
	b := EncodeIRBasic(pts)
	s := DecodeIRBasic(b)
	if s.Points != pts {
		t.Errorf("Points = %+v, want %+v", s.Points, pts)
	}
	if s.Hidden || math.Abs(s.X) > 1e-9 || math.Abs(s.Y) > 1e-9 {
		t.Errorf("centre = %v,%v hidden=%v", s.X, s.Y, s.Hidden)
	}

	if s := DecodeIRBasic(EncodeIRBasic([4]IRPoint{})); !s.Hidden {
		t.Errorf("no visible points but Hidden = false")
	}

	b1, b2 := IRSensitivityBlocks(9)
	d1, d2 := IRSensitivityBlocks(3)
	if !bytes.Equal(b1, d1) || !bytes.Equal(b2, d2) {
		t.Errorf("out of range sensitivity did not fall back to level 3")
	}
	if _, b2 := IRSensitivityBlocks(5); !bytes.Equal(b2, []byte{0x1f, 0x03}) {
		t.Errorf("level 5 block 2 = % x", b2)
	}
}
