package wmpc

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
)

func TestDecode(t *testing.T) {
	read := []byte{0xa1, 0x21, 0x00, 0x08, 0xf0, 0x00, 0x16}
	for i := 0; i < 16; i++ {
		read = append(read, byte(i))
	}

	t.Run("status", func(t *testing.T) {
		r, err := Decode([]byte{0xa1, 0x20, 0x00, 0x08, 0x1a, 0x00, 0x00, 0xc8})
		if err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		s, ok := r.(StatusReport)
		if !ok {
			t.Fatalf("Decode() = %T, want StatusReport", r)
		}
		if !s.Extension || !s.IR || s.BatteryLow || s.Speaker {
			t.Errorf("flags = %+v", s)
		}
		if s.LEDs != 1 {
			t.Errorf("LEDs = %x, want 1", s.LEDs)
		}
		if s.BatteryLevel() != 1 {
			t.Errorf("BatteryLevel() = %v, want 1", s.BatteryLevel())
		}
		if !s.Buttons.Get(Button_A) {
			t.Errorf("A not pressed")
		}
	})

	t.Run("ack", func(t *testing.T) {
		r, err := Decode([]byte{0xa1, 0x22, 0x00, 0x00, 0x16, 0x07})
		if err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		a := r.(AckReport)
		if a.Report != OutputWriteData || a.Error != ErrorNACK {
			t.Errorf("ack = %+v", a)
		}
		if a.Error.Err() == nil {
			t.Errorf("NACK.Err() = nil")
		}
	})

	t.Run("read reply", func(t *testing.T) {
		r, err := Decode(read)
		if err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		rd := r.(ReadDataReply)
		if rd.Size != 16 || rd.Error != ErrorSuccess || rd.Address != 0x0016 {
			t.Errorf("reply = %+v", rd)
		}
		if !bytes.Equal(rd.Payload(), read[7:]) {
			t.Errorf("Payload() = %x, want %x", rd.Payload(), read[7:])
		}
	})

	t.Run("core accel ir ext", func(t *testing.T) {
		b := []byte{0xa1, 0x37, 0x60, 0x60, 0x80, 0x81, 0x82}
		for i := 0; i < 16; i++ {
			b = append(b, byte(0x10+i))
		}
		r, err := Decode(b)
		if err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		d := r.(DataReport)
		if len(d.Accel) != 3 || len(d.IR) != 10 || len(d.Ext) != 6 {
			t.Fatalf("sections = %d/%d/%d", len(d.Accel), len(d.IR), len(d.Ext))
		}
		if d.Buttons != (ButtonState{}) {
			t.Errorf("accel bits leaked into buttons: %v", d.Buttons)
		}
		if d.Ext[0] != 0x1a {
			t.Errorf("Ext[0] = %x, want 1a", d.Ext[0])
		}
	})
}

func TestDecodeShort(t *testing.T) {
	full := map[ReportID][]byte{}
	for _, id := range []ReportID{InputStatus, InputAck, InputReadDataReply, ReportCore, ReportCoreAccel, ReportCoreAccelIR10Ext6, ReportExt21} {
		n, ok := MinPayloadSize(id)
		if !ok {
			t.Fatalf("MinPayloadSize(%v) unknown", id)
		}
		full[id] = append([]byte{HIDInputTag, byte(id)}, make([]byte, n)...)
	}

	for id, b := range full {
		orig := append([]byte(nil), b...)
		for l := 0; l < len(b); l++ {
			_, err := Decode(b[:l])
			if errors.Cause(err) != ErrShortReport {
				t.Errorf("Decode(%v, len %d) error = %v, want ErrShortReport", id, l, err)
			}
		}
		if _, err := Decode(b); err != nil {
			t.Errorf("Decode(%v) error = %v", id, err)
		}
		if !bytes.Equal(b, orig) {
			t.Errorf("Decode(%v) modified its input", id)
		}
	}

	_, err := Decode([]byte{0xa1, 0x55, 0, 0})
	if errors.Cause(err) != ErrUnknownReport {
		t.Errorf("Decode(0x55) error = %v, want ErrUnknownReport", err)
	}
}

func TestEncode(t *testing.T) {
	tests := []struct {
		name   string
		report OutputReport
		rumble bool
		want   []byte
	}{
		{"leds", LEDs{Mask: 0x1, Ack: true}, true, []byte{0xa2, 0x11, 0x13}},
		{"mode", ReportMode{Mode: ReportCoreAccelIR10Ext6, Continuous: true, Ack: true}, false, []byte{0xa2, 0x12, 0x06, 0x37}},
		{"status", RequestStatus{}, true, []byte{0xa2, 0x15, 0x01}},
		{"rumble off", Rumble{}, false, []byte{0xa2, 0x10, 0x00}},
		{"ir enable", Toggle{Report: OutputIRLogicEnable2, Enable: true, Ack: true}, false, []byte{0xa2, 0x1a, 0x06}},
		{"read", ReadRequest{Space: SpaceI2CBus, Slave: SlaveExtension, Address: 0xfa, Size: 6}, true,
			[]byte{0xa2, 0x17, 0x05, 0xa4, 0x00, 0xfa, 0x00, 0x06}},
		{"read eeprom", ReadRequest{Space: SpaceEEPROM, Address: 0x16, Size: 0x10a}, false,
			[]byte{0xa2, 0x17, 0x00, 0x00, 0x00, 0x16, 0x01, 0x0a}},
		{"write", WriteRequest{Space: SpaceI2CBus, Slave: SlaveCamera, Address: 0x30, Data: []byte{0x08}}, false,
			append([]byte{0xa2, 0x16, 0x04, 0xb0, 0x00, 0x30, 0x01, 0x08}, make([]byte, 15)...)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Encode(tt.report, tt.rumble)
			if !bytes.Equal(got, tt.want) {
				t.Errorf("Encode() = % x, want % x", got, tt.want)
			}
		})
	}
}

func TestPlayerLEDs(t *testing.T) {
	tests := map[int]byte{
		0: 0x1, 1: 0x2, 2: 0x4, 3: 0x8,
		4: 0x3, 5: 0x5, 6: 0x9, 7: 0x6, 8: 0xa, 9: 0xc,
		10: 0xf, -1: 0xf,
	}
	for slot, want := range tests {
		if got := PlayerLEDs(slot); got != want {
			t.Errorf("PlayerLEDs(%d) = %x, want %x", slot, got, want)
		}
	}
}

func TestButtons(t *testing.T) {
	b := ButtonsFromSlice([]byte{0x60 | 0x08, 0x60 | 0x80})
	if !b.Get(Button_Up) || !b.Get(Button_Home) {
		t.Errorf("Up/Home not set: %v", b)
	}
	if b.Get(Button_A) || b.Get(Button_Left) {
		t.Errorf("unexpected buttons: %v", b)
	}
	b = b.Set(Button_Up, false).Set(Button_A, true)
	if b != (ButtonState{0x00, 0x88}) {
		t.Errorf("Set() = %x", b)
	}
}
