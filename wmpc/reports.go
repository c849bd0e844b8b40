package wmpc

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

var (
	ErrShortReport   = errors.New("report too short")
	ErrUnknownReport = errors.New("unknown report identity")
)

// InputReport is one decoded report from the remote.
type InputReport interface {
	ID() ReportID
}

// StatusReport answers RequestStatus and is also sent unprompted whenever the
// extension port changes.
type StatusReport struct {
	Buttons    ButtonState
	BatteryLow bool
	Extension  bool
	Speaker    bool
	IR         bool
	LEDs       byte
	Battery    byte
}

func (StatusReport) ID() ReportID { return InputStatus }

const batteryFull = 0xc8

// BatteryLevel scales the raw battery byte into [0,1].
func (s StatusReport) BatteryLevel() float64 {
	l := float64(s.Battery) / batteryFull
	if l > 1 {
		l = 1
	}
	return l
}

// AckReport acknowledges an output report.
type AckReport struct {
	Buttons ButtonState
	Report  ReportID
	Error   ErrorCode
}

func (AckReport) ID() ReportID { return InputAck }

// ReadDataReply carries up to 16 bytes of a memory read.
type ReadDataReply struct {
	Buttons ButtonState
	Size    int
	Error   ErrorCode
	// low 16 bits of the address of Data[0]
	Address uint16
	Data    [MemoryChunkSize]byte
}

func (ReadDataReply) ID() ReportID { return InputReadDataReply }

// Payload returns the valid part of Data.
func (r ReadDataReply) Payload() []byte {
	return r.Data[:r.Size]
}

// DataReport is any member of the 0x30-0x3f family.  Slices alias the
// decoded buffer and are nil when the mode does not carry them.
type DataReport struct {
	Mode    ReportID
	Core    [2]byte
	Buttons ButtonState
	Accel   []byte
	IR      []byte
	Ext     []byte
}

func (d DataReport) ID() ReportID { return d.Mode }

// HasCore reports whether the report carries the core button bytes.
func (d DataReport) HasCore() bool {
	return d.Mode != ReportExt21
}

type dataLayout struct {
	core, accel, ir, ext int
}

var dataLayouts = map[ReportID]dataLayout{
	ReportCore:              {core: 2},
	ReportCoreAccel:         {core: 2, accel: 3},
	ReportCoreExt8:          {core: 2, ext: 8},
	ReportCoreAccelIR12:     {core: 2, accel: 3, ir: 12},
	ReportCoreExt19:         {core: 2, ext: 19},
	ReportCoreAccelExt16:    {core: 2, accel: 3, ext: 16},
	ReportCoreIR10Ext9:      {core: 2, ir: 10, ext: 9},
	ReportCoreAccelIR10Ext6: {core: 2, accel: 3, ir: 10, ext: 6},
	ReportExt21:             {ext: 21},
	// interleaved halves: only the buttons are decoded
	ReportInterleave1: {core: 2},
	ReportInterleave2: {core: 2},
}

func (l dataLayout) size() int {
	return l.core + l.accel + l.ir + l.ext
}

const (
	statusPayloadSize = 6
	ackPayloadSize    = 4
	readPayloadSize   = 5 + MemoryChunkSize
)

// MinPayloadSize returns the smallest payload (bytes after the header) that
// id can be decoded from, and false for identities Decode does not know.
func MinPayloadSize(id ReportID) (int, bool) {
	switch id {
	case InputStatus:
		return statusPayloadSize, true
	case InputAck:
		return ackPayloadSize, true
	case InputReadDataReply:
		return readPayloadSize, true
	}
	if l, ok := dataLayouts[id]; ok {
		return l.size(), true
	}
	return 0, false
}

// Decode interprets one inbound report, header included.  It does not
// modify b.
func Decode(b []byte) (InputReport, error) {
	if len(b) < HeaderSize {
		return nil, errors.Wrapf(ErrShortReport, "got %d bytes", len(b))
	}
	id := ReportID(b[1])
	need, ok := MinPayloadSize(id)
	if !ok {
		return nil, errors.Wrapf(ErrUnknownReport, "%v", id)
	}
	p := b[HeaderSize:]
	if len(p) < need {
		return nil, errors.Wrapf(ErrShortReport, "%v: need %d payload bytes, got %d", id, need, len(p))
	}

	switch id {
	case InputStatus:
		return StatusReport{
			Buttons:    ButtonsFromSlice(p),
			BatteryLow: p[2]&0x01 != 0,
			Extension:  p[2]&0x02 != 0,
			Speaker:    p[2]&0x04 != 0,
			IR:         p[2]&0x08 != 0,
			LEDs:       p[2] >> 4,
			Battery:    p[5],
		}, nil
	case InputAck:
		return AckReport{
			Buttons: ButtonsFromSlice(p),
			Report:  ReportID(p[2]),
			Error:   ErrorCode(p[3]),
		}, nil
	case InputReadDataReply:
		r := ReadDataReply{
			Buttons: ButtonsFromSlice(p),
			Size:    int(p[2]>>4) + 1,
			Error:   ErrorCode(p[2] & 0x0f),
			Address: binary.BigEndian.Uint16(p[3:5]),
		}
		copy(r.Data[:], p[5:])
		return r, nil
	}

	l := dataLayouts[id]
	d := DataReport{Mode: id}
	off := 0
	if l.core > 0 {
		copy(d.Core[:], p[0:2])
		d.Buttons = ButtonsFromSlice(p)
		off += l.core
	}
	if id == ReportInterleave1 || id == ReportInterleave2 {
		return d, nil
	}
	if l.accel > 0 {
		d.Accel = p[off : off+l.accel]
		off += l.accel
	}
	if l.ir > 0 {
		d.IR = p[off : off+l.ir]
		off += l.ir
	}
	if l.ext > 0 {
		d.Ext = p[off : off+l.ext]
	}
	return d, nil
}

// OutputReport is a host -> remote report before framing.
type OutputReport interface {
	ID() ReportID
	// AppendPayload appends at least one byte.  Bit 0 of the first byte is
	// owned by Encode.
	AppendPayload(dst []byte) []byte
}

const (
	flagRumble = 0x01
	flagAck    = 0x02
	flagEnable = 0x04
)

// Encode frames r for sending.  rumble is copied into bit 0 of the first
// payload byte, which every output report reserves for the motor.
func Encode(r OutputReport, rumble bool) []byte {
	buf := make([]byte, HeaderSize, HeaderSize+MaxPayloadSize+1)
	buf[0] = HIDOutputTag
	buf[1] = byte(r.ID())
	buf = r.AppendPayload(buf)
	if len(buf) == HeaderSize {
		buf = append(buf, 0)
	}
	buf[HeaderSize] &^= flagRumble
	if rumble {
		buf[HeaderSize] |= flagRumble
	}
	return buf
}

func boolBit(b bool, bit byte) byte {
	if b {
		return bit
	}
	return 0
}

// Rumble carries nothing but the rumble bit.
type Rumble struct{}

func (Rumble) ID() ReportID                     { return OutputRumble }
func (Rumble) AppendPayload(dst []byte) []byte { return append(dst, 0) }

// LEDs sets the four player lights; bit n of Mask is LED n+1.
type LEDs struct {
	Mask byte
	Ack  bool
}

func (LEDs) ID() ReportID { return OutputLEDs }
func (r LEDs) AppendPayload(dst []byte) []byte {
	return append(dst, r.Mask<<4|boolBit(r.Ack, flagAck))
}

// ReportMode selects the data report the remote sends.
type ReportMode struct {
	Mode       ReportID
	Continuous bool
	Ack        bool
}

func (ReportMode) ID() ReportID { return OutputReportMode }
func (r ReportMode) AppendPayload(dst []byte) []byte {
	return append(dst, boolBit(r.Continuous, flagEnable)|boolBit(r.Ack, flagAck), byte(r.Mode))
}

// Toggle is the shape shared by the enable/mute reports: IRLogicEnable,
// IRLogicEnable2, SpeakerEnable and SpeakerMute.
type Toggle struct {
	Report ReportID
	Enable bool
	Ack    bool
}

func (r Toggle) ID() ReportID { return r.Report }
func (r Toggle) AppendPayload(dst []byte) []byte {
	return append(dst, boolBit(r.Enable, flagEnable)|boolBit(r.Ack, flagAck))
}

// RequestStatus asks for a StatusReport.
type RequestStatus struct{}

func (RequestStatus) ID() ReportID                     { return OutputRequestStatus }
func (RequestStatus) AppendPayload(dst []byte) []byte { return append(dst, 0) }

// ReadRequest asks for Size bytes; the remote answers with one
// ReadDataReply per 16 bytes.
type ReadRequest struct {
	Space   AddressSpace
	Slave   byte
	Address uint16
	Size    uint16
}

func (ReadRequest) ID() ReportID { return OutputReadData }
func (r ReadRequest) AppendPayload(dst []byte) []byte {
	return append(dst,
		byte(r.Space)<<2, r.Slave<<1,
		byte(r.Address>>8), byte(r.Address),
		byte(r.Size>>8), byte(r.Size))
}

// WriteRequest writes at most 16 bytes and is always acknowledged.
type WriteRequest struct {
	Space   AddressSpace
	Slave   byte
	Address uint16
	Data    []byte
}

func (WriteRequest) ID() ReportID { return OutputWriteData }
func (r WriteRequest) AppendPayload(dst []byte) []byte {
	var data [MemoryChunkSize]byte
	n := copy(data[:], r.Data)
	dst = append(dst,
		byte(r.Space)<<2, r.Slave<<1,
		byte(r.Address>>8), byte(r.Address),
		byte(n))
	return append(dst, data[:]...)
}

