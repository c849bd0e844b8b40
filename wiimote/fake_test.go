package wiimote

import (
	"bytes"
	"encoding/binary"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/riking/wiimote/wmpc"
)

type fakeTransport struct {
	mu        sync.Mutex
	in        [][]byte
	sent      [][]byte
	connected bool
	closed    bool
	serial    string
}

func newFakeTransport(serial string) *fakeTransport {
	return &fakeTransport{connected: true, serial: serial}
}

func (f *fakeTransport) GetNextReport() ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.in) == 0 {
		return nil, false
	}
	b := f.in[0]
	f.in = f.in[1:]
	return b, true
}

func (f *fakeTransport) SendReport(b []byte) {
	f.mu.Lock()
	f.sent = append(f.sent, b)
	f.mu.Unlock()
}

func (f *fakeTransport) IsConnected() bool { return f.connected && !f.closed }
func (f *fakeTransport) Source() string    { return "fake" }
func (f *fakeTransport) Serial() string    { return f.serial }

func (f *fakeTransport) Close() error {
	f.closed = true
	return nil
}

func (f *fakeTransport) push(b ...[]byte) {
	f.mu.Lock()
	f.in = append(f.in, b...)
	f.mu.Unlock()
}

// takeSent returns and forgets everything sent so far.
func (f *fakeTransport) takeSent() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.sent
	f.sent = nil
	return s
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type testDevice struct {
	*Device
	tr    *fakeTransport
	clock *fakeClock
	logs  *bytes.Buffer
}

func newTestDevice(t *testing.T, opts Options) *testDevice {
	t.Helper()
	tr := newFakeTransport("00:19:1d:00:00:01")
	clock := &fakeClock{t: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)}
	logs := &bytes.Buffer{}
	opts.Now = clock.Now
	opts.Logger = slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return &testDevice{Device: New(tr, nil, opts), tr: tr, clock: clock, logs: logs}
}

// Inbound report builders.

func statusReport(ext, ir bool, leds byte) []byte {
	var flags byte
	if ext {
		flags |= 0x02
	}
	if ir {
		flags |= 0x08
	}
	return []byte{wmpc.HIDInputTag, byte(wmpc.InputStatus), 0, 0, flags | leds<<4, 0, 0, 0xc8}
}

func ackReport(id wmpc.ReportID, code wmpc.ErrorCode) []byte {
	return []byte{wmpc.HIDInputTag, byte(wmpc.InputAck), 0, 0, byte(id), byte(code)}
}

func readReply(addr uint16, data []byte, code wmpc.ErrorCode) []byte {
	size := len(data)
	if size == 0 {
		size = 1
	}
	b := []byte{wmpc.HIDInputTag, byte(wmpc.InputReadDataReply), 0, 0, byte(size-1)<<4 | byte(code), 0, 0}
	binary.BigEndian.PutUint16(b[5:], addr)
	var chunk [16]byte
	copy(chunk[:], data)
	return append(b, chunk[:]...)
}

func dataReport(ext []byte) []byte {
	b := []byte{wmpc.HIDInputTag, byte(wmpc.ReportCoreAccelIR10Ext6), 0, 0, 0x80, 0x80, 0x80}
	b = append(b, make([]byte, 10)...)
	var e [6]byte
	copy(e[:], ext)
	return append(b, e[:]...)
}

// request is an outbound report as the remote sees it.
type request struct {
	id      wmpc.ReportID
	flags   byte
	space   wmpc.AddressSpace
	slave   byte
	address uint16
	size    int
	data    []byte
	raw     []byte
}

// wireSpace reads the address space the way the remote does: 0x04 in the
// first payload byte selects the peripheral bus.
func wireSpace(b byte) wmpc.AddressSpace {
	switch b &^ 0x01 {
	case 0x00:
		return wmpc.SpaceEEPROM
	case 0x04:
		return wmpc.SpaceI2CBus
	}
	return 0xff
}

func parseRequest(b []byte) request {
	r := request{id: wmpc.ReportID(b[1]), flags: b[2], raw: b}
	switch r.id {
	case wmpc.OutputReadData:
		r.space = wireSpace(b[2])
		r.slave = b[3] >> 1
		r.address = binary.BigEndian.Uint16(b[4:])
		r.size = int(binary.BigEndian.Uint16(b[6:]))
	case wmpc.OutputWriteData:
		r.space = wireSpace(b[2])
		r.slave = b[3] >> 1
		r.address = binary.BigEndian.Uint16(b[4:])
		r.size = int(b[6])
		r.data = b[7 : 7+r.size]
	}
	return r
}

func (r request) wantsAck() bool {
	return r.flags&0x02 != 0
}

// fakeRemote answers requests the way the hardware does.
type fakeRemote struct {
	tr *fakeTransport

	ext  bool
	ir   bool
	leds byte

	eeprom map[uint16]byte
	// slave -> register file; a missing slave NACKs
	bus map[byte]map[uint16]byte
	// called after a successful write
	onWrite func(r request)
	// writes it returns true for are NACKed
	reject func(r request) bool

	log []request
}

func newFakeRemote(tr *fakeTransport) *fakeRemote {
	r := &fakeRemote{
		tr:     tr,
		eeprom: map[uint16]byte{},
		bus: map[byte]map[uint16]byte{
			wmpc.SlaveCamera:  {},
			wmpc.SlaveSpeaker: {},
		},
	}
	r.put(r.eeprom, wmpc.AccelCalibrationAddress, wmpc.DefaultAccelCalibration.Bytes())
	return r
}

func (r *fakeRemote) put(m map[uint16]byte, addr uint16, data []byte) {
	for i, v := range data {
		m[addr+uint16(i)] = v
	}
}

func (r *fakeRemote) memory(space wmpc.AddressSpace, slave byte) map[uint16]byte {
	switch space {
	case wmpc.SpaceEEPROM:
		return r.eeprom
	case wmpc.SpaceI2CBus:
		return r.bus[slave]
	}
	return nil
}

// serve answers everything the device sent since the last call.
func (r *fakeRemote) serve() {
	for _, b := range r.tr.takeSent() {
		req := parseRequest(b)
		r.log = append(r.log, req)
		switch req.id {
		case wmpc.OutputRequestStatus:
			r.tr.push(statusReport(r.ext, r.ir, r.leds))
		case wmpc.OutputLEDs:
			r.leds = req.flags >> 4
		case wmpc.OutputIRLogicEnable, wmpc.OutputIRLogicEnable2:
			r.ir = req.flags&0x04 != 0
		case wmpc.OutputReadData:
			r.read(req)
			continue
		case wmpc.OutputWriteData:
			mem := r.memory(req.space, req.slave)
			if mem == nil || (r.reject != nil && r.reject(req)) {
				r.tr.push(ackReport(req.id, wmpc.ErrorNACK))
				continue
			}
			r.put(mem, req.address, req.data)
			r.tr.push(ackReport(req.id, wmpc.ErrorSuccess))
			if r.onWrite != nil {
				r.onWrite(req)
			}
			continue
		}
		if req.wantsAck() {
			r.tr.push(ackReport(req.id, wmpc.ErrorSuccess))
		}
	}
}

func (r *fakeRemote) read(req request) {
	mem := r.memory(req.space, req.slave)
	if mem == nil {
		r.tr.push(readReply(req.address, nil, wmpc.ErrorNACK))
		return
	}
	for off := 0; off < req.size; off += 16 {
		n := min(16, req.size-off)
		chunk := make([]byte, n)
		for i := range chunk {
			chunk[i] = mem[req.address+uint16(off+i)]
		}
		r.tr.push(readReply(req.address+uint16(off), chunk, wmpc.ErrorSuccess))
	}
}

// run alternates device polls and remote answers.
func run(d *testDevice, r *fakeRemote, polls int) {
	for i := 0; i < polls; i++ {
		d.UpdateInput()
		r.serve()
	}
}

// since returns the requests logged after index n.
func (r *fakeRemote) since(n int) []request {
	return r.log[n:]
}

func hasWrite(reqs []request, slave byte, addr uint16) bool {
	for _, q := range reqs {
		if q.id == wmpc.OutputWriteData && q.space == wmpc.SpaceI2CBus && q.slave == slave && q.address == addr {
			return true
		}
	}
	return false
}

func hasRead(reqs []request, slave byte, addr uint16) bool {
	for _, q := range reqs {
		if q.id == wmpc.OutputReadData && q.slave == slave && q.address == addr {
			return true
		}
	}
	return false
}
