package consoleiface

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pkg/errors"

	"github.com/riking/wiimote/config"
	"github.com/riking/wiimote/transport"
	"github.com/riking/wiimote/wmpc"
)

type fakeTransport struct {
	serial    string
	connected bool
	closed    bool
	sent      [][]byte
}

func (f *fakeTransport) GetNextReport() ([]byte, bool) { return nil, false }
func (f *fakeTransport) SendReport(b []byte)           { f.sent = append(f.sent, b) }
func (f *fakeTransport) IsConnected() bool             { return f.connected && !f.closed }
func (f *fakeTransport) Source() string                { return "fake" }
func (f *fakeTransport) Serial() string                { return f.serial }

func (f *fakeTransport) Close() error {
	f.closed = true
	return nil
}

type fakeBus struct {
	transports map[string]*fakeTransport
	opens      map[string]int
	serials    []string
	broken     map[string]bool
}

func newFakeBus(serials ...string) *fakeBus {
	return &fakeBus{
		transports: map[string]*fakeTransport{},
		opens:      map[string]int{},
		serials:    serials,
		broken:     map[string]bool{},
	}
}

func (b *fakeBus) scan(bool) ([]transport.Candidate, error) {
	var out []transport.Candidate
	for _, s := range b.serials {
		s := s
		out = append(out, transport.NewCandidate(s, "/dev/"+s, wmpc.WIIMOTE_PRODUCT, func() (wmpc.Transport, error) {
			b.opens[s]++
			if b.broken[s] {
				return nil, errors.New("permission denied")
			}
			t := &fakeTransport{serial: s, connected: true}
			b.transports[s] = t
			return t, nil
		}))
	}
	return out, nil
}

func newTestManager(cfg config.Config, bus *fakeBus) (*Manager, *bytes.Buffer) {
	var out bytes.Buffer
	m := New(cfg, &out, nil)
	m.scan = bus.scan
	return m, &out
}

func TestSearchDevices(t *testing.T) {
	bus := newFakeBus("a", "b", "c", "d")
	bus.broken["d"] = true
	cfg := config.Default()
	cfg.Devices = []string{"a", "b", "d"}
	m, out := newTestManager(cfg, bus)

	if err := m.SearchDevices(); err == nil {
		t.Errorf("open failure not reported")
	}
	if len(m.remotes) != 2 {
		t.Fatalf("remotes = %d, want 2", len(m.remotes))
	}
	if bus.opens["c"] != 0 {
		t.Errorf("filtered remote was opened")
	}
	if !strings.Contains(out.String(), "Wii Remote a connected as 1") || !strings.Contains(out.String(), "Wii Remote b connected as 2") {
		t.Errorf("output = %q", out.String())
	}

	m.SearchDevices()
	if bus.opens["a"] != 1 || bus.opens["b"] != 1 || len(m.remotes) != 2 {
		t.Errorf("reopened: opens %v, remotes %d", bus.opens, len(m.remotes))
	}
}

func TestPollDropsDisconnected(t *testing.T) {
	bus := newFakeBus("a", "b")
	m, out := newTestManager(config.Default(), bus)
	m.SearchDevices()

	m.poll()
	if len(bus.transports["a"].sent) == 0 {
		t.Errorf("poll sent nothing to a fresh remote")
	}

	bus.transports["a"].connected = false
	m.poll()
	if len(m.remotes) != 1 || m.remotes[0].dev.Serial() != "b" {
		t.Fatalf("remotes after disconnect = %d", len(m.remotes))
	}
	if !bus.transports["a"].closed || m.pool.Len() != 0 {
		t.Errorf("dead transport kept: closed %v, pooled %d", bus.transports["a"].closed, m.pool.Len())
	}
	if !strings.Contains(out.String(), "Wii Remote a disconnected") {
		t.Errorf("output = %q", out.String())
	}

	// the next remote takes the free slot
	bus.serials = append(bus.serials, "c")
	m.SearchDevices()
	var slots []int
	for _, r := range m.remotes {
		slots = append(slots, r.slot)
	}
	if len(slots) != 2 || slots[1] != 0 {
		t.Errorf("slots = %v", slots)
	}
}

func TestCommands(t *testing.T) {
	bus := newFakeBus("a", "b")
	m, out := newTestManager(config.Default(), bus)
	m.SearchDevices()
	out.Reset()

	m.handleCommand([]string{"list"})
	if !strings.Contains(out.String(), "1: a") || !strings.Contains(out.String(), "2: b") {
		t.Errorf("list = %q", out.String())
	}

	out.Reset()
	m.handleCommand([]string{"state", "1"})
	if !strings.Contains(out.String(), "HOME") || !strings.Contains(out.String(), "Battery") {
		t.Errorf("state = %q", out.String())
	}

	out.Reset()
	m.handleCommand([]string{"stats", "b"})
	if !strings.Contains(out.String(), "dropped 0") {
		t.Errorf("stats = %q", out.String())
	}

	bus.transports["a"].sent = nil
	m.handleCommand([]string{"rumble", "1", "1"})
	m.poll()
	var rumbleOn bool
	for _, b := range bus.transports["a"].sent {
		if wmpc.ReportID(b[1]) == wmpc.OutputRumble && b[2]&1 != 0 {
			rumbleOn = true
		}
	}
	if !rumbleOn {
		t.Errorf("rumble command had no effect: % x", bus.transports["a"].sent)
	}

	out.Reset()
	m.handleCommand([]string{"rumble", "1", "2"})
	m.handleCommand([]string{"state", "9"})
	m.handleCommand([]string{"bogus"})
	for _, want := range []string{"level must be between 0 and 1", "Remote number 9 not connected", "unknown command bogus"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output %q lacks %q", out.String(), want)
		}
	}

	m.handleCommand([]string{"disconnect", "2"})
	if len(m.remotes) != 1 || m.pool.Len() != 1 {
		t.Fatalf("after disconnect: remotes %d, pooled %d", len(m.remotes), m.pool.Len())
	}
	m.SearchDevices()
	if len(m.remotes) != 1 {
		t.Errorf("released remote picked up again by a background scan")
	}
	m.handleCommand([]string{"rescan"})
	if len(m.remotes) != 2 || bus.opens["b"] != 1 || m.pool.Len() != 0 {
		t.Errorf("rescan: remotes %d, opens %d, pooled %d", len(m.remotes), bus.opens["b"], m.pool.Len())
	}
}

func TestRenderBattery(t *testing.T) {
	if renderBattery(0) != batteryStatus[0] || renderBattery(1) != batteryStatus[len(batteryStatus)-1] || renderBattery(-1) != batteryStatus[0] {
		t.Errorf("renderBattery out of range")
	}
}
