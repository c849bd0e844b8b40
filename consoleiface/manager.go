package consoleiface

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/riking/wiimote/bluez"
	"github.com/riking/wiimote/config"
	"github.com/riking/wiimote/controller"
	"github.com/riking/wiimote/output"
	"github.com/riking/wiimote/transport"
	"github.com/riking/wiimote/wiimote"
	"github.com/riking/wiimote/wmpc"
)

// Remotes that were connected by the OS are picked up by rescanning this
// often.
const rescanInterval = 2 * time.Second

// Notifier is the part of bluez.Manager the console uses.
type Notifier interface {
	NotifyChannel() <-chan bluez.Notification
}

type remote struct {
	dev     *wiimote.Device
	tracker *controller.Tracker
	console *output.Console
	gamepad *output.UInput
	sink    output.Tee
	slot    int
}

func (r *remote) close(log *slog.Logger) {
	if r.gamepad != nil {
		if err := r.gamepad.Close(); err != nil {
			log.Warn("closing gamepad", "serial", r.dev.Serial(), "err", err)
		}
	}
	r.tracker.Close()
}

type Manager struct {
	cfg  config.Config
	pool *wiimote.Pool
	out  io.Writer
	log  *slog.Logger
	bt   Notifier
	scan func(useHidraw bool) ([]transport.Candidate, error)

	mu      sync.Mutex
	remotes []*remote

	// serials let go with `disconnect`, skipped until the next `rescan`
	released map[string]bool

	consoleExit chan struct{}
}

func New(cfg config.Config, out io.Writer, bt Notifier) *Manager {
	return &Manager{
		cfg:         cfg,
		pool:        wiimote.NewPool(),
		out:         out,
		log:         wmpc.Logger(wmpc.ComponentConsole),
		bt:          bt,
		scan:        transport.Scan,
		released:    make(map[string]bool),
		consoleExit: make(chan struct{}),
	}
}

// mu must be held
func (m *Manager) isOpen(serial string) bool {
	for _, r := range m.remotes {
		if r.dev.Serial() == serial {
			return true
		}
	}
	return false
}

// mu must be held
func (m *Manager) freeSlot() int {
	for slot := 0; ; slot++ {
		used := false
		for _, r := range m.remotes {
			if r.slot == slot {
				used = true
				break
			}
		}
		if !used {
			return slot
		}
	}
}

// SearchDevices opens every remote the OS has connected that is not driven
// yet.  A transport left in the pool by an earlier device is reused.
func (m *Manager) SearchDevices() error {
	candidates, err := m.scan(m.cfg.Hidraw)
	if err != nil {
		m.log.Warn("enumeration error", "err", err)
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var firstErr error
	for _, c := range candidates {
		if m.isOpen(c.Serial) || m.released[c.Serial] || !m.cfg.Allowed(c.Serial) {
			continue
		}
		t := m.pool.Take(c.Serial)
		if t == nil {
			t, err = c.Open()
			if err != nil {
				m.log.Warn("couldn't open Wii Remote", "serial", c.Serial, "path", c.Path, "err", err)
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
		}
		m.add(t)
	}
	return firstErr
}

// mu must be held
func (m *Manager) add(t wmpc.Transport) {
	slot := m.freeSlot()
	dev := wiimote.New(t, m.pool, wiimote.Options{
		Slot:          slot,
		IRSensitivity: m.cfg.IRSensitivity,
		RumblePeriod:  m.cfg.RumblePeriod,
	})
	r := &remote{
		dev:     dev,
		tracker: controller.NewTracker(dev),
		console: output.NewConsole(m.out, slot+1),
		slot:    slot,
	}
	r.sink = output.Tee{r.console}
	if mapping, ok := output.MappingByName(m.cfg.Gamepad); ok {
		gp, err := output.NewUInput(mapping, fmt.Sprintf("Nintendo Wii Remote %d", slot+1))
		if err != nil {
			m.log.Warn("couldn't create gamepad", "serial", dev.Serial(), "err", err)
		} else {
			r.gamepad = gp
			r.sink = append(r.sink, gp)
		}
	}
	r.tracker.BindToOutput(r.sink)
	m.remotes = append(m.remotes, r)
	fmt.Fprintf(m.out, "Wii Remote %s connected as %d\n", dev.Serial(), slot+1)
}

// poll runs one frame on every remote and drops the ones whose transport
// went away.
func (m *Manager) poll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.remotes[:0]
	for _, r := range m.remotes {
		r.tracker.OnFrame()
		if err := r.sink.FlushUpdate(); err != nil {
			m.log.Warn("output failed", "serial", r.dev.Serial(), "err", err)
		}
		if r.dev.IsValid() {
			kept = append(kept, r)
			continue
		}
		fmt.Fprintf(m.out, "Wii Remote %s disconnected\n", r.dev.Serial())
		r.close(m.log)
	}
	for i := len(kept); i < len(m.remotes); i++ {
		m.remotes[i] = nil
	}
	m.remotes = kept
}

// Run polls every remote until ctx is done or the console exits.
func (m *Manager) Run(ctx context.Context) error {
	m.SearchDevices()

	ticker := time.NewTicker(m.cfg.PollInterval)
	defer ticker.Stop()
	rescan := time.NewTicker(rescanInterval)
	defer rescan.Stop()

	var hotplug <-chan transport.Hotplug
	if m.cfg.Hidraw {
		ch, err := transport.Monitor(ctx)
		if err != nil {
			m.log.Warn("hotplug monitor unavailable", "err", err)
		}
		hotplug = ch
	}
	var btNotify <-chan bluez.Notification
	if m.bt != nil {
		btNotify = m.bt.NotifyChannel()
	}

	defer m.closeAll()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-m.consoleExit:
			return nil
		case <-ticker.C:
			m.poll()
		case <-rescan.C:
			m.SearchDevices()
		case ev, ok := <-hotplug:
			if !ok {
				hotplug = nil
				continue
			}
			m.log.Debug("hidraw hotplug", "action", ev.Action, "devnode", ev.Devnode)
			if ev.Action == "add" {
				m.SearchDevices()
			}
		case n := <-btNotify:
			m.log.Info("bluetooth connection change", "mac", n.MACString, "connected", n.Connected)
			if n.Connected {
				m.SearchDevices()
			}
		}
	}
}

func (m *Manager) closeAll() {
	m.mu.Lock()
	for _, r := range m.remotes {
		r.close(m.log)
	}
	m.remotes = nil
	m.mu.Unlock()

	if err := m.pool.CloseAll(); err != nil {
		m.log.Warn("closing transports", "err", err)
	}
}
