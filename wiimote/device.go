// Package wiimote drives a real Wii Remote: it configures the remote and its
// attachments through a Transport and exposes the decoded state as named
// controller inputs.
//
// A Device is not safe for concurrent use.  All work happens inside
// UpdateInput, which never blocks.
package wiimote

import (
	"log/slog"
	"time"

	"github.com/riking/wiimote/controller"
	"github.com/riking/wiimote/wmpc"
)

const DefaultRumblePeriod = 100 * time.Millisecond

type Options struct {
	// Player slot, selects the LED pattern.
	Slot int
	// IR camera sensitivity 1-5; other values select 3.
	IRSensitivity int
	// Rumble PWM period.  Zero selects DefaultRumblePeriod.
	RumblePeriod time.Duration

	Now    func() time.Time
	Logger *slog.Logger
}

// Stats counts protocol problems seen by a Device.
type Stats struct {
	Dropped            int // malformed or unknown reports
	Unhandled          int // replies nobody was waiting for
	Expired            int // exchanges that timed out
	ChecksumMismatches int
	Nacks              int
}

type Device struct {
	transport wmpc.Transport
	pool      *Pool
	opts      Options
	now       func() time.Time
	log       *slog.Logger
	exchanges *registry
	stats     Stats
	closed    bool

	inputs  []controller.Input
	outputs []controller.Output

	// configuration state
	haveStatus        bool
	lastStatus        time.Time
	leds              byte
	reportingMode     wmpc.ReportID
	accelCal          *wmpc.AccelCalibration
	ir                irConfig
	speakerConfigured bool
	settleUntil       time.Time

	// extension state
	extPort    bool
	ext        wmpc.ExtensionID
	extCalRead bool
	mp         motionPlus
	mpAttached bool

	// decoded input
	buttons    wmpc.ButtonState
	accel      wmpc.Vec3
	irState    wmpc.IRState
	battery    float64
	nunchuk    wmpc.NunchukState
	nunchukCal wmpc.NunchukCalibration
	classic    wmpc.ClassicState
	classicCal wmpc.ClassicCalibration

	// rumble PWM
	rumble        bool
	rumbleLevel   float64
	rumbleToggled time.Time
}

// New takes ownership of t.  On Close, t goes back to pool if pool is not
// nil.
func New(t wmpc.Transport, pool *Pool, opts Options) *Device {
	if opts.RumblePeriod <= 0 {
		opts.RumblePeriod = DefaultRumblePeriod
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = wmpc.Logger(wmpc.ComponentWiimote)
	}
	d := &Device{
		transport:     t,
		pool:          pool,
		opts:          opts,
		now:           opts.Now,
		log:           logger.With("source", t.Source(), "serial", t.Serial()),
		reportingMode: wmpc.ReportDisabled,
		ext:           wmpc.ExtensionUnknown,
		mp:            newMotionPlus(),
		irState:       wmpc.IRState{Hidden: true},
	}
	d.exchanges = newRegistry(d.now, d.onExpire)
	d.rumbleToggled = d.now()
	d.buildInputs()
	return d
}

func (d *Device) GetName() string   { return "Wii Remote" }
func (d *Device) GetSource() string { return "Bluetooth" }

func (d *Device) Inputs() []controller.Input   { return d.inputs }
func (d *Device) Outputs() []controller.Output { return d.outputs }

func (d *Device) Serial() string { return d.transport.Serial() }

// IsValid reports whether the transport is still usable.
func (d *Device) IsValid() bool {
	return !d.closed && d.transport.IsConnected()
}

func (d *Device) Stats() Stats {
	return d.stats
}

// Close abandons outstanding exchanges without running their callbacks and
// hands the transport back to the pool.
func (d *Device) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	d.exchanges.Clear()
	if d.pool != nil {
		d.pool.Put(d.transport)
		return nil
	}
	return d.transport.Close()
}

// SetRumble sets the motor duty cycle in [0,1].
func (d *Device) SetRumble(level float64) {
	if level < 0 {
		level = 0
	}
	if level > 1 {
		level = 1
	}
	d.rumbleLevel = level
}

// UpdateInput runs one poll cycle: rumble PWM, one scheduler pass, then every
// buffered report in arrival order with a scheduler pass after each.
func (d *Device) UpdateInput() {
	if d.closed {
		return
	}
	d.updateRumble()
	d.runTasks()
	for {
		b, ok := d.transport.GetNextReport()
		if !ok {
			break
		}
		d.processReport(b)
		d.runTasks()
	}
}

func (d *Device) processReport(b []byte) {
	if len(b) < wmpc.MinReportSize {
		d.stats.Dropped++
		d.log.Warn("dropping short report", "len", len(b))
		return
	}
	rep, err := wmpc.Decode(b)
	if err != nil {
		d.stats.Dropped++
		d.log.Warn("dropping report", "err", err)
		return
	}

	consumed := d.exchanges.Dispatch(rep)
	switch r := rep.(type) {
	case wmpc.StatusReport:
		if !consumed {
			d.handleStatus(r)
		}
		d.buttons = r.Buttons
	case wmpc.DataReport:
		d.handleData(r)
	case wmpc.AckReport:
		if !consumed {
			d.unhandled(rep)
		}
		d.buttons = r.Buttons
	case wmpc.ReadDataReply:
		if !consumed {
			d.unhandled(rep)
		}
		d.buttons = r.Buttons
	}
}

func (d *Device) handleData(r wmpc.DataReport) {
	if r.HasCore() {
		d.buttons = r.Buttons
	}
	if r.Accel != nil {
		cal := wmpc.DefaultAccelCalibration
		if d.accelCal != nil {
			cal = *d.accelCal
		}
		d.accel = cal.Normalize(wmpc.CoreAccel(r.Core, r.Accel))
	}
	if r.IR != nil {
		if d.ir.ready() && len(r.IR) == 10 {
			d.irState = wmpc.DecodeIRBasic(r.IR)
		} else {
			d.irState = wmpc.IRState{Hidden: true}
		}
	}
	if r.Ext != nil {
		d.handleExtensionData(r.Ext)
	}
}

func (d *Device) send(r wmpc.OutputReport) {
	d.transport.SendReport(wmpc.Encode(r, d.rumble))
}

func (d *Device) updateRumble() {
	now := d.now()
	want := d.rumble
	switch {
	case d.rumbleLevel <= 0:
		want = false
	case d.rumbleLevel >= 1:
		want = true
	default:
		phase := time.Duration(float64(d.opts.RumblePeriod) * (1 - d.rumbleLevel))
		if d.rumble {
			phase = time.Duration(float64(d.opts.RumblePeriod) * d.rumbleLevel)
		}
		if now.Sub(d.rumbleToggled) >= phase {
			want = !d.rumble
		}
	}
	if want != d.rumble {
		d.rumble = want
		d.rumbleToggled = now
		d.send(wmpc.Rumble{})
	}
}

func (d *Device) onExpire(e *exchange) {
	d.stats.Expired++
	d.log.Warn("exchange expired", "report", e.id)
}

func (d *Device) nack(id wmpc.ReportID, err error) {
	d.stats.Nacks++
	d.log.Warn("negative acknowledgement", "report", id, "err", err)
}

func (d *Device) unhandled(rep wmpc.InputReport) {
	d.stats.Unhandled++
	d.log.Warn("unhandled report", "report", rep.ID())
}

func (d *Device) badChecksum(block string) {
	d.stats.ChecksumMismatches++
	d.log.Warn("bad calibration checksum", "block", block)
}
