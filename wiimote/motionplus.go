package wiimote

import (
	"math"

	"github.com/riking/wiimote/wmpc"
)

// Gyro auto-zero parameters.
const (
	gyroWindow      = 8
	gyroStableDelta = 0.1 // rad/s, per axis
	gyroFirstRun    = 5
	gyroRun         = 100
)

// gyroZero estimates the gyro's zero offset from runs of frames in which the
// remote is held still.
type gyroZero struct {
	window *RingVec3
	run    int
	// unadjusted samples of the current stable run
	sum        wmpc.Vec3
	offset     wmpc.Vec3
	calibrated bool
}

func newGyroZero() gyroZero {
	return gyroZero{window: NewRingVec3(gyroWindow)}
}

// update feeds one raw sample and returns it with the offset removed.
func (g *gyroZero) update(raw wmpc.Vec3) wmpc.Vec3 {
	g.window.Push(raw)
	avg := g.window.Mean()
	d := sub(raw, avg)
	if math.Abs(d.X) < gyroStableDelta && math.Abs(d.Y) < gyroStableDelta && math.Abs(d.Z) < gyroStableDelta {
		g.run++
		g.sum = add(g.sum, raw)
		need := gyroRun
		if !g.calibrated {
			need = gyroFirstRun
		}
		if g.run >= need {
			g.offset = scale(g.sum, 1/float64(g.run))
			g.calibrated = true
			g.run = 0
			g.sum = wmpc.Vec3{}
		}
	} else {
		g.run = 0
		g.sum = wmpc.Vec3{}
	}
	return sub(raw, g.offset)
}

// motionPlus is what the engine knows about the Motion Plus and its
// passthrough port.
type motionPlus struct {
	// ModeUnset until probed
	current wmpc.PassthroughMode
	// ModeUnset until derived from the attached peripheral
	desired wmpc.PassthroughMode

	// passthrough port flag from the latest Motion Plus frame
	portOccupied bool
	// set once a frame has reported portOccupied
	portReported bool
	// portOccupied as of the previous scheduler pass, valid once portTracked
	portSeen    bool
	portTracked bool

	cal  *wmpc.MotionPlusCalibration
	gyro wmpc.Vec3 // rad/s: yaw, roll, pitch
	zero gyroZero
}

func newMotionPlus() motionPlus {
	return motionPlus{
		current: wmpc.ModeUnset,
		desired: wmpc.ModeUnset,
		zero:    newGyroZero(),
	}
}

func (m *motionPlus) known() bool {
	return m.current != wmpc.ModeUnset
}

func (m *motionPlus) active() bool {
	return m.known() && m.current != wmpc.ModeInactive
}

// handleExtensionData routes the 6 extension bytes of a data report.  With
// an active Motion Plus they are either gyro data or a forwarded peripheral
// payload that has to be put back in its native layout first.
func (d *Device) handleExtensionData(b []byte) {
	if !d.extPort || len(b) < 6 {
		return
	}
	mp := &d.mp
	switch {
	case mp.active():
		f := wmpc.DecodeMotionPlus(b)
		mp.portOccupied = f.ExtensionConnected
		mp.portReported = true
		if f.IsMotionPlusData {
			var cal wmpc.MotionPlusCalibration
			if mp.cal != nil {
				cal = *mp.cal
			}
			mp.gyro = mp.zero.update(f.AngularVelocity(cal))
			return
		}
		if mp.current == wmpc.ModeMotionPlusOnly || wmpc.PassthroughModeFor(d.ext) != mp.current {
			return
		}
		d.decodePeripheral(wmpc.ReversePassthrough(mp.current, b))
	case mp.current == wmpc.ModeInactive:
		d.decodePeripheral(b)
	}
}

func (d *Device) decodePeripheral(b []byte) {
	switch d.ext {
	case wmpc.ExtensionNunchuk:
		d.nunchuk = wmpc.DecodeNunchuk(b)
	case wmpc.ExtensionClassic:
		d.classic = wmpc.DecodeClassic(b)
	}
}
