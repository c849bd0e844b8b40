package wiimote

import (
	"time"

	"github.com/riking/wiimote/wmpc"
)

const (
	statusRefresh = 10 * time.Second
	// wait after any Motion Plus activation attempt or mode change
	settleTime = 2 * time.Second

	desiredReportMode = wmpc.ReportCoreAccelIR10Ext6
)

// speaker format: 4-bit ADPCM, 3000Hz, volume 0x40
var speakerConfig = []byte{0x00, 0x00, 0xd0, 0x07, 0x40, 0x00, 0x00}

const (
	speakerConfigAddress = 0x01
	speakerPlayAddress   = 0x08
)

type irConfig struct {
	enabled     bool
	sensitivity bool
	mode        bool
}

func (c irConfig) ready() bool {
	return c.enabled && c.sensitivity && c.mode
}

// IsPerformingTask reports whether an exchange is outstanding.  Expired
// exchanges are pruned first.
func (d *Device) IsPerformingTask() bool {
	return d.exchanges.Pending() > 0
}

// runTasks issues at most one configuration action.  Actions chain their
// follow-up requests from their callbacks, so nothing new starts until the
// whole step has finished or timed out.
func (d *Device) runTasks() {
	if d.closed || d.IsPerformingTask() {
		return
	}
	now := d.now()

	if !d.haveStatus || now.Sub(d.lastStatus) >= statusRefresh {
		d.requestStatus()
		return
	}
	if want := wmpc.PlayerLEDs(d.opts.Slot); d.leds != want {
		d.setLEDs(want)
		return
	}
	if d.reportingMode != desiredReportMode {
		d.setReportingMode()
		return
	}
	if d.accelCal == nil {
		d.readAccelCalibration()
		return
	}
	if !d.ir.ready() {
		d.configureIR()
		return
	}
	if !d.speakerConfigured {
		d.configureSpeaker()
		return
	}
	if now.Before(d.settleUntil) {
		return
	}
	d.runExtensionTasks()
}

func (d *Device) requestStatus() {
	d.exchanges.Expect(wmpc.InputStatus, nil, func(in wmpc.InputReport) {
		d.handleStatus(in.(wmpc.StatusReport))
	})
	d.send(wmpc.RequestStatus{})
}

// handleStatus runs for every status report, requested or not.
func (d *Device) handleStatus(s wmpc.StatusReport) {
	first := !d.haveStatus
	d.haveStatus = true
	d.lastStatus = d.now()
	d.battery = s.BatteryLevel()
	d.leds = s.LEDs
	if !s.IR {
		d.ir = irConfig{}
	}
	if first || s.Extension != d.extPort {
		d.log.Info("extension port changed", "connected", s.Extension)
		d.extPort = s.Extension
		// the remote stops streaming after an extension port event
		d.reportingMode = wmpc.ReportDisabled
		d.resetExtension()
		if !s.Extension {
			// an inactive Motion Plus does not show on the port, so try
			// to activate one
			d.mp.current = wmpc.ModeInactive
			d.mp.desired = wmpc.ModeNunchuk
			d.ext = wmpc.ExtensionNone
		}
	}
}

func (d *Device) setLEDs(want byte) {
	d.sendAcked(wmpc.LEDs{Mask: want, Ack: true}, func(err error) {
		if err == nil {
			d.leds = want
			d.log.Debug("leds set", "mask", want)
		}
	})
}

func (d *Device) setReportingMode() {
	d.sendAcked(wmpc.ReportMode{Mode: desiredReportMode, Continuous: true, Ack: true}, func(err error) {
		if err == nil {
			d.reportingMode = desiredReportMode
			d.log.Debug("reporting mode set", "mode", desiredReportMode)
		}
	})
}

func (d *Device) readAccelCalibration() {
	d.readData(wmpc.SpaceEEPROM, 0, wmpc.AccelCalibrationAddress, wmpc.AccelCalibrationSize, func(b []byte) {
		if b == nil {
			return
		}
		if !wmpc.VerifyAccelChecksum(b) {
			d.badChecksum("accel")
		}
		cal, err := wmpc.ParseAccelCalibration(b)
		if err != nil {
			d.log.Warn("accel calibration", "err", err)
			return
		}
		d.accelCal = &cal
		d.log.Debug("accel calibration read", "zero", cal.Zero, "one_g", cal.OneG)
	})
}

func (d *Device) configureIR() {
	switch {
	case !d.ir.enabled:
		d.sendAcked(wmpc.Toggle{Report: wmpc.OutputIRLogicEnable2, Enable: true, Ack: true}, func(err error) {
			if err != nil {
				return
			}
			d.sendAcked(wmpc.Toggle{Report: wmpc.OutputIRLogicEnable, Enable: true, Ack: true}, func(err error) {
				if err == nil {
					d.ir.enabled = true
					d.log.Debug("ir logic enabled")
				}
			})
		})
	case !d.ir.sensitivity:
		block1, block2 := wmpc.IRSensitivityBlocks(d.opts.IRSensitivity)
		d.writeData(wmpc.SpaceI2CBus, wmpc.SlaveCamera, wmpc.IRBlock1Address, block1, func(err error) {
			if err != nil {
				return
			}
			d.writeData(wmpc.SpaceI2CBus, wmpc.SlaveCamera, wmpc.IRBlock2Address, block2, func(err error) {
				if err == nil {
					d.ir.sensitivity = true
					d.log.Debug("ir sensitivity set", "level", d.opts.IRSensitivity)
				}
			})
		})
	default:
		d.writeReg(wmpc.SlaveCamera, wmpc.IRModeAddress, wmpc.IRModeBasic, func(err error) {
			if err != nil {
				return
			}
			d.writeReg(wmpc.SlaveCamera, wmpc.IRControlAddress, wmpc.IRControlDone, func(err error) {
				if err == nil {
					d.ir.mode = true
					d.log.Debug("ir mode set")
				}
			})
		})
	}
}

func (d *Device) configureSpeaker() {
	mute := func(on bool, next func()) {
		d.sendAcked(wmpc.Toggle{Report: wmpc.OutputSpeakerMute, Enable: on, Ack: true}, func(err error) {
			if err == nil {
				next()
			}
		})
	}
	mute(true, func() {
		mute(false, func() {
			d.writeData(wmpc.SpaceI2CBus, wmpc.SlaveSpeaker, speakerConfigAddress, speakerConfig, func(err error) {
				if err != nil {
					return
				}
				d.writeReg(wmpc.SlaveSpeaker, speakerPlayAddress, 0x01, func(err error) {
					if err == nil {
						d.speakerConfigured = true
						d.log.Debug("speaker configured")
					}
				})
			})
		})
	})
}

// runExtensionTasks handles Motion Plus negotiation and peripheral
// identification.
func (d *Device) runExtensionTasks() {
	mp := &d.mp

	if d.extPort && (!mp.known() || (mp.current == wmpc.ModeInactive && d.ext == wmpc.ExtensionUnknown)) {
		d.probeExtension()
		return
	}
	if !mp.known() {
		// activated with an empty port; the status report that follows
		// brings the port up
		return
	}

	if d.ext == wmpc.ExtensionUnsupported {
		d.initExtension()
		return
	}

	d.mpAttached = mp.current != wmpc.ModeInactive
	if mp.active() && mp.portReported {
		if !mp.portTracked {
			mp.portSeen = d.ext != wmpc.ExtensionNone
			mp.portTracked = true
		}
		switch {
		case mp.portOccupied && !mp.portSeen:
			d.log.Info("passthrough port occupied")
			d.setExtension(wmpc.ExtensionUnknown)
		case !mp.portOccupied && mp.portSeen:
			d.log.Info("passthrough port emptied")
			d.setExtension(wmpc.ExtensionNone)
			mp.desired = mp.current
		}
		mp.portSeen = mp.portOccupied
	}
	if mp.desired == wmpc.ModeUnset {
		mp.desired = wmpc.PassthroughModeFor(d.ext)
	}

	if mp.current == wmpc.ModeInactive && mp.desired != wmpc.ModeInactive {
		d.activateMotionPlus(mp.desired)
		return
	}
	if mp.active() && mp.current != mp.desired {
		d.changePassthroughMode(mp.desired)
		return
	}

	if mp.active() && mp.portOccupied && d.ext == wmpc.ExtensionUnknown {
		d.identifyPassthrough()
		return
	}

	if mp.active() && mp.cal == nil {
		d.readMotionPlusCalibration()
		return
	}
	if d.hasPeripheral() && !d.extCalRead {
		d.readExtensionCalibration()
		return
	}
}

func (d *Device) hasPeripheral() bool {
	return d.ext == wmpc.ExtensionNunchuk || d.ext == wmpc.ExtensionClassic
}

func (d *Device) probeExtension() {
	failed := func() {
		d.mp.current = wmpc.ModeInactive
		d.setExtension(wmpc.ExtensionNone)
	}
	// disables peripheral encryption; a no-op for the Motion Plus
	d.writeReg(wmpc.SlaveExtension, wmpc.ExtEncryptAddress, 0x00, func(err error) {
		if err != nil {
			d.log.Debug("nothing answers on the extension address", "err", err)
			failed()
			return
		}
		d.readData(wmpc.SpaceI2CBus, wmpc.SlaveExtension, wmpc.ExtIdentityAddress, wmpc.ExtIdentitySize, func(id []byte) {
			if id == nil {
				failed()
				return
			}
			p := wmpc.ParseProbe(id)
			d.mp.current = p.Mode
			if !p.MotionPlusActive {
				d.setExtension(p.Extension)
			}
			d.log.Info("extension probed", "motionplus", p.Mode, "extension", d.ext)
		})
	})
}

// initExtension writes the init magic, which also deactivates an active
// Motion Plus, and forces a re-probe.
func (d *Device) initExtension() {
	d.writeReg(wmpc.SlaveExtension, wmpc.ExtInitAddress, wmpc.ExtInitValue, func(err error) {
		if err != nil {
			d.log.Warn("extension init failed", "err", err)
			d.settle()
			return
		}
		if d.mp.active() {
			d.mp.current = wmpc.ModeUnset
		}
		d.setExtension(wmpc.ExtensionUnknown)
	})
}

func (d *Device) activateMotionPlus(mode wmpc.PassthroughMode) {
	d.writeReg(wmpc.SlaveMotionPlus, wmpc.MotionPlusActivateAddress, byte(mode), func(err error) {
		if err != nil {
			if d.hasPeripheral() {
				// no Motion Plus; use the peripheral directly
				d.mp.desired = wmpc.ModeInactive
				return
			}
			d.settle()
			return
		}
		d.log.Info("motion plus activated", "mode", mode)
		d.settle()
		d.mp.current = wmpc.ModeUnset
	})
}

func (d *Device) changePassthroughMode(mode wmpc.PassthroughMode) {
	done := func(error) {
		d.settle()
		d.mp.current = wmpc.ModeUnset
	}
	if mode == wmpc.ModeInactive {
		d.writeReg(wmpc.SlaveExtension, wmpc.ExtInitAddress, wmpc.ExtInitValue, done)
		return
	}
	d.log.Info("changing passthrough mode", "from", d.mp.current, "to", mode)
	d.writeReg(wmpc.SlaveMotionPlusActive, wmpc.MotionPlusActivateAddress, byte(mode), done)
}

func (d *Device) identifyPassthrough() {
	d.readData(wmpc.SpaceI2CBus, wmpc.SlaveMotionPlusActive, wmpc.PassthroughIdentityAddress, wmpc.PassthroughIdentitySize, func(id []byte) {
		if id == nil {
			return
		}
		d.setExtension(wmpc.IdentifyExtension(id[2], id[3]))
	})
}

func (d *Device) readMotionPlusCalibration() {
	d.readData(wmpc.SpaceI2CBus, wmpc.SlaveMotionPlusActive, wmpc.MotionPlusCalibrationAddress, wmpc.MotionPlusCalibrationSize, func(b []byte) {
		if b == nil {
			return
		}
		if !wmpc.VerifyMotionPlusChecksum(b) {
			d.badChecksum("motionplus")
		}
		cal, err := wmpc.ParseMotionPlusCalibration(b)
		if err != nil {
			return
		}
		d.mp.cal = &cal
		d.log.Debug("motion plus calibration read")
	})
}

func (d *Device) readExtensionCalibration() {
	ext := d.ext
	addr := uint16(wmpc.ExtCalibrationAddress)
	if d.mp.active() {
		addr = wmpc.ExtCalibrationPassthrough
	}
	d.readData(wmpc.SpaceI2CBus, wmpc.SlaveExtension, addr, wmpc.ExtCalibrationSize, func(b []byte) {
		if b == nil || d.ext != ext {
			return
		}
		if !wmpc.VerifyExtChecksum(b) {
			d.badChecksum(blockName(ext))
		}
		switch ext {
		case wmpc.ExtensionNunchuk:
			d.nunchukCal, _ = wmpc.ParseNunchukCalibration(b)
		case wmpc.ExtensionClassic:
			d.classicCal, _ = wmpc.ParseClassicCalibration(b)
		}
		d.extCalRead = true
		d.log.Debug("extension calibration read", "extension", ext)
	})
}

func blockName(ext wmpc.ExtensionID) string {
	if ext == wmpc.ExtensionClassic {
		return "classic"
	}
	return "nunchuk"
}

func (d *Device) settle() {
	d.settleUntil = d.now().Add(settleTime)
}

// setExtension records a new peripheral identity.  A change drops its
// calibration and the derived passthrough mode.
func (d *Device) setExtension(id wmpc.ExtensionID) {
	if id == d.ext {
		return
	}
	if id != wmpc.ExtensionUnknown {
		d.log.Info("extension identified", "extension", id)
	}
	d.ext = id
	d.mp.desired = wmpc.ModeUnset
	d.extCalRead = false
	d.nunchuk = wmpc.NunchukState{}
	d.classic = wmpc.ClassicState{}
}

// resetExtension forgets everything learned through the extension port.
func (d *Device) resetExtension() {
	d.ext = wmpc.ExtensionUnknown
	d.mp = newMotionPlus()
	d.mpAttached = false
	d.extCalRead = false
	d.nunchuk = wmpc.NunchukState{}
	d.classic = wmpc.ClassicState{}
}
