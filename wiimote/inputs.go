package wiimote

import (
	"github.com/riking/wiimote/controller"
	"github.com/riking/wiimote/wmpc"
)

func (d *Device) buildInputs() {
	var in []controller.Input

	for _, b := range append(append([]wmpc.ButtonID(nil), wmpc.ButtonList...), wmpc.DPadList...) {
		b := b
		in = append(in, &controller.Button{Name: b.String(), Pressed: func() bool { return d.buttons.Get(b) }})
	}

	in = append(in, controller.Axis("Accel Left", "Accel Right", func() float64 { return d.accel.X })...)
	in = append(in, controller.Axis("Accel Backward", "Accel Forward", func() float64 { return d.accel.Y })...)
	in = append(in, controller.Axis("Accel Down", "Accel Up", func() float64 { return d.accel.Z })...)

	in = append(in, controller.Axis("IR Left", "IR Right", func() float64 { return d.irState.X })...)
	in = append(in, controller.Axis("IR Up", "IR Down", func() float64 { return d.irState.Y })...)
	in = append(in, &controller.Button{Name: "IR Hidden", Pressed: func() bool { return d.irState.Hidden }})

	in = append(in, controller.Axis("Gyro Pitch Down", "Gyro Pitch Up", func() float64 { return d.mp.gyro.Z })...)
	in = append(in, controller.Axis("Gyro Roll Left", "Gyro Roll Right", func() float64 { return d.mp.gyro.Y })...)
	in = append(in, controller.Axis("Gyro Yaw Left", "Gyro Yaw Right", func() float64 { return d.mp.gyro.X })...)

	in = append(in,
		&controller.Analog{Name: "Battery", Value: func() float64 { return d.battery }},
		&controller.Button{Name: "Attached Extension", Pressed: d.hasPeripheral},
		&controller.Button{Name: "Attached MotionPlus", Pressed: func() bool { return d.extPort && d.mpAttached }},
	)

	// Nunchuk
	isNunchuk := func() bool { return d.ext == wmpc.ExtensionNunchuk }
	in = append(in,
		&controller.Button{Name: "Nunchuk C", Pressed: func() bool { return isNunchuk() && d.nunchuk.Pressed(wmpc.Nunchuk_C) }},
		&controller.Button{Name: "Nunchuk Z", Pressed: func() bool { return isNunchuk() && d.nunchuk.Pressed(wmpc.Nunchuk_Z) }},
	)
	nunchukStick := func(i int) func() float64 {
		return func() float64 {
			if !isNunchuk() {
				return 0
			}
			return d.nunchukCal.Stick[i].Normalize(d.nunchuk.Stick[i])
		}
	}
	in = append(in, controller.Axis("Nunchuk Stick Left", "Nunchuk Stick Right", nunchukStick(0))...)
	in = append(in, controller.Axis("Nunchuk Stick Down", "Nunchuk Stick Up", nunchukStick(1))...)
	nunchukAccel := func() wmpc.Vec3 {
		if !isNunchuk() {
			return wmpc.Vec3{}
		}
		return d.nunchukCal.Accel.Normalize(d.nunchuk.Accel)
	}
	in = append(in, controller.Axis("Nunchuk Accel Left", "Nunchuk Accel Right", func() float64 { return nunchukAccel().X })...)
	in = append(in, controller.Axis("Nunchuk Accel Backward", "Nunchuk Accel Forward", func() float64 { return nunchukAccel().Y })...)
	in = append(in, controller.Axis("Nunchuk Accel Down", "Nunchuk Accel Up", func() float64 { return nunchukAccel().Z })...)

	// Classic Controller
	isClassic := func() bool { return d.ext == wmpc.ExtensionClassic }
	classicButtons := append(append([]wmpc.ClassicButton(nil), wmpc.ClassicButtonList...), wmpc.Classic_L, wmpc.Classic_R)
	for _, b := range append(classicButtons, wmpc.ClassicDPadList...) {
		b := b
		in = append(in, &controller.Button{Name: "Classic " + b.String(), Pressed: func() bool { return isClassic() && d.classic.Pressed(b) }})
	}
	classicStick := func(i int) func() float64 {
		return func() float64 {
			if !isClassic() {
				return 0
			}
			return d.classic.Sticks(d.classicCal)[i]
		}
	}
	in = append(in, controller.Axis("Classic Left Stick Left", "Classic Left Stick Right", classicStick(0))...)
	in = append(in, controller.Axis("Classic Left Stick Down", "Classic Left Stick Up", classicStick(1))...)
	in = append(in, controller.Axis("Classic Right Stick Left", "Classic Right Stick Right", classicStick(2))...)
	in = append(in, controller.Axis("Classic Right Stick Down", "Classic Right Stick Up", classicStick(3))...)
	classicTrigger := func(i int) func() float64 {
		return func() float64 {
			if !isClassic() {
				return 0
			}
			return d.classic.TriggerLevels(d.classicCal)[i]
		}
	}
	in = append(in,
		&controller.Analog{Name: "Classic L-Analog", Value: classicTrigger(0)},
		&controller.Analog{Name: "Classic R-Analog", Value: classicTrigger(1)},
	)

	d.inputs = in
	d.outputs = []controller.Output{
		&controller.Motor{Name: "Motor", Set: d.SetRumble},
	}
}
