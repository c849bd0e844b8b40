package wmpc

import "math"

// Vec3 holds a 3D vector.
type Vec3 struct {
	X, Y, Z float64
}

// CoreAccel assembles the 10-bit accelerometer reading from the accel bytes
// and the LSBs hidden in the core button bytes.  Y and Z only carry bit 1.
func CoreAccel(core [2]byte, accel []byte) [3]uint16 {
	return [3]uint16{
		uint16(accel[0])<<2 | uint16(core[0]>>5)&3,
		uint16(accel[1])<<2 | uint16(core[1]>>5)&1<<1,
		uint16(accel[2])<<2 | uint16(core[1]>>6)&1<<1,
	}
}

// Normalize converts a raw reading into g.  An axis whose 1g reading equals
// its zero reading uses the default calibration.
func (c AccelCalibration) Normalize(raw [3]uint16) Vec3 {
	var out [3]float64
	for i := range raw {
		zero, one := c.Zero[i], c.OneG[i]
		if one == zero {
			zero, one = DefaultAccelCalibration.Zero[i], DefaultAccelCalibration.OneG[i]
		}
		out[i] = (float64(raw[i]) - float64(zero)) / (float64(one) - float64(zero))
	}
	return Vec3{out[0], out[1], out[2]}
}

// EncodeAccel is the inverse of Normalize, rounded and clamped to 10 bits.
func (c AccelCalibration) EncodeAccel(v Vec3) [3]uint16 {
	in := [3]float64{v.X, v.Y, v.Z}
	var out [3]uint16
	for i := range in {
		zero, one := c.Zero[i], c.OneG[i]
		if one == zero {
			zero, one = DefaultAccelCalibration.Zero[i], DefaultAccelCalibration.OneG[i]
		}
		r := math.Round(float64(zero) + in[i]*(float64(one)-float64(zero)))
		out[i] = uint16(clamp(r, 0, 0x3ff))
	}
	return out
}

// PutCoreAccel writes a 10-bit reading back into core/accel bytes, dropping
// the bits the wire format cannot carry.
func PutCoreAccel(core *[2]byte, accel []byte, raw [3]uint16) {
	accel[0], accel[1], accel[2] = byte(raw[0]>>2), byte(raw[1]>>2), byte(raw[2]>>2)
	core[0] = core[0]&^0x60 | byte(raw[0]&3)<<5
	core[1] = core[1]&^0x60 | byte(raw[1]>>1&1)<<5 | byte(raw[2]>>1&1)<<6
}
