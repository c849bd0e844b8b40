package wmpc

import (
	"encoding/binary"
	"hash/crc32"

	"github.com/pkg/errors"
)

// Calibration block addresses and sizes.
const (
	AccelCalibrationAddress = 0x0016
	AccelCalibrationSize    = 10

	ExtCalibrationAddress     = 0x0020
	ExtCalibrationPassthrough = 0x0040 // behind an active Motion Plus
	ExtCalibrationSize        = 16

	MotionPlusCalibrationAddress = 0x0020
	MotionPlusCalibrationSize    = 32
)

// Additive checksum: the sum of the data bytes plus 0x55.  Blocks with two
// checksum bytes store sum+0x55 and sum+0xaa.
func additiveChecksum(data []byte) byte {
	sum := CalibrationMagic
	for _, v := range data {
		sum += v
	}
	return sum
}

// VerifyAccelChecksum reports whether a 10-byte accelerometer block is intact.
func VerifyAccelChecksum(b []byte) bool {
	if len(b) < AccelCalibrationSize {
		return false
	}
	return b[9] == additiveChecksum(b[:9])
}

// VerifyExtChecksum reports whether a 16-byte Nunchuk or Classic block is intact.
func VerifyExtChecksum(b []byte) bool {
	if len(b) < ExtCalibrationSize {
		return false
	}
	c := additiveChecksum(b[:14])
	return b[14] == c && b[15] == c+CalibrationMagic
}

// SetExtChecksum fills in the two checksum bytes of a 16-byte block.
func SetExtChecksum(b []byte) {
	c := additiveChecksum(b[:14])
	b[14] = c
	b[15] = c + CalibrationMagic
}

// SetAccelChecksum fills in the checksum byte of a 10-byte block.
func SetAccelChecksum(b []byte) {
	b[9] = additiveChecksum(b[:9])
}

func splitTen(hi []byte, lsb byte) [3]uint16 {
	return [3]uint16{
		uint16(hi[0])<<2 | uint16(lsb>>4)&3,
		uint16(hi[1])<<2 | uint16(lsb>>2)&3,
		uint16(hi[2])<<2 | uint16(lsb)&3,
	}
}

// AccelCalibration holds 10-bit zero and 1g readings per axis.
type AccelCalibration struct {
	Zero [3]uint16
	OneG [3]uint16
}

var DefaultAccelCalibration = AccelCalibration{
	Zero: [3]uint16{0x200, 0x200, 0x200},
	OneG: [3]uint16{0x268, 0x268, 0x268},
}

// ParseAccelCalibration decodes an accelerometer block.  The checksum is not
// checked here.
func ParseAccelCalibration(b []byte) (AccelCalibration, error) {
	if len(b) < 8 {
		return AccelCalibration{}, errors.Wrapf(ErrShortReport, "accel calibration: %d bytes", len(b))
	}
	return AccelCalibration{
		Zero: splitTen(b[0:3], b[3]),
		OneG: splitTen(b[4:7], b[7]),
	}, nil
}

// Bytes encodes the block in wire layout, checksum included.
func (c AccelCalibration) Bytes() []byte {
	b := make([]byte, AccelCalibrationSize)
	putTen(b[0:4], c.Zero)
	putTen(b[4:8], c.OneG)
	SetAccelChecksum(b)
	return b
}

func putTen(b []byte, v [3]uint16) {
	b[0], b[1], b[2] = byte(v[0]>>2), byte(v[1]>>2), byte(v[2]>>2)
	b[3] = byte(v[0]&3)<<4 | byte(v[1]&3)<<2 | byte(v[2]&3)
}

// StickCalibration is the max/min/center triple of one stick axis, in
// 8-bit units.
type StickCalibration struct {
	Max, Min, Center byte
}

var defaultStick = StickCalibration{Max: 0xff, Min: 0x00, Center: 0x80}

// Normalize maps an 8-bit reading into [-1,1].
func (c StickCalibration) Normalize(v byte) float64 {
	if c.Max <= c.Min || c.Center <= c.Min || c.Center >= c.Max {
		c = defaultStick
	}
	var r float64
	if v >= c.Center {
		r = float64(int(v)-int(c.Center)) / float64(int(c.Max)-int(c.Center))
	} else {
		r = float64(int(v)-int(c.Center)) / float64(int(c.Center)-int(c.Min))
	}
	return clamp(r, -1, 1)
}

type NunchukCalibration struct {
	Accel AccelCalibration
	Stick [2]StickCalibration
}

func ParseNunchukCalibration(b []byte) (NunchukCalibration, error) {
	if len(b) < ExtCalibrationSize {
		return NunchukCalibration{}, errors.Wrapf(ErrShortReport, "nunchuk calibration: %d bytes", len(b))
	}
	accel, _ := ParseAccelCalibration(b)
	return NunchukCalibration{
		Accel: accel,
		Stick: [2]StickCalibration{
			{Max: b[8], Min: b[9], Center: b[10]},
			{Max: b[11], Min: b[12], Center: b[13]},
		},
	}, nil
}

type ClassicCalibration struct {
	// LX, LY, RX, RY
	Sticks [4]StickCalibration
	// L, R
	TriggerZero [2]byte
}

func ParseClassicCalibration(b []byte) (ClassicCalibration, error) {
	if len(b) < ExtCalibrationSize {
		return ClassicCalibration{}, errors.Wrapf(ErrShortReport, "classic calibration: %d bytes", len(b))
	}
	var c ClassicCalibration
	for i := range c.Sticks {
		c.Sticks[i] = StickCalibration{Max: b[i*3], Min: b[i*3+1], Center: b[i*3+2]}
	}
	c.TriggerZero = [2]byte{b[12], b[13]}
	return c, nil
}

// GyroBlock is one half of the Motion Plus calibration: zero and scale
// readings per axis (yaw, roll, pitch) at Degrees deg/s.
type GyroBlock struct {
	Zero    [3]uint16
	Scale   [3]uint16
	Degrees int
}

type MotionPlusCalibration struct {
	Fast GyroBlock
	Slow GyroBlock
}

func parseGyroBlock(b []byte) GyroBlock {
	var g GyroBlock
	for i := 0; i < 3; i++ {
		g.Zero[i] = binary.BigEndian.Uint16(b[i*2:])
		g.Scale[i] = binary.BigEndian.Uint16(b[6+i*2:])
	}
	g.Degrees = int(b[12]) * 6
	return g
}

func ParseMotionPlusCalibration(b []byte) (MotionPlusCalibration, error) {
	if len(b) < MotionPlusCalibrationSize {
		return MotionPlusCalibration{}, errors.Wrapf(ErrShortReport, "motion plus calibration: %d bytes", len(b))
	}
	return MotionPlusCalibration{
		Fast: parseGyroBlock(b[0:16]),
		Slow: parseGyroBlock(b[16:32]),
	}, nil
}

func motionPlusCRC(b []byte) uint32 {
	h := crc32.NewIEEE()
	h.Write(b[0:14])
	h.Write(b[16:30])
	return h.Sum32()
}

// VerifyMotionPlusChecksum checks the CRC-32 whose low half is stored at the
// end of the fast block and high half at the end of the slow block.
func VerifyMotionPlusChecksum(b []byte) bool {
	if len(b) < MotionPlusCalibrationSize {
		return false
	}
	crc := motionPlusCRC(b)
	return binary.BigEndian.Uint16(b[14:]) == uint16(crc) &&
		binary.BigEndian.Uint16(b[30:]) == uint16(crc>>16)
}

// SetMotionPlusChecksum fills in both CRC halves of a 32-byte block.
func SetMotionPlusChecksum(b []byte) {
	crc := motionPlusCRC(b)
	binary.BigEndian.PutUint16(b[14:], uint16(crc))
	binary.BigEndian.PutUint16(b[30:], uint16(crc>>16))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
