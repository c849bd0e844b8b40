package wmpc

// IR camera resolution.
const (
	IRWidth  = 1024
	IRHeight = 768

	irInvisible = 0x3ff
)

// IRPoint is one tracked object; Visible is false for empty slots.
type IRPoint struct {
	X, Y    uint16
	Visible bool
}

// IRState is the camera output reduced to a pointer position.
type IRState struct {
	Points [4]IRPoint
	// X and Y are in [-1,1], origin at the centre of the view.
	X, Y   float64
	Hidden bool
}

// DecodeIRBasic reads the 10-byte Basic format: two 5-byte blocks of two
// objects each.
func DecodeIRBasic(b []byte) IRState {
	var s IRState
	for blk := 0; blk < 2 && len(b) >= (blk+1)*5; blk++ {
		p := b[blk*5 : blk*5+5]
		s.Points[blk*2] = irPoint(uint16(p[0])|uint16(p[2]>>4&3)<<8, uint16(p[1])|uint16(p[2]>>6&3)<<8)
		s.Points[blk*2+1] = irPoint(uint16(p[3])|uint16(p[2]&3)<<8, uint16(p[4])|uint16(p[2]>>2&3)<<8)
	}

	var sx, sy float64
	n := 0
	for _, pt := range s.Points {
		if !pt.Visible {
			continue
		}
		sx += float64(pt.X)
		sy += float64(pt.Y)
		n++
	}
	if n == 0 {
		s.Hidden = true
		return s
	}
	s.X = sx/float64(n)/(IRWidth-1)*2 - 1
	s.Y = sy/float64(n)/(IRHeight-1)*2 - 1
	return s
}

// Empty slots report y as 0x3ff; any y past the last row is treated the same.
func irPoint(x, y uint16) IRPoint {
	if y >= IRHeight {
		return IRPoint{}
	}
	return IRPoint{X: x, Y: y, Visible: true}
}

// EncodeIRBasic is the inverse of DecodeIRBasic for the object positions;
// invisible points are written as 0x3ff.
func EncodeIRBasic(points [4]IRPoint) []byte {
	b := make([]byte, 10)
	for blk := 0; blk < 2; blk++ {
		p := b[blk*5 : blk*5+5]
		x1, y1 := irRaw(points[blk*2])
		x2, y2 := irRaw(points[blk*2+1])
		p[0], p[1] = byte(x1), byte(y1)
		p[2] = byte(y1>>8&3)<<6 | byte(x1>>8&3)<<4 | byte(y2>>8&3)<<2 | byte(x2>>8&3)
		p[3], p[4] = byte(x2), byte(y2)
	}
	return b
}

func irRaw(p IRPoint) (uint16, uint16) {
	if !p.Visible {
		return irInvisible, irInvisible
	}
	return p.X, p.Y
}

// IR sensitivity blocks for levels 1 through 5.  Block 1 is written at 0x00
// on the camera, block 2 at 0x1a.
var irSensitivity = [5][2][]byte{
	{{0x02, 0x00, 0x00, 0x71, 0x01, 0x00, 0x64, 0x00, 0xfe}, {0xfd, 0x05}},
	{{0x02, 0x00, 0x00, 0x71, 0x01, 0x00, 0x96, 0x00, 0xb4}, {0xb3, 0x04}},
	{{0x02, 0x00, 0x00, 0x71, 0x01, 0x00, 0xaa, 0x00, 0x64}, {0x63, 0x03}},
	{{0x02, 0x00, 0x00, 0x71, 0x01, 0x00, 0xc8, 0x00, 0x36}, {0x35, 0x03}},
	{{0x07, 0x00, 0x00, 0x71, 0x01, 0x00, 0x72, 0x00, 0x20}, {0x1f, 0x03}},
}

const DefaultIRSensitivity = 3

// Camera registers.
const (
	IRBlock1Address  = 0x00
	IRBlock2Address  = 0x1a
	IRModeAddress    = 0x33
	IRControlAddress = 0x30

	IRModeBasic   = 0x01
	IRControlDone = 0x08
)

// IRSensitivityBlocks returns the two register blocks for level; levels
// outside 1-5 use DefaultIRSensitivity.
func IRSensitivityBlocks(level int) (block1, block2 []byte) {
	if level < 1 || level > len(irSensitivity) {
		level = DefaultIRSensitivity
	}
	s := irSensitivity[level-1]
	return s[0], s[1]
}
