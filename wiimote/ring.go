package wiimote

import "github.com/riking/wiimote/wmpc"

// RingVec3 is a fixed-capacity ring buffer for Vec3 values.
type RingVec3 struct {
	data []wmpc.Vec3
	pos  int
	full bool
	cap  int
}

// NewRingVec3 creates a RingVec3 with the given capacity.
func NewRingVec3(cap int) *RingVec3 {
	return &RingVec3{
		data: make([]wmpc.Vec3, cap),
		cap:  cap,
	}
}

// Push adds a value to the ring.
func (r *RingVec3) Push(v wmpc.Vec3) {
	r.data[r.pos] = v
	r.pos++
	if r.pos >= r.cap {
		r.pos = 0
		r.full = true
	}
}

// Len returns the number of elements.
func (r *RingVec3) Len() int {
	if r.full {
		return r.cap
	}
	return r.pos
}

// Mean returns the average of the buffered values.
func (r *RingVec3) Mean() wmpc.Vec3 {
	n := r.Len()
	if n == 0 {
		return wmpc.Vec3{}
	}
	var s wmpc.Vec3
	for _, v := range r.data[:n] {
		s = add(s, v)
	}
	return scale(s, 1/float64(n))
}

func add(a, b wmpc.Vec3) wmpc.Vec3 {
	return wmpc.Vec3{X: a.X + b.X, Y: a.Y + b.Y, Z: a.Z + b.Z}
}

func sub(a, b wmpc.Vec3) wmpc.Vec3 {
	return wmpc.Vec3{X: a.X - b.X, Y: a.Y - b.Y, Z: a.Z - b.Z}
}

func scale(a wmpc.Vec3, f float64) wmpc.Vec3 {
	return wmpc.Vec3{X: a.X * f, Y: a.Y * f, Z: a.Z * f}
}
