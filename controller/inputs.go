package controller

// Button is a digital input.
type Button struct {
	Name    string
	Pressed func() bool
}

func (b *Button) GetName() string { return b.Name }

func (b *Button) GetState() float64 {
	if b.Pressed() {
		return 1
	}
	return 0
}

// HalfAxis exposes one polarity of a signed value.  The state is the value
// for positive axes and its negation otherwise, clamped to [0,1].
type HalfAxis struct {
	Name     string
	Value    func() float64
	Negative bool
}

func (a *HalfAxis) GetName() string { return a.Name }

func (a *HalfAxis) GetState() float64 {
	v := a.Value()
	if a.Negative {
		v = -v
	}
	return clamp01(v)
}

// Analog is an unsigned value already in [0,1].
type Analog struct {
	Name  string
	Value func() float64
}

func (a *Analog) GetName() string    { return a.Name }
func (a *Analog) GetState() float64 { return clamp01(a.Value()) }

// Axis returns the two half axes for a signed value.
func Axis(neg, pos string, value func() float64) []Input {
	return []Input{
		&HalfAxis{Name: neg, Value: value, Negative: true},
		&HalfAxis{Name: pos, Value: value},
	}
}

// Motor is a [0,1] output.
type Motor struct {
	Name string
	Set  func(float64)
}

func (m *Motor) GetName() string     { return m.Name }
func (m *Motor) SetState(v float64) { m.Set(clamp01(v)) }

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Snapshot reads every input of d.
func Snapshot(d Device) map[string]float64 {
	out := make(map[string]float64)
	for _, in := range d.Inputs() {
		out[in.GetName()] = in.GetState()
	}
	return out
}

// FindOutput returns the output called name, or nil.
func FindOutput(d Device, name string) Output {
	for _, o := range d.Outputs() {
		if o.GetName() == name {
			return o
		}
	}
	return nil
}
