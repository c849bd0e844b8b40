// Package controller is the generic controller abstraction devices plug into:
// a device exposes named inputs and outputs, and a Tracker turns polled input
// values into change notifications for a Sink.
package controller

// Input is one named value read each poll.  Buttons report 0 or 1, half
// axes and analog values report [0,1].
type Input interface {
	GetName() string
	GetState() float64
}

// Output is one named value written by the application.
type Output interface {
	GetName() string
	SetState(v float64)
}

type Device interface {
	GetName() string
	GetSource() string
	Inputs() []Input
	Outputs() []Output

	// UpdateInput runs one poll cycle.  It must not block.
	UpdateInput()
	// Returns false once the device should be removed.
	IsValid() bool
	Close() error
}

// Sink receives input changes.  The Tracker calls BeginUpdate, then
// InputUpdate once per changed input, followed by FlushUpdate.
type Sink interface {
	BeginUpdate()
	InputUpdate(d Device, in Input, value float64)
	FlushUpdate() error
}
