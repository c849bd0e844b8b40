// Package transport connects the engine to Wii Remotes through the
// operating system's HID stack.
//
// The OS hands us reports without the Bluetooth HID transaction header, and
// expects outbound reports without it too.  Every Transport here adds the
// input tag on the way in and strips the output tag on the way out, so the
// engine always sees complete reports.
package transport

import (
	"github.com/pkg/errors"

	"github.com/riking/wiimote/wmpc"
)

// Size of the inbound and outbound queues, in reports.  The remote sends
// about 100 data reports a second.
const queueDepth = 64

// frameInbound returns a copy of an OS report with the input tag prepended.
func frameInbound(b []byte) []byte {
	out := make([]byte, len(b)+1)
	out[0] = wmpc.HIDInputTag
	copy(out[1:], b)
	return out
}

// unframeOutbound strips the output tag the engine puts in byte 0.
func unframeOutbound(b []byte) ([]byte, error) {
	if len(b) < wmpc.HeaderSize {
		return nil, errors.Errorf("outbound report too short: %d bytes", len(b))
	}
	if b[0] != wmpc.HIDOutputTag {
		return nil, errors.Errorf("outbound report has tag %#02x, want %#02x", b[0], wmpc.HIDOutputTag)
	}
	return b[1:], nil
}
