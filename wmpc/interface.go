package wmpc

// Transport is an open HID connection to one remote.  Reports cross it with
// the framing tag in byte 0.  Implementations must be safe for one reader
// and one writer goroutine and must never block the caller.
type Transport interface {
	// GetNextReport returns the oldest unread inbound report, or false when
	// none is buffered.
	GetNextReport() ([]byte, bool)
	// SendReport queues an outbound report.
	SendReport(b []byte)
	// Returns false once a read or write has failed, or after Close.
	IsConnected() bool
	// Source names the transport kind ("hidapi", "hidraw").
	Source() string
	Serial() string
	Close() error
}

var ledPairs = [...]byte{
	1<<0 | 1<<1,
	1<<0 | 1<<2,
	1<<0 | 1<<3,
	1<<1 | 1<<2,
	1<<1 | 1<<3,
	1<<2 | 1<<3,
}

// PlayerLEDs returns the light pattern for a player slot: one LED for slots
// 0-3, a pair for 4-9, all four otherwise.
func PlayerLEDs(slot int) byte {
	switch {
	case slot >= 0 && slot < 4:
		return 1 << uint(slot)
	case slot >= 4 && slot < 4+len(ledPairs):
		return ledPairs[slot-4]
	}
	return 0x0f
}
