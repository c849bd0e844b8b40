package transport

import (
	"log/slog"
	"sync"

	"github.com/pkg/errors"

	"github.com/riking/wiimote/wmpc"
)

// handle is a blocking report pipe.  Read and Write move one report without
// the transaction header.
type handle struct {
	read  func([]byte) (int, error)
	write func([]byte) (int, error)
	close func()
}

// stream runs a blocking handle behind a reader and a writer goroutine so
// the Transport methods never block.
type stream struct {
	h      handle
	source string
	serial string
	log    *slog.Logger

	in   chan []byte
	out  chan []byte
	done chan struct{}

	mu        sync.Mutex
	connected bool
	closed    bool
}

func newStream(h handle, source, serial string) *stream {
	s := &stream{
		h:         h,
		source:    source,
		serial:    serial,
		log:       wmpc.Logger(wmpc.ComponentTransport).With("source", source, "serial", serial),
		in:        make(chan []byte, queueDepth),
		out:       make(chan []byte, queueDepth),
		done:      make(chan struct{}),
		connected: true,
	}
	go s.reader()
	go s.writer()
	return s
}

func (s *stream) reader() {
	var buffer [0x100]byte

	for {
		n, err := s.h.read(buffer[:])
		if err != nil {
			s.fail(errors.Wrap(err, "hid read"))
			return
		}
		if n == 0 {
			continue
		}
		select {
		case s.in <- frameInbound(buffer[:n]):
		case <-s.done:
			return
		default:
			s.log.Warn("input queue full, dropping report", "report", wmpc.ReportID(buffer[0]))
		}
	}
}

func (s *stream) writer() {
	for {
		select {
		case b := <-s.out:
			if _, err := s.h.write(b); err != nil {
				s.fail(errors.Wrap(err, "hid write"))
				return
			}
		case <-s.done:
			return
		}
	}
}

func (s *stream) fail(err error) {
	s.mu.Lock()
	wasConnected := s.connected && !s.closed
	s.connected = false
	s.mu.Unlock()

	if wasConnected {
		s.log.Warn("transport failed", "err", err)
	}
}

func (s *stream) GetNextReport() ([]byte, bool) {
	select {
	case b := <-s.in:
		return b, true
	default:
		return nil, false
	}
}

func (s *stream) SendReport(b []byte) {
	if !s.IsConnected() {
		return
	}
	payload, err := unframeOutbound(b)
	if err != nil {
		s.log.Warn("dropping outbound report", "err", err)
		return
	}
	select {
	case s.out <- append([]byte(nil), payload...):
	default:
		s.log.Warn("output queue full, dropping report", "report", wmpc.ReportID(payload[0]))
	}
}

func (s *stream) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected && !s.closed
}

func (s *stream) Source() string { return s.source }
func (s *stream) Serial() string { return s.serial }

func (s *stream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	close(s.done)
	s.h.close()
	return nil
}
