package transport

import (
	"log/slog"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/riking/wiimote/wmpc"
)

// Hidraw is a Transport over a non-blocking /dev/hidrawN descriptor.  Reads
// happen on the caller's goroutine; EAGAIN means nothing is buffered.
type Hidraw struct {
	path   string
	serial string

	mu        sync.Mutex
	fd        int
	connected bool
	closed    bool
}

var _ wmpc.Transport = (*Hidraw)(nil)

// OpenHidraw opens the hidraw node of an enumerated remote.
func OpenHidraw(info HidrawInfo) (*Hidraw, error) {
	fd, err := unix.Open(info.Devnode, unix.O_RDWR|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		if err == unix.EACCES || err == unix.EPERM {
			return nil, errors.Wrapf(err, "open %s: install udev rules or run as root", info.Devnode)
		}
		return nil, errors.Wrapf(err, "open %s", info.Devnode)
	}
	return newHidraw(fd, info.Devnode, info.Serial), nil
}

func newHidraw(fd int, path, serial string) *Hidraw {
	return &Hidraw{fd: fd, path: path, serial: serial, connected: true}
}

func (h *Hidraw) GetNextReport() ([]byte, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.connected || h.closed {
		return nil, false
	}

	var buffer [0x100]byte
	for {
		n, err := unix.Read(h.fd, buffer[:])
		switch {
		case err == unix.EINTR:
			continue
		case err == unix.EAGAIN:
			return nil, false
		case err != nil:
			h.failLocked(errors.Wrap(err, "hidraw read"))
			return nil, false
		case n == 0:
			return nil, false
		}
		return frameInbound(buffer[:n]), true
	}
}

func (h *Hidraw) SendReport(b []byte) {
	payload, err := unframeOutbound(b)
	if err != nil {
		h.log().Warn("dropping outbound report", "err", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.connected || h.closed {
		return
	}
	for {
		_, err = unix.Write(h.fd, payload)
		if err != unix.EINTR {
			break
		}
	}
	switch {
	case err == unix.EAGAIN:
		h.log().Warn("hidraw busy, dropping report", "report", wmpc.ReportID(payload[0]))
	case err != nil:
		h.failLocked(errors.Wrap(err, "hidraw write"))
	}
}

// mu must be held
func (h *Hidraw) failLocked(err error) {
	if h.connected {
		h.log().Warn("transport failed", "err", err)
	}
	h.connected = false
}

func (h *Hidraw) log() *slog.Logger {
	return wmpc.Logger(wmpc.ComponentTransport).With("source", h.Source(), "serial", h.serial, "path", h.path)
}

func (h *Hidraw) IsConnected() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.connected && !h.closed
}

func (h *Hidraw) Source() string { return "hidraw" }
func (h *Hidraw) Serial() string { return h.serial }

func (h *Hidraw) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	return errors.Wrap(unix.Close(h.fd), "close hidraw")
}
