package wmpc

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// Component identifies a subsystem for log filtering.
type Component string

const (
	ComponentWiimote   Component = "wiimote"
	ComponentTransport Component = "transport"
	ComponentBluez     Component = "bluez"
	ComponentConsole   Component = "console"
)

var (
	defaultLogger *slog.Logger
	logLevel      = new(slog.LevelVar)
	logMutex      sync.RWMutex
)

func init() {
	logLevel.Set(slog.LevelWarn)
	defaultLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
}

func SetLogLevel(level slog.Level) {
	logLevel.Set(level)
}

// ParseLogLevel accepts debug, info, warn and error.
func ParseLogLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return slog.LevelWarn, errors.Wrapf(err, "log level %q", s)
	}
	return l, nil
}

// SetLogger replaces the logger returned by Logger.
func SetLogger(logger *slog.Logger) {
	logMutex.Lock()
	defer logMutex.Unlock()
	defaultLogger = logger
}

// NewLogger creates a text logger writing to w at the shared level.
func NewLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel}))
}

// Logger returns the shared logger tagged with component.
func Logger(component Component) *slog.Logger {
	logMutex.RLock()
	logger := defaultLogger
	logMutex.RUnlock()
	return logger.With("component", string(component))
}
