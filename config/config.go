// Package config loads the driver's YAML configuration.
package config

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/riking/wiimote/wmpc"
)

type Config struct {
	// 1-5; the engine treats anything else as 3.
	IRSensitivity int           `yaml:"ir_sensitivity"`
	RumblePeriod  time.Duration `yaml:"rumble_period"`
	PollInterval  time.Duration `yaml:"poll_interval"`
	LogLevel      string        `yaml:"log_level"`
	// Open /dev/hidraw nodes directly instead of going through hidapi.
	Hidraw bool `yaml:"hidraw"`
	// Watch BlueZ for remotes and connect them.
	Bluez bool `yaml:"bluez"`
	// Present each remote as a uinput gamepad: "remote", "classic", or
	// empty for none.
	Gamepad string `yaml:"gamepad"`
	// Serial numbers to drive.  Empty means every remote.
	Devices []string `yaml:"devices"`
}

func Default() Config {
	return Config{
		IRSensitivity: 3,
		RumblePeriod:  100 * time.Millisecond,
		PollInterval:  10 * time.Millisecond,
		LogLevel:      "warn",
	}
}

// DefaultPath is $XDG_CONFIG_HOME/wmdriver/config.yaml or its platform
// equivalent.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "wmdriver.yaml"
	}
	return filepath.Join(dir, "wmdriver", "config.yaml")
}

// Load reads path over the defaults.  A missing file yields the defaults.
func Load(path string) (Config, error) {
	c := Default()
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return c, errors.Wrap(err, "read config")
	}

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && err != io.EOF {
		return Default(), errors.Wrapf(err, "parse %s", path)
	}
	if err := c.Validate(); err != nil {
		return Default(), errors.Wrapf(err, "config %s", path)
	}
	return c, nil
}

func (c Config) Validate() error {
	if _, err := wmpc.ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	if c.PollInterval <= 0 {
		return errors.Errorf("poll_interval must be positive, got %v", c.PollInterval)
	}
	switch c.Gamepad {
	case "", "remote", "classic":
	default:
		return errors.Errorf("gamepad must be remote or classic, got %q", c.Gamepad)
	}
	if c.RumblePeriod < 0 {
		return errors.Errorf("rumble_period must not be negative, got %v", c.RumblePeriod)
	}
	return nil
}

// Allowed reports whether the remote with this serial should be driven.
func (c Config) Allowed(serial string) bool {
	if len(c.Devices) == 0 {
		return true
	}
	for _, s := range c.Devices {
		if s == serial {
			return true
		}
	}
	return false
}
