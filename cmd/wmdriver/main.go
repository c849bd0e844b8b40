// wmdriver drives Wii Remotes connected over Bluetooth and prints their
// input on a console.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/charmbracelet/fang"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/riking/wiimote/bluez"
	"github.com/riking/wiimote/config"
	"github.com/riking/wiimote/consoleiface"
	"github.com/riking/wiimote/wmpc"
)

var version = "dev"

type flags struct {
	configPath  string
	sensitivity int
	logLevel    string
	hidraw      bool
	bluez       bool
	gamepad     string
}

func main() {
	// need 1 thread per blocked cgo call
	runtime.GOMAXPROCS(8 + runtime.NumCPU())

	if err := fang.Execute(context.Background(), newRootCmd(new(flags))); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(f *flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wmdriver",
		Short: "Wii Remote driver",
		Long: `wmdriver opens every Wii Remote the system has connected over Bluetooth,
configures it (reporting mode, IR camera, extensions, Motion Plus) and
prints its input.  Type "help" at the prompt for console commands.`,
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, *f)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
		SilenceUsage: true,
	}
	cmd.Flags().StringVar(&f.configPath, "config", config.DefaultPath(), "YAML configuration file")
	cmd.Flags().IntVar(&f.sensitivity, "sensitivity", 3, "IR camera sensitivity, 1-5")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "warn", "debug, info, warn or error")
	cmd.Flags().BoolVar(&f.hidraw, "hidraw", false, "open /dev/hidraw nodes directly instead of using hidapi")
	cmd.Flags().BoolVar(&f.bluez, "bluez", false, "watch BlueZ and connect paired Wii Remotes")
	cmd.Flags().StringVar(&f.gamepad, "gamepad", "", "present remotes as uinput gamepads: remote or classic")
	return cmd
}

// loadConfig reads the config file and applies the flags the user set.
func loadConfig(cmd *cobra.Command, f flags) (config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return cfg, err
	}
	fl := cmd.Flags()
	if fl.Changed("sensitivity") {
		cfg.IRSensitivity = f.sensitivity
	}
	if fl.Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if fl.Changed("hidraw") {
		cfg.Hidraw = f.hidraw
	}
	if fl.Changed("bluez") {
		cfg.Bluez = f.bluez
	}
	if fl.Changed("gamepad") {
		cfg.Gamepad = f.gamepad
	}
	return cfg, cfg.Validate()
}

func run(ctx context.Context, cfg config.Config) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	level, err := wmpc.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	wmpc.SetLogLevel(level)

	var bt consoleiface.Notifier
	if cfg.Bluez {
		m, err := bluez.New()
		if err != nil {
			return errors.Wrap(err, "start bluetooth manager")
		}
		defer m.Close()
		if err := m.InitialScan(); err != nil {
			wmpc.Logger(wmpc.ComponentBluez).Warn("failed to check bluetooth devices", "err", err)
		}
		m.StartDiscovery()
		defer m.StopDiscovery()
		bt = m
	}

	iface := consoleiface.New(cfg, os.Stdout, bt)
	if err := iface.StartConsole(); err != nil {
		return err
	}
	err = iface.Run(ctx)
	fmt.Println("exiting...")
	return err
}
