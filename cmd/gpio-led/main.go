// Command gpio-led turns the LED of the gpio-led device on or off.
//
//	gpio-led [flags] on|off
//
// With no argument it opens an interactive panel with On and Off buttons.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/sweeney/gpio-signal/internal/config"
	"github.com/sweeney/gpio-signal/internal/device"
	"github.com/sweeney/gpio-signal/internal/display"
	"github.com/sweeney/gpio-signal/internal/gpio"
	"github.com/sweeney/gpio-signal/internal/led"
	"github.com/sweeney/gpio-signal/internal/logging"
)

// panelLogFile receives log output while the panel owns the terminal.
const panelLogFile = "gpio-led.log"

var errUsage = errors.New("usage: gpio-led [flags] on|off")

func main() {
	cfg, args, err := config.Load("gpio-led", config.DefaultLED(), os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}

	if err := run(cfg, args); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(cfg config.Config, args []string) error {
	if len(args) > 1 {
		return errUsage
	}
	interactive := len(args) == 0
	if interactive && cfg.LogFile == "" {
		cfg.LogFile = panelLogFile
	}

	closer, err := logging.Setup(logging.Options{
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer closer.Close()

	dev, err := openLEDDevice(cfg)
	if err != nil {
		return err
	}
	ctrl := led.NewController(dev)

	if interactive {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return display.RunLEDPanel(ctx, ctrl)
	}

	s, err := led.ParseState(args[0])
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	return ctrl.Set(s)
}

func openLEDDevice(cfg config.Config) (device.Writer, error) {
	switch cfg.Backend {
	case config.BackendFile:
		return device.NewFile(cfg.Device), nil
	case config.BackendGPIOCdev:
		d, err := gpio.NewLEDDevice(cfg.Chip, cfg.LEDPin)
		if err != nil {
			return nil, fmt.Errorf("init gpio: %w", err)
		}
		return d, nil
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}
