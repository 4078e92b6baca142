// Command gpio-signal plots a GPIO input signal live and lets the operator
// switch between the two inputs of the gpio-signal device.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/spf13/pflag"

	"github.com/sweeney/gpio-signal/internal/config"
	"github.com/sweeney/gpio-signal/internal/device"
	"github.com/sweeney/gpio-signal/internal/display"
	"github.com/sweeney/gpio-signal/internal/gpio"
	"github.com/sweeney/gpio-signal/internal/logging"
	"github.com/sweeney/gpio-signal/internal/sampler"
	"github.com/sweeney/gpio-signal/internal/status"
)

func main() {
	cfg, _, err := config.Load("gpio-signal", config.DefaultSignal(), os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}

	if err := run(cfg); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(cfg config.Config) error {
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

	if cfg.ConfigFile != "" {
		log.Printf("using config file %s", cfg.ConfigFile)
	}

	dev, err := openSignalDevice(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	session := ulid.Make().String()
	log.Printf("session %s", session)

	if cfg.Headless {
		return runHeadless(ctx, dev, cfg)
	}
	return runScope(ctx, dev, cfg, session)
}

func openSignalDevice(cfg config.Config) (device.Accessor, error) {
	switch cfg.Backend {
	case config.BackendFile:
		return device.NewFile(cfg.Device), nil
	case config.BackendGPIOCdev:
		d, err := gpio.NewSignalDevice(cfg.Chip, cfg.Pin1, cfg.Pin2)
		if err != nil {
			return nil, fmt.Errorf("init gpio: %w", err)
		}
		return d, nil
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

func deviceName(cfg config.Config) string {
	if cfg.Backend == config.BackendGPIOCdev {
		return fmt.Sprintf("%s pins %d/%d", cfg.Chip, cfg.Pin1, cfg.Pin2)
	}
	return cfg.Device
}

func samplerOptions(cfg config.Config) []sampler.Option {
	return []sampler.Option{
		sampler.WithChannel(sampler.Channel(cfg.Channel)),
		sampler.WithInterval(cfg.Interval),
	}
}

// runScope draws the chart until the operator quits or a signal arrives.
// The sampler is stopped before the terminal is released.
func runScope(ctx context.Context, dev device.Accessor, cfg config.Config, session string) error {
	tracker := status.NewTracker(time.Now(), status.Config{
		Session:    session,
		Device:     deviceName(cfg),
		Backend:    cfg.Backend,
		IntervalMs: cfg.Interval.Milliseconds(),
	})

	scope, err := display.OpenScope()
	if err != nil {
		return err
	}
	defer scope.Close()

	coord := sampler.New(dev, tracker, samplerOptions(cfg)...)
	if err := coord.Start(ctx); err != nil {
		return err
	}
	defer coord.Stop()

	log.Printf("started: device=%s channel=%s interval=%v", deviceName(cfg), cfg.Channel, cfg.Interval)
	return scope.Run(ctx, tracker, coord)
}

// runHeadless logs every sample until ctx is cancelled.
func runHeadless(ctx context.Context, dev device.Accessor, cfg config.Config) error {
	coord := sampler.New(dev, &display.LogSink{}, samplerOptions(cfg)...)
	if err := coord.Start(ctx); err != nil {
		return err
	}
	log.Printf("started headless: device=%s channel=%s interval=%v", deviceName(cfg), cfg.Channel, cfg.Interval)

	select {
	case <-ctx.Done():
	case <-coord.Done():
	}
	log.Printf("shutting down")
	coord.Stop()
	return nil
}
