// Package config loads settings for the gpio-signal and gpio-led commands.
// Precedence, highest first: command-line flags, environment variables
// (GPIO_SIGNAL_* / GPIO_LED_*), a YAML config file, defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sweeney/gpio-signal/internal/device"
	"github.com/sweeney/gpio-signal/internal/gpio"
	"github.com/sweeney/gpio-signal/internal/sampler"
)

// Backends.
const (
	BackendFile     = "file"
	BackendGPIOCdev = "gpiocdev"
)

// Config holds the settings of either command.
type Config struct {
	Device   string        `mapstructure:"device"`
	Backend  string        `mapstructure:"backend"`
	Chip     string        `mapstructure:"chip"`
	Pin1     int           `mapstructure:"pin1"`
	Pin2     int           `mapstructure:"pin2"`
	LEDPin   int           `mapstructure:"led-pin"`
	Channel  string        `mapstructure:"channel"`
	Interval time.Duration `mapstructure:"interval"`
	Headless bool          `mapstructure:"headless"`

	LogFile       string `mapstructure:"log-file"`
	LogMaxSizeMB  int    `mapstructure:"log-max-size"`
	LogMaxBackups int    `mapstructure:"log-max-backups"`
	LogMaxAgeDays int    `mapstructure:"log-max-age"`

	// ConfigFile is the file actually read, empty if none.
	ConfigFile string `mapstructure:"-"`
}

// DefaultSignal returns the defaults for gpio-signal.
func DefaultSignal() Config {
	return Config{
		Device:        device.DefaultSignalPath,
		Backend:       BackendFile,
		Chip:          gpio.DefaultChip,
		Pin1:          gpio.DefaultPin1,
		Pin2:          gpio.DefaultPin2,
		LEDPin:        gpio.DefaultLEDPin,
		Channel:       string(sampler.Channel1),
		Interval:      sampler.DefaultInterval,
		LogFile:       "gpio-signal.log",
		LogMaxSizeMB:  10,
		LogMaxBackups: 4,
		LogMaxAgeDays: 180,
	}
}

// DefaultLED returns the defaults for gpio-led.
func DefaultLED() Config {
	c := DefaultSignal()
	c.Device = device.DefaultLEDPath
	c.LogFile = ""
	return c
}

// Load parses args for the command called name, merges environment and
// config file, and validates the result. It returns the remaining
// positional arguments. pflag.ErrHelp is returned as is.
func Load(name string, defaults Config, args []string) (Config, []string, error) {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	configPath := fs.String("config", "", "Path to YAML config file")
	fs.String("device", defaults.Device, "Device file path")
	fs.String("backend", defaults.Backend, "Device backend: file|gpiocdev")
	fs.String("chip", defaults.Chip, "GPIO chip for the gpiocdev backend")
	fs.Int("pin1", defaults.Pin1, "BCM pin number for input 1 (gpiocdev)")
	fs.Int("pin2", defaults.Pin2, "BCM pin number for input 2 (gpiocdev)")
	fs.Int("led-pin", defaults.LEDPin, "BCM pin number for the LED (gpiocdev)")
	fs.String("channel", defaults.Channel, "Initial channel (1 or 2)")
	fs.Duration("interval", defaults.Interval, "Sampling interval")
	fs.Bool("headless", defaults.Headless, "Log samples instead of drawing the chart")
	fs.String("log-file", defaults.LogFile, "Log file (empty for stderr)")
	fs.Int("log-max-size", defaults.LogMaxSizeMB, "Log file size in megabytes before rotation")
	fs.Int("log-max-backups", defaults.LogMaxBackups, "Rotated log files to keep")
	fs.Int("log-max-age", defaults.LogMaxAgeDays, "Days to keep rotated log files")

	if err := fs.Parse(args); err != nil {
		return defaults, nil, err
	}

	v := viper.New()
	v.SetEnvPrefix(strings.ToUpper(strings.ReplaceAll(name, "-", "_")))
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return defaults, nil, fmt.Errorf("bind flags: %w", err)
	}

	if err := readConfigFile(v, name, *configPath); err != nil {
		return defaults, nil, err
	}

	cfg := defaults
	if err := v.Unmarshal(&cfg); err != nil {
		return defaults, nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.ConfigFile = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return cfg, nil, err
	}
	return cfg, fs.Args(), nil
}

// readConfigFile reads path if given, otherwise looks for <name>.yaml in
// /etc/<name>, $HOME/.config/<name> and the working directory. A missing
// file is only an error when path was given explicitly.
func readConfigFile(v *viper.Viper, name, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
		return nil
	}

	v.SetConfigName(name)
	v.SetConfigType("yaml")
	v.AddConfigPath(filepath.Join("/etc", name))
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", name))
	}
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// Validate checks values that would otherwise fail later at runtime.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendFile:
		if c.Device == "" {
			return errors.New("config: device path is required for the file backend")
		}
	case BackendGPIOCdev:
		if c.Chip == "" {
			return errors.New("config: chip is required for the gpiocdev backend")
		}
	default:
		return fmt.Errorf("config: unknown backend %q (want %s or %s)", c.Backend, BackendFile, BackendGPIOCdev)
	}
	if !sampler.Channel(c.Channel).Valid() {
		return fmt.Errorf("config: %w", &sampler.InvalidCommandError{Channel: sampler.Channel(c.Channel)})
	}
	if c.Interval <= 0 {
		return fmt.Errorf("config: interval must be positive, got %v", c.Interval)
	}
	return nil
}
