//go:build linux

package gpio

import (
	"errors"
	"fmt"
	"sync"

	"github.com/warthog618/go-gpiocdev"
)

const consumer = "gpio-signal"

// SignalDevice reads one of two input lines. Write selects the line, Read
// samples it. Each call requests and releases the line, so nothing is held
// between calls.
type SignalDevice struct {
	chip       string
	pin1, pin2 int

	mu       sync.Mutex
	selected int
}

// NewSignalDevice creates a signal device on chip, initially selecting pin1.
func NewSignalDevice(chip string, pin1, pin2 int) (*SignalDevice, error) {
	if err := probeChip(chip); err != nil {
		return nil, err
	}
	return &SignalDevice{chip: chip, pin1: pin1, pin2: pin2, selected: pin1}, nil
}

// Write selects input "1" or "2".
func (d *SignalDevice) Write(value string) error {
	pin, err := PinFor(value, d.pin1, d.pin2)
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.selected = pin
	d.mu.Unlock()
	return nil
}

// Read returns the value (0 or 1) of the selected input line.
func (d *SignalDevice) Read() (int, error) {
	d.mu.Lock()
	pin := d.selected
	d.mu.Unlock()

	// Request lines as input with pull-down to match Pi boot defaults.
	line, err := gpiocdev.RequestLine(d.chip, pin,
		gpiocdev.AsInput, gpiocdev.WithPullDown, gpiocdev.WithConsumer(consumer))
	if err != nil {
		return 0, fmt.Errorf("request pin %d: %w", pin, err)
	}

	v, err := line.Value()
	closeErr := line.Close()
	if err != nil {
		return 0, fmt.Errorf("read pin %d: %w", pin, err)
	}
	if closeErr != nil {
		return 0, fmt.Errorf("close pin %d: %w", pin, closeErr)
	}
	return v, nil
}

// LEDDevice drives a single output line.
type LEDDevice struct {
	chip string
	pin  int
}

// NewLEDDevice creates an LED device on chip.
func NewLEDDevice(chip string, pin int) (*LEDDevice, error) {
	if err := probeChip(chip); err != nil {
		return nil, err
	}
	return &LEDDevice{chip: chip, pin: pin}, nil
}

// Write sets the LED line to "0" or "1".
func (d *LEDDevice) Write(value string) error {
	level, err := LevelFor(value)
	if err != nil {
		return err
	}

	line, err := gpiocdev.RequestLine(d.chip, d.pin,
		gpiocdev.AsOutput(level), gpiocdev.WithConsumer("gpio-led"))
	if err != nil {
		return fmt.Errorf("request LED pin %d: %w", d.pin, err)
	}

	var errs []error
	if err := line.SetValue(level); err != nil {
		errs = append(errs, fmt.Errorf("set LED pin %d: %w", d.pin, err))
	}
	if err := line.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close LED pin %d: %w", d.pin, err))
	}
	return errors.Join(errs...)
}

// probeChip checks that chip can be opened, so a wrong name fails at
// startup rather than on the first tick.
func probeChip(chip string) error {
	c, err := gpiocdev.NewChip(chip)
	if err != nil {
		return fmt.Errorf("open gpio chip %s: %w", chip, err)
	}
	return c.Close()
}
