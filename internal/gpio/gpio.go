// Package gpio drives the signal and LED lines directly through the Linux
// GPIO character device, for hosts without the gpio-signal/gpio-led kernel
// modules. It speaks the same text values as the device files.
// The real implementation uses Linux GPIO character device; other platforms
// get a stub that fails on construction.
package gpio

import (
	"errors"
	"fmt"
)

// Pin definitions (BCM numbering), matching the kernel module defaults.
const (
	DefaultChip   = "gpiochip0"
	DefaultPin1   = 22 // signal input 1
	DefaultPin2   = 27 // signal input 2
	DefaultLEDPin = 17
)

var (
	// ErrInvalidSelection is returned for selections other than "1" and "2".
	ErrInvalidSelection = errors.New("gpio: invalid selection")

	// ErrInvalidState is returned for LED states other than "0" and "1".
	ErrInvalidState = errors.New("gpio: invalid state")
)

// PinFor maps a written selection to the input pin it selects.
func PinFor(selection string, pin1, pin2 int) (int, error) {
	switch selection {
	case "1":
		return pin1, nil
	case "2":
		return pin2, nil
	}
	return 0, fmt.Errorf("%w %q", ErrInvalidSelection, selection)
}

// LevelFor maps a written LED state to an output level.
func LevelFor(state string) (int, error) {
	switch state {
	case "0":
		return 0, nil
	case "1":
		return 1, nil
	}
	return 0, fmt.Errorf("%w %q", ErrInvalidState, state)
}
