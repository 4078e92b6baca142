//go:build !linux

package gpio

import "errors"

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// SignalDevice is not available on non-Linux platforms.
type SignalDevice struct{}

// NewSignalDevice returns an error on non-Linux platforms.
func NewSignalDevice(chip string, pin1, pin2 int) (*SignalDevice, error) {
	return nil, errUnsupported
}

// Write is not implemented on non-Linux platforms.
func (d *SignalDevice) Write(value string) error {
	return errUnsupported
}

// Read is not implemented on non-Linux platforms.
func (d *SignalDevice) Read() (int, error) {
	return 0, errUnsupported
}

// LEDDevice is not available on non-Linux platforms.
type LEDDevice struct{}

// NewLEDDevice returns an error on non-Linux platforms.
func NewLEDDevice(chip string, pin int) (*LEDDevice, error) {
	return nil, errUnsupported
}

// Write is not implemented on non-Linux platforms.
func (d *LEDDevice) Write(value string) error {
	return errUnsupported
}
