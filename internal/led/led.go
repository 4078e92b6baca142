// Package led switches the LED exposed by the gpio-led driver.
package led

import (
	"fmt"
	"log"
	"strings"

	"github.com/sweeney/gpio-signal/internal/device"
)

// State is the LED state.
type State bool

const (
	Off State = false
	On  State = true
)

func (s State) String() string {
	if s {
		return "on"
	}
	return "off"
}

// Value returns the literal written to the device.
func (s State) Value() string {
	if s {
		return "1"
	}
	return "0"
}

// ParseState accepts "on", "off", "1" and "0" (case-insensitive).
func ParseState(s string) (State, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "1":
		return On, nil
	case "off", "0":
		return Off, nil
	}
	return Off, fmt.Errorf("invalid LED state %q (want on or off)", s)
}

// Controller writes LED states to a device.
type Controller struct {
	dev device.Writer
}

// NewController creates a Controller writing to dev.
func NewController(dev device.Writer) *Controller {
	return &Controller{dev: dev}
}

// Set writes s to the device.
func (c *Controller) Set(s State) error {
	if err := c.dev.Write(s.Value()); err != nil {
		return fmt.Errorf("turn LED %s: %w", s, err)
	}
	log.Printf("LED turned %s successfully", s)
	return nil
}

// On turns the LED on.
func (c *Controller) On() error { return c.Set(On) }

// Off turns the LED off.
func (c *Controller) Off() error { return c.Set(Off) }
