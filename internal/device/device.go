// Package device reads and writes the text-valued pseudo-files exposed by
// the gpio-signal and gpio-led drivers.
// The File implementation talks to a real path; the Fake implementation
// allows testing without hardware.
package device

// Default device paths created by the kernel modules.
const (
	DefaultSignalPath = "/dev/gpio-signal"
	DefaultLEDPath    = "/dev/gpio-led"
)

// Reader reads the current signal value.
type Reader interface {
	// Read returns the integer currently reported by the device.
	// Each call is independent; nothing is cached between calls.
	Read() (int, error)
}

// Writer writes a literal value to the device.
type Writer interface {
	// Write overwrites the device contents with value, byte for byte.
	// Channel selection uses "1" or "2"; LED state uses "0" or "1".
	Write(value string) error
}

// Accessor is a device that can be both read and written.
type Accessor interface {
	Reader
	Writer
}
