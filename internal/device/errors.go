package device

import "fmt"

// AccessError reports a failure to open, read, write or close the device.
type AccessError struct {
	Op    string // "read" or "write"
	Path  string
	Value string // value being written, write only
	Err   error
}

func (e *AccessError) Error() string {
	if e.Op == "write" {
		return fmt.Sprintf("device %s %s (value %q): %v", e.Op, e.Path, e.Value, e.Err)
	}
	return fmt.Sprintf("device %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *AccessError) Unwrap() error { return e.Err }

// FormatError reports device contents that are not a base-10 integer.
type FormatError struct {
	Path    string
	Content string
	Err     error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("device read %s: invalid contents %q: %v", e.Path, e.Content, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }
