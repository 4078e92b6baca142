package device

import (
	"io"
	"os"
	"strconv"
	"strings"
)

// File accesses a device through its path. Every call performs exactly one
// open/close cycle; no handle is kept between calls.
type File struct {
	Path string
}

// NewFile returns a File for the given path.
func NewFile(path string) *File {
	return &File{Path: path}
}

// Read opens the device, reads its whole contents and parses them as a
// base-10 integer after trimming whitespace.
func (f *File) Read() (int, error) {
	fh, err := os.Open(f.Path)
	if err != nil {
		return 0, &AccessError{Op: "read", Path: f.Path, Err: err}
	}
	defer fh.Close()

	data, err := io.ReadAll(fh)
	if err != nil {
		return 0, &AccessError{Op: "read", Path: f.Path, Err: err}
	}

	content := strings.TrimSpace(string(data))
	v, err := strconv.Atoi(content)
	if err != nil {
		return 0, &FormatError{Path: f.Path, Content: content, Err: err}
	}
	return v, nil
}

// Write opens the device for writing and overwrites it with value.
// The device must already exist; Write never creates it.
func (f *File) Write(value string) error {
	fh, err := os.OpenFile(f.Path, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return &AccessError{Op: "write", Path: f.Path, Value: value, Err: err}
	}

	if _, err := io.WriteString(fh, value); err != nil {
		fh.Close()
		return &AccessError{Op: "write", Path: f.Path, Value: value, Err: err}
	}

	// The driver may only reject the value when the write is flushed.
	if err := fh.Close(); err != nil {
		return &AccessError{Op: "write", Path: f.Path, Value: value, Err: err}
	}
	return nil
}
