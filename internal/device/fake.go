package device

import (
	"errors"
	"sync"
)

// Result is one scripted outcome of Fake.Read.
type Result struct {
	Value int
	Err   error
}

// Fake is a test double that returns scripted values and records writes.
// It is safe for concurrent use: the sampler reads it from its own goroutine
// while tests inspect it.
type Fake struct {
	mu sync.Mutex

	// results contains scripted outcomes. Each Read consumes the next one.
	results []Result

	// index tracks current position in results
	index int

	reads  int
	writes []string

	// ReadError, if set, is returned by every Read.
	ReadError error

	// WriteError, if set, is returned by every Write.
	WriteError error

	// WriteErrors fails writes of specific values.
	WriteErrors map[string]error
}

// NewFake creates a Fake that reads back the given values in order.
func NewFake(values ...int) *Fake {
	results := make([]Result, len(values))
	for i, v := range values {
		results[i] = Result{Value: v}
	}
	return &Fake{results: results}
}

// NewScriptedFake creates a Fake from a mix of values and errors.
func NewScriptedFake(results []Result) *Fake {
	return &Fake{results: results}
}

// Read returns the next scripted result.
// If results are exhausted, the last one is returned repeatedly.
func (f *Fake) Read() (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.reads++
	if f.ReadError != nil {
		return 0, f.ReadError
	}
	if len(f.results) == 0 {
		return 0, errors.New("no results configured")
	}

	r := f.results[f.index]
	if f.index < len(f.results)-1 {
		f.index++
	}
	return r.Value, r.Err
}

// Write records value, or fails if an error is configured for it.
// Failed writes are not recorded.
func (f *Fake) Write(value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.WriteError != nil {
		return f.WriteError
	}
	if err, ok := f.WriteErrors[value]; ok {
		return err
	}
	f.writes = append(f.writes, value)
	return nil
}

// SetWriteError changes WriteError while the fake may be in use.
func (f *Fake) SetWriteError(err error) {
	f.mu.Lock()
	f.WriteError = err
	f.mu.Unlock()
}

// Reads returns the number of Read calls so far.
func (f *Fake) Reads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}

// Writes returns a copy of the successfully written values.
func (f *Fake) Writes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.writes))
	copy(out, f.writes)
	return out
}

// Reset rewinds the script and clears recorded calls.
func (f *Fake) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.index = 0
	f.reads = 0
	f.writes = nil
}
