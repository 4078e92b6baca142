// Package status keeps the latest sampler state for the display.
// The sampler calls the Tracker from its own goroutine; the display reads
// snapshots from the UI goroutine after each signal on Updates.
package status

import (
	"slices"
	"sync"
	"time"

	"github.com/sweeney/gpio-signal/internal/sampler"
)

// Config contains daemon configuration for display.
type Config struct {
	Session    string // ULID of this run, also written to the log
	Device     string
	Backend    string
	IntervalMs int64
}

// EdgeCounts tracks signal transitions seen on the current channel.
type EdgeCounts struct {
	Rising  int // 0 -> non-zero
	Falling int // non-zero -> 0
}

// Snapshot is a point-in-time view of sampler state.
// It is a value type and safe to use after the lock is released.
type Snapshot struct {
	Channel   sampler.Channel
	History   []sampler.Sample
	Edges     EdgeCounts
	Switches  int
	Failures  int
	LastError string
	StartTime time.Time
	Now       time.Time
	Config    Config
}

// Uptime returns the duration since the tracker was created.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Last returns the most recent sample, if any.
func (s Snapshot) Last() (sampler.Sample, bool) {
	if len(s.History) == 0 {
		return sampler.Sample{}, false
	}
	return s.History[len(s.History)-1], true
}

// Tracker holds mutable sampler state behind an RWMutex.
type Tracker struct {
	mu      sync.RWMutex
	snap    Snapshot
	updates chan struct{}
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
		updates: make(chan struct{}, 1),
	}
}

// Updates receives a value after any change. Signals coalesce: a reader that
// falls behind sees one pending signal, not one per change.
func (t *Tracker) Updates() <-chan struct{} {
	return t.updates
}

func (t *Tracker) notify() {
	select {
	case t.updates <- struct{}{}:
	default:
	}
}

// ChannelChanged resets the window for the new channel.
func (t *Tracker) ChannelChanged(ch sampler.Channel) {
	t.mu.Lock()
	if t.snap.Channel != "" {
		t.snap.Switches++
	}
	t.snap.Channel = ch
	t.snap.History = nil
	t.snap.Edges = EdgeCounts{}
	t.mu.Unlock()
	t.notify()
}

// SamplesUpdated stores a copy of the history and counts the edge, if any,
// introduced by the newest sample.
func (t *Tracker) SamplesUpdated(history []sampler.Sample) {
	t.mu.Lock()
	if n := len(history); n >= 2 && len(t.snap.History) == n-1 {
		prev, cur := history[n-2].Value, history[n-1].Value
		switch {
		case prev == 0 && cur != 0:
			t.snap.Edges.Rising++
		case prev != 0 && cur == 0:
			t.snap.Edges.Falling++
		}
	}
	t.snap.History = slices.Clone(history)
	t.mu.Unlock()
	t.notify()
}

// SampleFailed records a tick that produced no sample.
func (t *Tracker) SampleFailed(ch sampler.Channel, err error) {
	t.mu.Lock()
	t.snap.Failures++
	t.snap.LastError = err.Error()
	t.mu.Unlock()
	t.notify()
}

// Snapshot returns a point-in-time copy of the sampler state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	s.History = slices.Clone(t.snap.History)
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
