package sampler

import (
	"bytes"
	"context"
	"errors"
	"log"
	"math/rand"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/gpio-signal/internal/device"
)

// --- test doubles ---

// recordingSink records notifications in order and mirrors each one on
// events so tests can wait for a tick to finish.
type recordingSink struct {
	mu        sync.Mutex
	channels  []Channel
	histories [][]Sample
	failures  []error
	order     []string
	events    chan string
}

func newRecordingSink() *recordingSink {
	return &recordingSink{events: make(chan string, 1024)}
}

func (s *recordingSink) ChannelChanged(ch Channel) {
	s.mu.Lock()
	s.channels = append(s.channels, ch)
	s.order = append(s.order, "channel:"+string(ch))
	s.mu.Unlock()
	s.events <- "channel"
}

func (s *recordingSink) SamplesUpdated(history []Sample) {
	s.mu.Lock()
	s.histories = append(s.histories, history)
	s.order = append(s.order, "samples")
	s.mu.Unlock()
	s.events <- "samples"
}

func (s *recordingSink) SampleFailed(ch Channel, err error) {
	s.mu.Lock()
	s.failures = append(s.failures, err)
	s.order = append(s.order, "failed:"+string(ch))
	s.mu.Unlock()
	s.events <- "failed"
}

func (s *recordingSink) lastHistory() []Sample {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.histories) == 0 {
		return nil
	}
	return s.histories[len(s.histories)-1]
}

// manualClock is advanced explicitly by the test.
type manualClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// syncBuffer is a log destination safe to read while the loop logs.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func captureLog(t *testing.T) *syncBuffer {
	t.Helper()
	buf := &syncBuffer{}
	log.SetOutput(buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })
	return buf
}

// harness drives a Coordinator one tick at a time. The coordinator's sleep
// is replaced by an unbuffered channel: a send on tick only completes once
// the previous iteration has finished and the loop is waiting.
type harness struct {
	t     *testing.T
	dev   device.Accessor
	sink  *recordingSink
	clock *manualClock
	tick  chan time.Time
	c     *Coordinator
	ctx   context.Context
}

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func newHarness(t *testing.T, dev device.Accessor, opts ...Option) *harness {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	h := &harness{
		t:     t,
		dev:   dev,
		sink:  newRecordingSink(),
		clock: &manualClock{t: t0},
		tick:  make(chan time.Time),
		ctx:   ctx,
	}
	base := []Option{
		WithClock(h.clock.Now),
		WithAfter(func(time.Duration) <-chan time.Time { return h.tick }),
	}
	h.c = New(dev, h.sink, append(base, opts...)...)
	return h
}

func (h *harness) start() {
	h.t.Helper()
	require.NoError(h.t, h.c.Start(h.ctx))
	h.expect("channel")
}

// next releases the sleep so the loop runs its next tick.
func (h *harness) next() {
	h.t.Helper()
	select {
	case h.tick <- time.Time{}:
	case <-h.c.Done():
		h.t.Fatal("loop exited unexpectedly")
	case <-time.After(2 * time.Second):
		h.t.Fatal("timeout waiting for loop to sleep")
	}
}

func (h *harness) expect(event string) {
	h.t.Helper()
	select {
	case got := <-h.sink.events:
		require.Equal(h.t, event, got)
	case <-time.After(2 * time.Second):
		h.t.Fatalf("timeout waiting for %q notification", event)
	}
}

func (h *harness) stop() {
	h.t.Helper()
	h.c.Enqueue(StopCommand())
	h.next()
	select {
	case <-h.c.Done():
	case <-time.After(2 * time.Second):
		h.t.Fatal("timeout waiting for loop exit")
	}
}

// --- tests ---

func TestStartWritesInitialChannel(t *testing.T) {
	dev := device.NewFake(0)
	h := newHarness(t, dev)
	assert.Equal(t, Idle, h.c.State())

	h.start()
	h.expect("samples")

	assert.Equal(t, Running, h.c.State())
	assert.Equal(t, []string{"1"}, dev.Writes())
	assert.Equal(t, []Channel{Channel1}, h.sink.channels)

	h.stop()
	assert.Equal(t, Stopped, h.c.State())
}

func TestStartWithChannel2(t *testing.T) {
	dev := device.NewFake(0)
	h := newHarness(t, dev, WithChannel(Channel2))

	h.start()
	h.expect("samples")
	h.stop()

	assert.Equal(t, []string{"2"}, dev.Writes())
	assert.Equal(t, Channel2, h.c.Channel())
}

func TestStartWriteFailureStaysIdle(t *testing.T) {
	dev := device.NewFake(0)
	dev.WriteError = &device.AccessError{Op: "write", Path: "/dev/gpio-signal", Value: "1", Err: os.ErrPermission}
	h := newHarness(t, dev)

	err := h.c.Start(h.ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrPermission)
	assert.Equal(t, Idle, h.c.State())
	assert.Equal(t, 0, dev.Reads())
	assert.Empty(t, h.sink.channels)

	// Stop on an idle coordinator must not block.
	h.c.Stop()
}

func TestStartInvalidChannel(t *testing.T) {
	dev := device.NewFake(0)
	h := newHarness(t, dev, WithChannel("3"))

	err := h.c.Start(h.ctx)
	var ice *InvalidCommandError
	require.ErrorAs(t, err, &ice)
	assert.Empty(t, dev.Writes())
}

func TestStartTwice(t *testing.T) {
	h := newHarness(t, device.NewFake(0))
	h.start()
	h.expect("samples")

	assert.Error(t, h.c.Start(h.ctx))
	assert.Equal(t, []string{"1"}, h.dev.(*device.Fake).Writes())
	h.stop()
}

// TestCoordinatorScenario walks through start, a sample, a switch, a failed
// read and a stop.
func TestCoordinatorScenario(t *testing.T) {
	logs := captureLog(t)
	readErr := &device.AccessError{Op: "read", Path: "/dev/gpio-signal", Err: errors.New("input/output error")}
	dev := device.NewScriptedFake([]device.Result{{Value: 10}, {Value: 20}, {Err: readErr}})
	h := newHarness(t, dev)

	h.start()

	// Tick 1: read returns 10.
	h.expect("samples")
	assert.Equal(t, []Sample{{Elapsed: 0, Value: 10}}, h.sink.lastHistory())

	// Tick 2: switch to 2, then read 20 into a fresh history.
	h.c.Select(Channel2)
	h.clock.Advance(time.Second)
	h.next()
	h.expect("channel")
	h.expect("samples")
	assert.Equal(t, []string{"1", "2"}, dev.Writes())
	assert.Equal(t, []Sample{{Elapsed: 0, Value: 20}}, h.sink.lastHistory())

	// Tick 3: read fails, history unchanged.
	h.clock.Advance(time.Second)
	h.next()
	h.expect("failed")
	assert.Equal(t, []Sample{{Elapsed: 0, Value: 20}}, h.sink.lastHistory())

	// Tick 4: stop.
	h.stop()

	assert.Equal(t, 3, dev.Reads())
	assert.Equal(t, []string{"1", "2"}, dev.Writes())
	assert.Equal(t, []Sample{{Elapsed: 0, Value: 20}}, h.c.history)
	assert.Equal(t, Channel2, h.c.Channel())
	assert.Equal(t, Stopped, h.c.State())
	assert.Equal(t, []string{"channel:1", "samples", "channel:2", "samples", "failed:2"}, h.sink.order)
	require.Len(t, h.sink.failures, 1)
	assert.ErrorIs(t, h.sink.failures[0], readErr)
	assert.Contains(t, logs.String(), "read on channel 2")
}

func TestElapsedMeasuredFromSwitch(t *testing.T) {
	h := newHarness(t, device.NewFake(1))
	h.start()
	h.expect("samples")

	h.clock.Advance(1500 * time.Millisecond)
	h.next()
	h.expect("samples")
	assert.Equal(t, []Sample{{0, 1}, {1500 * time.Millisecond, 1}}, h.sink.lastHistory())

	h.c.Select(Channel2)
	h.clock.Advance(time.Second)
	h.next()
	h.expect("channel")
	h.expect("samples")

	h.clock.Advance(time.Second)
	h.next()
	h.expect("samples")
	assert.Equal(t, []Sample{{0, 1}, {time.Second, 1}}, h.sink.lastHistory())

	h.stop()
	assert.Equal(t, t0.Add(2500*time.Millisecond), h.c.origin)
}

func TestSwitchToCurrentChannelIsNoop(t *testing.T) {
	dev := device.NewFake(1)
	h := newHarness(t, dev)
	h.start()
	h.expect("samples")

	h.c.Select(Channel1)
	h.clock.Advance(time.Second)
	h.next()
	h.expect("samples")

	h.stop()
	assert.Equal(t, []string{"1"}, dev.Writes(), "no write for the current channel")
	assert.Equal(t, []Sample{{0, 1}, {time.Second, 1}}, h.c.history)
	assert.Equal(t, t0, h.c.origin)
	assert.Equal(t, []Channel{Channel1}, h.sink.channels)
}

func TestInvalidChannelRejected(t *testing.T) {
	logs := captureLog(t)
	dev := device.NewFake(1)
	h := newHarness(t, dev)
	h.start()
	h.expect("samples")

	h.c.Select("3")
	h.clock.Advance(time.Second)
	h.next()
	h.expect("samples")

	h.stop()
	assert.Equal(t, []string{"1"}, dev.Writes())
	assert.Equal(t, Channel1, h.c.Channel())
	assert.Len(t, h.c.history, 2)
	assert.Equal(t, t0, h.c.origin)
	assert.Contains(t, logs.String(), `invalid channel "3"`)
}

func TestSwitchCommandsCollapse(t *testing.T) {
	tests := []struct {
		name       string
		cmds       []Channel
		wantWrites []string
		wantLen    int // history length after the switch tick
	}{
		{"back to current", []Channel{Channel2, Channel1}, []string{"1"}, 2},
		{"last valid wins", []Channel{Channel2, "3", Channel1, Channel2}, []string{"1", "2"}, 1},
		{"trailing invalid ignored", []Channel{Channel2, "0"}, []string{"1", "2"}, 1},
		{"only invalid", []Channel{"", "9"}, []string{"1"}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := device.NewFake(7)
			h := newHarness(t, dev)
			h.start()
			h.expect("samples")

			for _, ch := range tt.cmds {
				h.c.Select(ch)
			}
			h.clock.Advance(time.Second)
			h.next()
			if len(tt.wantWrites) > 1 {
				h.expect("channel")
			}
			h.expect("samples")

			h.stop()
			assert.Equal(t, tt.wantWrites, dev.Writes())
			assert.Len(t, h.c.history, tt.wantLen)
		})
	}
}

func TestSwitchWriteFailureKeepsState(t *testing.T) {
	logs := captureLog(t)
	dev := device.NewFake(4)
	dev.WriteErrors = map[string]error{"2": errors.New("device busy")}
	h := newHarness(t, dev)
	h.start()
	h.expect("samples")

	h.c.Select(Channel2)
	h.clock.Advance(time.Second)
	h.next()
	h.expect("samples")

	h.stop()
	assert.Equal(t, Channel1, h.c.Channel())
	assert.Equal(t, []Sample{{0, 4}, {time.Second, 4}}, h.c.history)
	assert.Equal(t, t0, h.c.origin)
	assert.Equal(t, []Channel{Channel1}, h.sink.channels)
	assert.Contains(t, logs.String(), "device busy")
}

func TestStopSkipsPendingWork(t *testing.T) {
	dev := device.NewFake(1)
	h := newHarness(t, dev)
	h.start()
	h.expect("samples")

	h.c.Select(Channel2)
	h.stop()

	assert.Equal(t, 1, dev.Reads())
	assert.Equal(t, []string{"1"}, dev.Writes())
	assert.Equal(t, Channel1, h.c.Channel())
}

func TestStopWithRealTimer(t *testing.T) {
	dev := device.NewFake(1)
	c := New(dev, newRecordingSink(), WithInterval(10*time.Millisecond))
	require.NoError(t, c.Start(context.Background()))

	time.Sleep(35 * time.Millisecond)

	stopped := make(chan struct{})
	go func() {
		c.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return within one second")
	}

	reads := dev.Reads()
	assert.GreaterOrEqual(t, reads, 2)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, reads, dev.Reads(), "no reads after stop")
	assert.Equal(t, Stopped, c.State())

	// A second Stop returns at once.
	c.Stop()
}

func TestContextCancelStops(t *testing.T) {
	dev := device.NewFake(1)
	h := newHarness(t, dev)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, h.c.Start(ctx))
	h.expect("channel")
	h.expect("samples")

	cancel()
	select {
	case <-h.c.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not exit on cancel")
	}
	assert.Equal(t, Stopped, h.c.State())
	assert.Equal(t, 1, dev.Reads())
}

func TestReadFailureWithoutFailureSink(t *testing.T) {
	captureLog(t)
	dev := device.NewFake(0)
	dev.ReadError = errors.New("gone")

	var sink plainSink
	tick := make(chan time.Time)
	c := New(dev, &sink, WithAfter(func(time.Duration) <-chan time.Time { return tick }))
	require.NoError(t, c.Start(context.Background()))

	tick <- time.Time{}
	c.Enqueue(StopCommand())
	tick <- time.Time{}
	c.Wait()

	assert.Equal(t, 2, dev.Reads())
	assert.Equal(t, 0, sink.updates)
}

type plainSink struct {
	updates int
}

func (s *plainSink) ChannelChanged(Channel)   {}
func (s *plainSink) SamplesUpdated([]Sample) { s.updates++ }

func TestHistoryPassedWithoutSpareCapacity(t *testing.T) {
	h := newHarness(t, device.NewFake(1))
	h.start()
	h.expect("samples")
	h.next()
	h.expect("samples")
	h.stop()

	hist := h.sink.lastHistory()
	assert.Equal(t, len(hist), cap(hist))
}

// channelDevice reports 100+selected channel so every sample can be traced
// back to the channel that produced it.
type channelDevice struct {
	mu       sync.Mutex
	selected int
}

func (d *channelDevice) Write(v string) error {
	n, err := strconv.Atoi(v)
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.selected = n
	d.mu.Unlock()
	return nil
}

func (d *channelDevice) Read() (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return 100 + d.selected, nil
}

func TestHistoryInvariantsUnderRandomSwitches(t *testing.T) {
	captureLog(t)
	rng := rand.New(rand.NewSource(1))
	choices := []Channel{Channel1, Channel2, "3"}

	h := newHarness(t, &channelDevice{})
	h.start()
	h.expect("samples")

	for i := 0; i < 200; i++ {
		for n := rng.Intn(3); n > 0; n-- {
			h.c.Select(choices[rng.Intn(len(choices))])
		}
		h.clock.Advance(time.Duration(rng.Intn(1500)) * time.Millisecond)
		h.next()
	}
	h.stop()

	h.sink.mu.Lock()
	defer h.sink.mu.Unlock()

	var current Channel
	hi := 0
	for _, ev := range h.sink.order {
		if ev != "samples" {
			current = Channel(ev[len("channel:"):])
			continue
		}
		hist := h.sink.histories[hi]
		hi++
		want, _ := strconv.Atoi(string(current))
		for j, s := range hist {
			require.Equal(t, 100+want, s.Value, "sample from another channel")
			require.GreaterOrEqual(t, s.Elapsed, time.Duration(0))
			if j > 0 {
				require.GreaterOrEqual(t, s.Elapsed, hist[j-1].Elapsed)
			}
		}
	}
	assert.Equal(t, len(h.sink.histories), hi)
}
