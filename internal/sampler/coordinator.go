package sampler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sweeney/gpio-signal/internal/device"
)

// DefaultInterval is the sampling period.
const DefaultInterval = time.Second

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithChannel sets the channel selected on start. Defaults to Channel1.
func WithChannel(ch Channel) Option {
	return func(c *Coordinator) { c.channel = ch }
}

// WithInterval sets the sleep between ticks. Defaults to DefaultInterval.
func WithInterval(d time.Duration) Option {
	return func(c *Coordinator) { c.interval = d }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// WithAfter replaces time.After as the source of tick wake-ups.
func WithAfter(after func(time.Duration) <-chan time.Time) Option {
	return func(c *Coordinator) { c.after = after }
}

// Coordinator drives the sampling loop. Create it with New, start it with
// Start and end it with Stop (or by cancelling the context given to Start).
type Coordinator struct {
	dev      device.Accessor
	sink     Sink
	queue    *Queue
	interval time.Duration
	now      func() time.Time
	after    func(time.Duration) <-chan time.Time

	startMu sync.Mutex
	state   atomic.Int32
	current atomic.Value // Channel, published copy of channel for readers
	done    chan struct{}

	// Owned by the loop goroutine once started.
	channel Channel
	history []Sample
	origin  time.Time
}

// New creates an idle Coordinator reading and writing dev and notifying sink.
func New(dev device.Accessor, sink Sink, opts ...Option) *Coordinator {
	c := &Coordinator{
		dev:      dev,
		sink:     sink,
		queue:    NewQueue(),
		interval: DefaultInterval,
		now:      time.Now,
		after:    time.After,
		channel:  Channel1,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.current.Store(c.channel)
	return c
}

// Start writes the initial channel to the device and launches the loop.
// If the write fails the coordinator stays idle and the error is returned.
func (c *Coordinator) Start(ctx context.Context) error {
	c.startMu.Lock()
	defer c.startMu.Unlock()

	if s := c.State(); s != Idle {
		return fmt.Errorf("sampler: start: coordinator is %s", s)
	}
	if !c.channel.Valid() {
		return fmt.Errorf("sampler: start: %w", &InvalidCommandError{Channel: c.channel})
	}
	if err := c.dev.Write(string(c.channel)); err != nil {
		return fmt.Errorf("sampler: select channel %s: %w", c.channel, err)
	}

	c.origin = c.now()
	c.sink.ChannelChanged(c.channel)
	c.state.Store(int32(Running))
	log.Printf("sampler: started on channel %s, interval %v", c.channel, c.interval)

	go c.run(ctx)
	return nil
}

// Select queues a switch to ch. Invalid channels are rejected by the loop.
func (c *Coordinator) Select(ch Channel) {
	c.queue.Push(SwitchTo(ch))
}

// Enqueue queues cmd. It never blocks.
func (c *Coordinator) Enqueue(cmd Command) {
	c.queue.Push(cmd)
}

// Stop queues a stop command and waits for the loop to exit.
// It returns immediately if the coordinator was never started.
func (c *Coordinator) Stop() {
	if c.State() == Idle {
		return
	}
	c.queue.Push(StopCommand())
	c.Wait()
}

// Wait blocks until the loop has exited.
func (c *Coordinator) Wait() {
	<-c.done
}

// Done is closed when the loop has exited.
func (c *Coordinator) Done() <-chan struct{} {
	return c.done
}

// State returns the lifecycle state.
func (c *Coordinator) State() State {
	return State(c.state.Load())
}

// Channel returns the channel most recently confirmed by the device.
func (c *Coordinator) Channel() Channel {
	return c.current.Load().(Channel)
}

func (c *Coordinator) run(ctx context.Context) {
	defer close(c.done)
	defer c.state.Store(int32(Stopped))

	for {
		if c.tick() {
			log.Printf("sampler: stop requested, exiting")
			return
		}

		// The full interval is slept after the work; the period is never
		// shortened to make up for time spent in the device.
		select {
		case <-c.after(c.interval):
		case <-ctx.Done():
			log.Printf("sampler: %v, exiting", ctx.Err())
			return
		}
	}
}

// tick performs one iteration. It returns true if the loop must stop.
func (c *Coordinator) tick() bool {
	if c.applyCommands(c.queue.DrainAll()) {
		return true
	}

	t := c.now()
	v, err := c.dev.Read()
	if err != nil {
		log.Printf("sampler: read on channel %s: %v", c.channel, err)
		if fs, ok := c.sink.(FailureSink); ok {
			fs.SampleFailed(c.channel, err)
		}
		return false
	}

	elapsed := t.Sub(c.origin)
	if elapsed < 0 {
		elapsed = 0
	}
	c.history = append(c.history, Sample{Elapsed: elapsed, Value: v})
	n := len(c.history)
	c.sink.SamplesUpdated(c.history[:n:n])
	return false
}

// applyCommands handles the commands drained in one tick. Switches collapse
// to the last valid one; a stop anywhere in the batch wins.
func (c *Coordinator) applyCommands(cmds []Command) bool {
	if len(cmds) == 0 {
		return false
	}

	var target Channel
	for _, cmd := range cmds {
		switch cmd.Kind {
		case CommandStop:
			return true
		case CommandSwitch:
			if !cmd.Channel.Valid() {
				log.Printf("sampler: rejected command %s: %v", cmd, &InvalidCommandError{Channel: cmd.Channel})
				continue
			}
			target = cmd.Channel
		default:
			log.Printf("sampler: ignoring unknown command kind %d", cmd.Kind)
		}
	}

	if target == "" || target == c.channel {
		return false
	}
	c.switchTo(target)
	return false
}

func (c *Coordinator) switchTo(ch Channel) {
	if err := c.dev.Write(string(ch)); err != nil {
		log.Printf("sampler: switch %s -> %s failed, staying on %s: %v", c.channel, ch, c.channel, err)
		return
	}

	log.Printf("sampler: switched channel %s -> %s", c.channel, ch)
	c.channel = ch
	c.current.Store(ch)
	c.history = nil
	c.origin = c.now()
	c.sink.ChannelChanged(ch)
}
