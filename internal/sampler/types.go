// Package sampler polls the signal device at a fixed interval and keeps the
// history of the currently selected channel.
// All mutation of the channel and history happens on the coordinator's own
// goroutine; other goroutines influence it only through the command queue.
package sampler

import (
	"fmt"
	"time"
)

// Channel selects which input line the device reports.
type Channel string

const (
	Channel1 Channel = "1"
	Channel2 Channel = "2"
)

// Channels lists every selectable channel.
var Channels = []Channel{Channel1, Channel2}

// Valid reports whether c is one of Channels.
func (c Channel) Valid() bool {
	return c == Channel1 || c == Channel2
}

// Sample is a single reading.
type Sample struct {
	// Elapsed is measured from the last channel switch (or from start).
	Elapsed time.Duration
	Value   int
}

// CommandKind distinguishes queued commands.
type CommandKind int

const (
	CommandSwitch CommandKind = iota
	CommandStop
)

// Command is a request queued for the coordinator.
type Command struct {
	Kind    CommandKind
	Channel Channel // CommandSwitch only
}

// SwitchTo returns a command selecting ch.
func SwitchTo(ch Channel) Command {
	return Command{Kind: CommandSwitch, Channel: ch}
}

// StopCommand returns a command that ends the sampling loop.
func StopCommand() Command {
	return Command{Kind: CommandStop}
}

func (c Command) String() string {
	if c.Kind == CommandStop {
		return "stop"
	}
	return fmt.Sprintf("switch to %q", string(c.Channel))
}

// InvalidCommandError reports a switch to a channel outside Channels.
type InvalidCommandError struct {
	Channel Channel
}

func (e *InvalidCommandError) Error() string {
	return fmt.Sprintf("invalid channel %q (want 1 or 2)", string(e.Channel))
}

// State is the coordinator lifecycle state.
type State int32

const (
	Idle State = iota
	Running
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// Sink receives display notifications. Methods are called from the
// coordinator's goroutine; implementations must marshal onto their own
// execution context if they need one.
type Sink interface {
	// ChannelChanged is called after a successful switch, and once on start.
	ChannelChanged(ch Channel)

	// SamplesUpdated is called with the full history after each sample.
	// The slice must not be modified.
	SamplesUpdated(history []Sample)
}

// FailureSink is optionally implemented by a Sink that wants to know about
// ticks that produced no sample.
type FailureSink interface {
	SampleFailed(ch Channel, err error)
}
