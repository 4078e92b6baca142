package display

import (
	"log"

	"github.com/sweeney/gpio-signal/internal/sampler"
)

// LogSink is a headless sink that logs each notification.
// It is only called from the sampler goroutine.
type LogSink struct {
	channel sampler.Channel
}

// ChannelChanged logs the newly selected channel.
func (l *LogSink) ChannelChanged(ch sampler.Channel) {
	l.channel = ch
	log.Printf("display: GPIO pin %s selected", ch)
}

// SamplesUpdated logs the newest sample.
func (l *LogSink) SamplesUpdated(history []sampler.Sample) {
	if len(history) == 0 {
		return
	}
	s := history[len(history)-1]
	log.Printf("display: pin %s t=%.1fs value=%d (%d samples)", l.channel, s.Elapsed.Seconds(), s.Value, len(history))
}

// SampleFailed logs a gap in the history.
func (l *LogSink) SampleFailed(ch sampler.Channel, err error) {
	log.Printf("display: pin %s gap: %v", ch, err)
}
