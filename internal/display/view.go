// Package display renders the sampler state on the terminal with termui,
// and maps operator keys to commands.
package display

import (
	"fmt"
	"strings"
	"time"

	"github.com/sweeney/gpio-signal/internal/led"
	"github.com/sweeney/gpio-signal/internal/sampler"
	"github.com/sweeney/gpio-signal/internal/status"
)

type action int

const (
	actionNone action = iota
	actionQuit
	actionSelect
	actionLED
)

// scopeKey maps a termui key ID to a scope action.
func scopeKey(id string) (action, sampler.Channel) {
	switch id {
	case "q", "Q", "<C-c>", "<Escape>":
		return actionQuit, ""
	case "1":
		return actionSelect, sampler.Channel1
	case "2":
		return actionSelect, sampler.Channel2
	}
	return actionNone, ""
}

// ledKey maps a termui key ID to an LED panel action.
func ledKey(id string) (action, led.State) {
	switch id {
	case "q", "Q", "<C-c>", "<Escape>":
		return actionQuit, led.Off
	case "o", "O", "1":
		return actionLED, led.On
	case "f", "F", "0":
		return actionLED, led.Off
	}
	return actionNone, led.Off
}

// plotSeries converts the tail of history into plot data. The plot needs at
// least two points per line, so short histories are padded, and values are
// clamped to [0, max] to stay inside the canvas. maxVal is at least 1.
func plotSeries(history []sampler.Sample, maxPoints int) (data []float64, maxVal float64) {
	if maxPoints < 2 {
		maxPoints = 2
	}
	if len(history) > maxPoints {
		history = history[len(history)-maxPoints:]
	}

	maxVal = 1
	for _, s := range history {
		if v := float64(s.Value); v > maxVal {
			maxVal = v
		}
	}

	data = make([]float64, 0, max(len(history), 2))
	for _, s := range history {
		data = append(data, max(float64(s.Value), 0))
	}
	switch len(data) {
	case 0:
		data = append(data, 0, 0)
	case 1:
		data = append(data, data[0])
	}
	return data, maxVal
}

func plotTitle(ch sampler.Channel) string {
	if ch == "" {
		return " GPIO Pin - "
	}
	return fmt.Sprintf(" GPIO Pin %s ", ch)
}

func statusText(snap status.Snapshot) string {
	var b strings.Builder

	ch := string(snap.Channel)
	if ch == "" {
		ch = "UNKNOWN"
	}
	fmt.Fprintf(&b, "Channel: [%s](fg:green,mod:bold)  Device: %s (%s)  Interval: %dms\n",
		ch, snap.Config.Device, snap.Config.Backend, snap.Config.IntervalMs)

	if last, ok := snap.Last(); ok {
		fmt.Fprintf(&b, "Samples: %d  Last: %d at %.1fs  Edges: %d up / %d down  Failures: %d\n",
			len(snap.History), last.Value, last.Elapsed.Seconds(), snap.Edges.Rising, snap.Edges.Falling, snap.Failures)
	} else {
		fmt.Fprintf(&b, "Samples: 0  Failures: %d\n", snap.Failures)
	}

	if snap.LastError != "" {
		fmt.Fprintf(&b, "Last error: [%s](fg:red)\n", escape(snap.LastError))
	}
	fmt.Fprintf(&b, "Uptime: %s", snap.Uptime().Truncate(time.Second))
	if snap.Config.Session != "" {
		fmt.Fprintf(&b, "  Session: %s", snap.Config.Session)
	}
	return b.String()
}

// escape keeps termui from parsing brackets in free text as style markup.
func escape(s string) string {
	return strings.NewReplacer("[", "(", "]", ")").Replace(s)
}
