package display

import (
	"context"
	"fmt"
	"log"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"

	"github.com/sweeney/gpio-signal/internal/sampler"
	"github.com/sweeney/gpio-signal/internal/status"
)

// Selector accepts channel selections from the operator.
type Selector interface {
	Select(ch sampler.Channel)
}

// Scope draws the live signal chart.
type Scope struct {
	plot *widgets.Plot
	info *widgets.Paragraph
	help *widgets.Paragraph
	grid *ui.Grid

	maxPoints int
}

func newScope() *Scope {
	s := &Scope{
		plot: widgets.NewPlot(),
		info: widgets.NewParagraph(),
		help: widgets.NewParagraph(),
		grid: ui.NewGrid(),
	}

	s.plot.Title = plotTitle("")
	s.plot.Marker = widgets.MarkerBraille
	s.plot.LineColors = []ui.Color{ui.ColorGreen}
	s.plot.AxesColor = ui.ColorWhite

	s.info.Title = " Status "
	s.help.Title = " Keys "
	s.help.Text = "[1](fg:yellow) input 1   [2](fg:yellow) input 2   [q](fg:yellow) quit"

	s.grid.Set(
		ui.NewRow(0.7, ui.NewCol(1.0, s.plot)),
		ui.NewRow(0.2, ui.NewCol(1.0, s.info)),
		ui.NewRow(0.1, ui.NewCol(1.0, s.help)),
	)
	return s
}

// OpenScope takes over the terminal. Close must be called to restore it.
func OpenScope() (*Scope, error) {
	if err := ui.Init(); err != nil {
		return nil, fmt.Errorf("init terminal: %w", err)
	}
	s := newScope()
	s.resize(ui.TerminalDimensions())
	return s, nil
}

// Close restores the terminal.
func (s *Scope) Close() {
	ui.Close()
}

func (s *Scope) resize(w, h int) {
	s.grid.SetRect(0, 0, w, h)
	// Braille packs two points per column; leave room for the y axis labels.
	s.maxPoints = max((w-8)*2, 2)
}

func (s *Scope) update(snap status.Snapshot) {
	data, maxVal := plotSeries(snap.History, s.maxPoints)
	s.plot.Data = [][]float64{data}
	s.plot.MaxVal = maxVal
	s.plot.Title = plotTitle(snap.Channel)
	s.info.Text = statusText(snap)
}

func (s *Scope) draw(snap status.Snapshot) {
	s.update(snap)
	ui.Render(s.grid)
}

// Run redraws on every tracker update and handles keys until the operator
// quits or ctx is cancelled. All termui calls happen on this goroutine.
func (s *Scope) Run(ctx context.Context, tracker *status.Tracker, sel Selector) error {
	s.draw(tracker.Snapshot())
	events := ui.PollEvents()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-tracker.Updates():
			s.draw(tracker.Snapshot())

		case e := <-events:
			switch e.Type {
			case ui.ResizeEvent:
				r := e.Payload.(ui.Resize)
				s.resize(r.Width, r.Height)
				ui.Clear()
				s.draw(tracker.Snapshot())

			case ui.KeyboardEvent:
				act, ch := scopeKey(e.ID)
				switch act {
				case actionQuit:
					log.Printf("display: quit requested")
					return nil
				case actionSelect:
					log.Printf("display: operator selected channel %s", ch)
					sel.Select(ch)
				}
			}
		}
	}
}
