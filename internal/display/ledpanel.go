package display

import (
	"context"
	"fmt"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"

	"github.com/sweeney/gpio-signal/internal/led"
)

// Switcher sets the LED state.
type Switcher interface {
	Set(s led.State) error
}

// LEDPanel shows two buttons that turn the LED on and off.
type LEDPanel struct {
	on, off, status *widgets.Paragraph
	grid            *ui.Grid
}

func newLEDPanel() *LEDPanel {
	p := &LEDPanel{
		on:     widgets.NewParagraph(),
		off:    widgets.NewParagraph(),
		status: widgets.NewParagraph(),
		grid:   ui.NewGrid(),
	}

	p.on.Title = " [o] "
	p.on.Text = "Turn On"
	p.on.TextStyle = ui.NewStyle(ui.ColorWhite, ui.ColorGreen, ui.ModifierBold)
	p.on.BorderStyle = ui.NewStyle(ui.ColorGreen)

	p.off.Title = " [f] "
	p.off.Text = "Turn Off"
	p.off.TextStyle = ui.NewStyle(ui.ColorWhite, ui.ColorRed, ui.ModifierBold)
	p.off.BorderStyle = ui.NewStyle(ui.ColorRed)

	p.status.Title = " GPIO LED Control "
	p.status.Text = "press o or f, q to quit"

	p.grid.Set(
		ui.NewRow(0.4, ui.NewCol(1.0, p.on)),
		ui.NewRow(0.4, ui.NewCol(1.0, p.off)),
		ui.NewRow(0.2, ui.NewCol(1.0, p.status)),
	)
	return p
}

// apply sets the LED and returns the status line to show.
func (p *LEDPanel) apply(sw Switcher, s led.State) string {
	if err := sw.Set(s); err != nil {
		return fmt.Sprintf("[Failed to write to device file: %s](fg:red)", escape(err.Error()))
	}
	return fmt.Sprintf("[LED turned %s successfully.](fg:green)", s)
}

// RunLEDPanel takes over the terminal until the operator quits or ctx is
// cancelled.
func RunLEDPanel(ctx context.Context, sw Switcher) error {
	if err := ui.Init(); err != nil {
		return fmt.Errorf("init terminal: %w", err)
	}
	defer ui.Close()

	p := newLEDPanel()
	w, h := ui.TerminalDimensions()
	p.grid.SetRect(0, 0, w, h)
	ui.Render(p.grid)

	events := ui.PollEvents()
	for {
		select {
		case <-ctx.Done():
			return nil
		case e := <-events:
			switch e.Type {
			case ui.ResizeEvent:
				r := e.Payload.(ui.Resize)
				p.grid.SetRect(0, 0, r.Width, r.Height)
				ui.Clear()
			case ui.KeyboardEvent:
				act, s := ledKey(e.ID)
				switch act {
				case actionQuit:
					return nil
				case actionLED:
					p.status.Text = p.apply(sw, s)
				}
			}
			ui.Render(p.grid)
		}
	}
}
