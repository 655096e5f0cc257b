package main

import (
	"context"
	"fmt"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/tempseg/pkg/core"
	"github.com/itohio/tempseg/pkg/panel"
)

// frameInterval throttles widget updates to a steady rate.
const frameInterval = 40 * time.Millisecond

// runGUI shows the display in a window. Closing the window stops the board.
func runGUI(ctx context.Context, stop context.CancelFunc, s *simulator) {
	application := app.NewWithID("com.itohio.tempseg")

	window := application.NewWindow("Temperature Display")
	window.Resize(fyne.NewSize(480, 260))
	window.CenterOnScreen()

	display := panel.New(s.board.Bus.Layout())
	status := widget.NewLabel("")
	dumpBtn := widget.NewButtonWithIcon("Dump", theme.DocumentIcon(), func() {
		s.board.Receive(core.DumpCommand)
	})

	window.SetContent(container.NewBorder(
		nil,
		container.NewBorder(nil, nil, nil, dumpBtn, status),
		nil,
		nil,
		display,
	))
	window.SetOnClosed(stop)

	s.run(ctx)

	go func() {
		ticker := time.NewTicker(frameInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				fyne.Do(window.Close)
				return
			case <-ticker.C:
				frame := s.board.Bus.Frame()
				stats := s.board.Firmware.Stats()
				text := fmt.Sprintf("reading %.4f  raw %d  refreshes %d  dumps %d",
					s.board.Firmware.Reading(), s.board.Firmware.Raw(), stats.Refreshes, stats.Dumps)
				fyne.Do(func() {
					display.SetFrame(frame)
					status.SetText(text)
				})
			}
		}
	}()

	window.ShowAndRun()
	stop()
	s.wait()
}
