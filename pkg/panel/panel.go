package panel

import (
	"image/color"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/tempseg/pkg/segment"
	"github.com/itohio/tempseg/pkg/sim"
)

var (
	background = color.RGBA{R: 20, G: 20, B: 20, A: 255}
	segmentOn  = color.RGBA{R: 255, G: 40, B: 20, A: 255}
	segmentOff = color.RGBA{R: 50, G: 20, B: 20, A: 255}
)

// DisplayWidget is a Fyne widget that draws the latched frame of a
// 4-digit 7-segment display.
type DisplayWidget struct {
	widget.BaseWidget

	layout segment.Layout

	mu    sync.RWMutex
	frame sim.Frame
}

// New creates a display widget for the given bus wiring.
func New(layout segment.Layout) *DisplayWidget {
	w := &DisplayWidget{layout: layout}
	w.ExtendBaseWidget(w)
	return w
}

// SetFrame updates the shown patterns. Call it from the UI goroutine, e.g. via fyne.Do().
func (w *DisplayWidget) SetFrame(frame sim.Frame) {
	w.mu.Lock()
	changed := w.frame != frame
	w.frame = frame
	w.mu.Unlock()

	if changed {
		w.Refresh()
	}
}

// Frame returns the shown patterns.
func (w *DisplayWidget) Frame() sim.Frame {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.frame
}

// Lit reports whether segment s of digit pos is on.
func (w *DisplayWidget) Lit(pos int, s segment.Segment) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.layout.Glyph(w.frame[pos]).Has(s)
}

// CreateRenderer creates the widget renderer.
func (w *DisplayWidget) CreateRenderer() fyne.WidgetRenderer {
	r := &displayRenderer{
		display:    w,
		background: canvas.NewRectangle(background),
	}
	r.objects = append(r.objects, r.background)
	for pos := range r.segments {
		for s := range r.segments[pos] {
			rect := canvas.NewRectangle(segmentOff)
			r.segments[pos][s] = rect
			r.objects = append(r.objects, rect)
		}
	}
	r.Refresh()
	return r
}
