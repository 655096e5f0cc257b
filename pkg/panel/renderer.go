package panel

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"github.com/itohio/tempseg/pkg/segment"
	"github.com/itohio/tempseg/pkg/sim"
)

const (
	// cellAspect is digit cell height over width.
	cellAspect = 1.8
	// thickness is segment thickness relative to glyph width.
	thickness = 0.14
	// glyphShare is the part of a cell taken by the glyph, the rest holds the decimal point.
	glyphShare = 0.75
)

// displayRenderer renders the display widget.
type displayRenderer struct {
	display    *DisplayWidget
	background *canvas.Rectangle
	segments   [sim.Digits][segment.NumSegments]*canvas.Rectangle
	objects    []fyne.CanvasObject
}

// MinSize returns the minimum size of the widget.
func (r *displayRenderer) MinSize() fyne.Size {
	return fyne.NewSize(240, 240/sim.Digits*cellAspect)
}

// Layout places every segment of every digit.
func (r *displayRenderer) Layout(size fyne.Size) {
	r.background.Resize(size)

	cellW := size.Width / sim.Digits
	cellH := cellW * cellAspect
	if cellH > size.Height {
		cellH = size.Height
		cellW = cellH / cellAspect
	}
	padX := (size.Width - cellW*sim.Digits) / 2
	padY := (size.Height - cellH) / 2

	for pos := range r.segments {
		origin := fyne.NewPos(padX+float32(pos)*cellW, padY)
		for s, rect := range r.segments[pos] {
			p, sz := segmentRect(segment.Segment(s), cellW, cellH)
			rect.Move(origin.Add(p))
			rect.Resize(sz)
		}
	}
}

// Refresh recolours the segments from the current frame.
func (r *displayRenderer) Refresh() {
	frame := r.display.Frame()
	for pos := range r.segments {
		g := r.display.layout.Glyph(frame[pos])
		for s, rect := range r.segments[pos] {
			col := segmentOff
			if g.Has(segment.Segment(s)) {
				col = segmentOn
			}
			if rect.FillColor != col {
				rect.FillColor = col
				rect.Refresh()
			}
		}
	}
}

func (r *displayRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

func (r *displayRenderer) Destroy() {}

// segmentRect returns the position and size of segment s inside a digit cell.
func segmentRect(s segment.Segment, cellW, cellH float32) (fyne.Position, fyne.Size) {
	w := cellW * glyphShare
	h := cellH * 0.9
	t := w * thickness
	half := h / 2
	vert := half - t*1.5

	switch s {
	case segment.A:
		return fyne.NewPos(t, 0), fyne.NewSize(w-2*t, t)
	case segment.B:
		return fyne.NewPos(w-t, t), fyne.NewSize(t, vert)
	case segment.C:
		return fyne.NewPos(w-t, half+t/2), fyne.NewSize(t, vert)
	case segment.D:
		return fyne.NewPos(t, h-t), fyne.NewSize(w-2*t, t)
	case segment.E:
		return fyne.NewPos(0, half+t/2), fyne.NewSize(t, vert)
	case segment.F:
		return fyne.NewPos(0, t), fyne.NewSize(t, vert)
	case segment.G:
		return fyne.NewPos(t, half-t/2), fyne.NewSize(w-2*t, t)
	default:
		return fyne.NewPos(w+t, h-t), fyne.NewSize(t, t)
	}
}
