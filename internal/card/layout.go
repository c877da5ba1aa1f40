// Package card composes new bingo cards from a background template and a
// set of extracted squares.
package card

import (
	"image"

	log "github.com/sirupsen/logrus"

	"bingo-kit/internal/grid"
	"bingo-kit/internal/manifest"
	"bingo-kit/pkg/geometry"
)

// Layout says where the square for each target cell is pasted.
type Layout struct {
	Bounds geometry.Bounds
	Width  int // square width
	Height int // square height

	// Origins overrides the computed top-left corner for cells whose
	// extraction rectangle was recorded.
	Origins map[grid.Cell]image.Point
}

// NewLayout returns a layout that tiles bounds with w×h squares.
func NewLayout(bounds geometry.Bounds, w, h int) Layout {
	return Layout{Bounds: bounds, Width: w, Height: h}
}

// LayoutFromMetadata places each cell where its square was cut from.
// Cells without a recorded rectangle fall back to the grid origin plus
// col*width, row*height.
func LayoutFromMetadata(m *manifest.Metadata) Layout {
	l := NewLayout(m.GridBounds, m.SquareSize.Width, m.SquareSize.Height)
	for _, c := range grid.AllCells() {
		sq, ok := m.Square(c)
		if !ok {
			continue
		}
		if r, ok := sq.Rect(); ok {
			if l.Origins == nil {
				l.Origins = make(map[grid.Cell]image.Point)
			}
			l.Origins[c] = r.Origin().ToImage()
		}
	}
	return l
}

// FallbackLayout estimates the layout of a background without metadata
// from the default percentage margins.
func FallbackLayout(width, height int) Layout {
	b := grid.FallbackBounds(width, height)
	log.WithField("bounds", b.String()).Warn("no metadata found, using default grid bounds")
	return NewLayout(b, b.Width()/grid.Size, b.Height()/grid.Size)
}

// Origin returns the top-left corner of target cell c.
func (l Layout) Origin(c grid.Cell) image.Point {
	if p, ok := l.Origins[c]; ok {
		return p
	}
	return image.Pt(l.Bounds.Left+c.Col*l.Width, l.Bounds.Top+c.Row*l.Height)
}

// Rect returns the paste rectangle of target cell c.
func (l Layout) Rect(c grid.Cell) image.Rectangle {
	o := l.Origin(c)
	return image.Rect(o.X, o.Y, o.X+l.Width, o.Y+l.Height)
}
