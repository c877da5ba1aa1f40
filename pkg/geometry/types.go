// Package geometry provides basic geometric types used throughout the application.
package geometry

import (
	"fmt"
	"image"
)

// PointInt represents a 2D point with integer coordinates.
type PointInt struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// ToImage converts to an image.Point.
func (p PointInt) ToImage() image.Point {
	return image.Pt(p.X, p.Y)
}

// Bounds is the outer rectangle of a card grid, expressed as the pixel
// coordinates of its four border lines. Right and Bottom are inclusive.
type Bounds struct {
	Top    int `json:"top"`
	Bottom int `json:"bottom"`
	Left   int `json:"left"`
	Right  int `json:"right"`
}

// Width returns the distance between the left and right border lines.
func (b Bounds) Width() int {
	return b.Right - b.Left
}

// Height returns the distance between the top and bottom border lines.
func (b Bounds) Height() int {
	return b.Bottom - b.Top
}

// Valid reports whether the bounds describe a non-empty area.
func (b Bounds) Valid() bool {
	return b.Right > b.Left && b.Bottom > b.Top
}

// Rect returns the half-open image rectangle covering the bounds,
// including the right and bottom border lines.
func (b Bounds) Rect() image.Rectangle {
	return image.Rect(b.Left, b.Top, b.Right+1, b.Bottom+1)
}

// Clamp limits the bounds to lie within r.
func (b Bounds) Clamp(r image.Rectangle) Bounds {
	return Bounds{
		Top:    clamp(b.Top, r.Min.Y, r.Max.Y-1),
		Bottom: clamp(b.Bottom, r.Min.Y, r.Max.Y-1),
		Left:   clamp(b.Left, r.Min.X, r.Max.X-1),
		Right:  clamp(b.Right, r.Min.X, r.Max.X-1),
	}
}

func (b Bounds) String() string {
	return fmt.Sprintf("top=%d bottom=%d left=%d right=%d", b.Top, b.Bottom, b.Left, b.Right)
}

// RectInt represents a rectangle with integer coordinates.
type RectInt struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// FromImage converts an image.Rectangle to a RectInt.
func FromImage(r image.Rectangle) RectInt {
	return RectInt{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
}

// FromBox converts a [left, top, right, bottom] box to a RectInt.
func FromBox(box [4]int) RectInt {
	return RectInt{X: box[0], Y: box[1], Width: box[2] - box[0], Height: box[3] - box[1]}
}

// ToImage converts to an image.Rectangle.
func (r RectInt) ToImage() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Box returns the rectangle as [left, top, right, bottom] with right and
// bottom exclusive.
func (r RectInt) Box() [4]int {
	return [4]int{r.X, r.Y, r.X + r.Width, r.Y + r.Height}
}

// Origin returns the top-left corner.
func (r RectInt) Origin() PointInt {
	return PointInt{X: r.X, Y: r.Y}
}

// Inset shrinks the rectangle by n pixels on every side.
// A negative n grows it.
func (r RectInt) Inset(n int) RectInt {
	w := r.Width - 2*n
	h := r.Height - 2*n
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return RectInt{X: r.X + n, Y: r.Y + n, Width: w, Height: h}
}

// Empty reports whether the rectangle has no area.
func (r RectInt) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
