package calibrate

import (
	"image"
	"image/color"
	"math"

	"bingo-kit/internal/grid"
	cardimage "bingo-kit/internal/image"
	"bingo-kit/pkg/colorutil"
	"bingo-kit/pkg/geometry"
)

// lineThickness of drawn grid lines in preview pixels.
const lineThickness = 2

// Render returns a copy of img with the grid implied by b drawn over it:
// the border in red and the inner lines in blue. Invalid bounds draw
// nothing.
func Render(img image.Image, b geometry.Bounds) *image.RGBA {
	out := cardimage.ToRGBA(img)
	if !b.Valid() {
		return out
	}

	lines := grid.EvenLines(b)
	last := grid.Size
	for i, y := range lines.Horizontal {
		hline(out, b.Left, b.Right, y, lineColor(i, last))
	}
	for i, x := range lines.Vertical {
		vline(out, x, b.Top, b.Bottom, lineColor(i, last))
	}
	// EvenLines trims the remainder, so close the border on the real edges.
	hline(out, b.Left, b.Right, b.Bottom, colorutil.Red)
	vline(out, b.Right, b.Top, b.Bottom, colorutil.Red)
	return out
}

func lineColor(i, last int) color.RGBA {
	if i == 0 || i == last {
		return colorutil.Red
	}
	return colorutil.Blue
}

func hline(img *image.RGBA, x0, x1, y int, col color.RGBA) {
	r := img.Bounds()
	for dy := 0; dy < lineThickness; dy++ {
		if y+dy < r.Min.Y || y+dy >= r.Max.Y {
			continue
		}
		for x := max(x0, r.Min.X); x <= min(x1, r.Max.X-1); x++ {
			img.SetRGBA(x, y+dy, col)
		}
	}
}

func vline(img *image.RGBA, x, y0, y1 int, col color.RGBA) {
	r := img.Bounds()
	for dx := 0; dx < lineThickness; dx++ {
		if x+dx < r.Min.X || x+dx >= r.Max.X {
			continue
		}
		for y := max(y0, r.Min.Y); y <= min(y1, r.Max.Y-1); y++ {
			img.SetRGBA(x+dx, y, col)
		}
	}
}

// scaleBounds maps source-image bounds onto a preview scaled by s.
func scaleBounds(b geometry.Bounds, s float64) geometry.Bounds {
	if s == 1 {
		return b
	}
	f := func(v int) int { return int(math.Round(float64(v) * s)) }
	return geometry.Bounds{Top: f(b.Top), Bottom: f(b.Bottom), Left: f(b.Left), Right: f(b.Right)}
}
