// Package verify renders artefacts for checking an extraction by eye and
// measures how faithfully background plus squares rebuild the source.
package verify

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
	log "github.com/sirupsen/logrus"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"bingo-kit/internal/card"
	cardimage "bingo-kit/internal/image"
	"bingo-kit/internal/grid"
	"bingo-kit/internal/manifest"
	"bingo-kit/pkg/colorutil"
)

// Padding between squares in the verification grid.
const Padding = 2

// Gap between the two panels of a comparison.
const Gap = 20

// drawText writes s with its top-left corner near at.
func drawText(dst draw.Image, s string, at image.Point, col color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(at.X, at.Y+basicfont.Face7x13.Ascent),
	}
	d.DrawString(s)
}

// outline draws a 1 px rectangle border, right and bottom edges included.
func outline(dst *image.RGBA, r image.Rectangle, col color.Color) {
	for x := r.Min.X; x <= r.Max.X; x++ {
		dst.Set(x, r.Min.Y, col)
		dst.Set(x, r.Max.Y, col)
	}
	for y := r.Min.Y; y <= r.Max.Y; y++ {
		dst.Set(r.Min.X, y, col)
		dst.Set(r.Max.X, y, col)
	}
}

// fitSquare resamples img to size when it differs.
func fitSquare(c grid.Cell, img image.Image, size manifest.Size) image.Image {
	b := img.Bounds()
	if b.Dx() == size.Width && b.Dy() == size.Height {
		return img
	}
	log.WithFields(log.Fields{
		"cell": c.String(),
		"was":  fmt.Sprintf("%dx%d", b.Dx(), b.Dy()),
	}).Warn("square has the wrong size, resizing")
	return imaging.Resize(img, size.Width, size.Height, imaging.Lanczos)
}

// Grid arranges the squares in their grid positions with a 2 px gap, a
// black border and a red R{row}C{col} label on each.
func Grid(squares card.Squares, size manifest.Size) *image.RGBA {
	w := (size.Width+Padding)*grid.Size + Padding
	h := (size.Height+Padding)*grid.Size + Padding
	canvas := cardimage.Canvas(w, h, colorutil.White)

	for _, c := range grid.AllCells() {
		sq, ok := squares[c]
		if !ok {
			log.WithField("cell", c.String()).Warn("square not found")
			continue
		}
		at := image.Pt(Padding+c.Col*(size.Width+Padding), Padding+c.Row*(size.Height+Padding))
		cardimage.Paste(canvas, fitSquare(c, sq, size), at, cardimage.PasteReplace)
		outline(canvas, image.Rectangle{Min: at, Max: at.Add(image.Pt(size.Width, size.Height))}, colorutil.Black)
		drawText(canvas, fmt.Sprintf("R%dC%d", c.Row, c.Col), at.Add(image.Pt(5, 5)), colorutil.Red)
	}
	return canvas
}

// Reconstruct pastes every square at its recorded position on a white
// canvas the size of the original.
func Reconstruct(size image.Point, squares card.Squares, meta *manifest.Metadata) *image.RGBA {
	canvas := cardimage.Canvas(size.X, size.Y, colorutil.White)
	layout := card.LayoutFromMetadata(meta)
	for _, c := range grid.AllCells() {
		sq, ok := squares[c]
		if !ok {
			continue
		}
		cardimage.Paste(canvas, fitSquare(c, sq, meta.SquareSize), layout.Origin(c), cardimage.PasteReplace)
	}
	return canvas
}

// Compare places the original and its reconstruction side by side on
// light gray, 20 px apart, with captions.
func Compare(original image.Image, squares card.Squares, meta *manifest.Metadata) *image.RGBA {
	ob := original.Bounds()
	rebuilt := Reconstruct(ob.Size(), squares, meta)

	canvas := cardimage.Canvas(ob.Dx()*2+Gap, ob.Dy(), colorutil.LightGray)
	cardimage.Paste(canvas, original, image.Point{}, cardimage.PasteReplace)
	cardimage.Paste(canvas, rebuilt, image.Pt(ob.Dx()+Gap, 0), cardimage.PasteReplace)

	drawText(canvas, "Original", image.Pt(10, 10), colorutil.Black)
	drawText(canvas, "Reconstructed", image.Pt(ob.Dx()+Gap+10, 10), colorutil.Black)
	return canvas
}

// Report is the outcome of a round trip.
type Report struct {
	Checked   int               // pixels compared
	Differing int               // pixels whose RGB differs from the original
	PerCell   map[grid.Cell]int // differing pixels per cell
	MaxDelta  uint8             // largest channel difference seen
	Missing   []grid.Cell
}

// Exact reports whether every checked pixel matched.
func (r Report) Exact() bool {
	return r.Differing == 0 && len(r.Missing) == 0
}

// RoundTrip composes the squares back onto bg at their recorded positions,
// unshuffled, and compares the result with original inside every paste
// rectangle.
func RoundTrip(original, bg image.Image, squares card.Squares, meta *manifest.Metadata) (Report, error) {
	layout := card.LayoutFromMetadata(meta)
	composed, err := card.Compose(bg, squares, layout, card.Options{Free: grid.FreeSpace})
	if err != nil {
		return Report{}, err
	}

	orig := cardimage.ToNRGBA(original)
	if orig.Bounds() != composed.Image.Bounds() {
		return Report{}, fmt.Errorf("original is %v but background is %v", orig.Bounds().Size(), composed.Image.Bounds().Size())
	}

	rep := Report{PerCell: make(map[grid.Cell]int), Missing: composed.Missing}
	for _, c := range grid.AllCells() {
		r := layout.Rect(c).Intersect(orig.Bounds())
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				want := orig.NRGBAAt(x, y)
				got := composed.Image.RGBAAt(x, y)
				rep.Checked++
				d := max(absDiff(want.R, got.R), absDiff(want.G, got.G), absDiff(want.B, got.B))
				if d > 0 {
					rep.Differing++
					rep.PerCell[c]++
					rep.MaxDelta = max(rep.MaxDelta, d)
				}
			}
		}
	}
	return rep, nil
}

func absDiff(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}

// UniformSize checks that every square has the given size.
func UniformSize(squares card.Squares, size manifest.Size) error {
	for _, c := range grid.AllCells() {
		sq, ok := squares[c]
		if !ok {
			continue
		}
		if b := sq.Bounds(); b.Dx() != size.Width || b.Dy() != size.Height {
			return fmt.Errorf("square %s is %dx%d, want %dx%d", c, b.Dx(), b.Dy(), size.Width, size.Height)
		}
	}
	return nil
}
