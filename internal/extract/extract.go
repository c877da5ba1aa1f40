// Package extract crops the 25 cells of a detected grid into squares of one
// common size.
package extract

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	log "github.com/sirupsen/logrus"

	cardimage "bingo-kit/internal/image"
	"bingo-kit/internal/grid"
	"bingo-kit/pkg/geometry"
)

// Mode selects how cell rectangles are derived from the grid.
type Mode int

const (
	// ModeInterior crops inside each cell, keeping clear of the grid lines.
	ModeInterior Mode = iota
	// ModeCell crops between consecutive lines, lines included.
	ModeCell
	// ModeEven divides the grid bounds into equal squares, ignoring lines.
	ModeEven
)

func (m Mode) String() string {
	switch m {
	case ModeInterior:
		return "interior"
	case ModeCell:
		return "cell"
	case ModeEven:
		return "even"
	default:
		return "unknown"
	}
}

// ParseMode converts a mode name to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "interior":
		return ModeInterior, nil
	case "cell":
		return ModeCell, nil
	case "even":
		return ModeEven, nil
	}
	return ModeInterior, fmt.Errorf("unknown extraction mode %q", s)
}

// Options configures Extract.
type Options struct {
	Mode Mode

	// LineWidth is the grid stroke width in pixels. Zero in ModeInterior
	// means estimate it from the image.
	LineWidth int

	// MinBuffer is the smallest gap kept between a crop and a grid line
	// in ModeInterior.
	MinBuffer int

	// TargetWidth and TargetHeight override the computed square size when
	// non-zero.
	TargetWidth  int
	TargetHeight int
}

// DefaultOptions returns interior extraction with an estimated line width.
func DefaultOptions() Options {
	return Options{
		Mode:      ModeInterior,
		MinBuffer: 10,
	}
}

// Square is one extracted cell.
type Square struct {
	Cell    grid.Cell
	Image   *image.NRGBA
	Bounds  geometry.RectInt // crop rectangle in source coordinates
	Resized bool             // crop was resampled to the common size
}

// Result holds the 25 squares of one extraction run.
type Result struct {
	Squares   []Square // row-major
	Width     int
	Height    int
	Mode      Mode
	LineWidth int
	Buffer    int // interior gap, zero for other modes
	Lines     grid.Lines
	Bounds    geometry.Bounds
}

// Extract crops the 25 cells of img. Every returned square has the same
// dimensions; crops that come out a different size are resampled with a
// Lanczos filter.
func Extract(img image.Image, lines grid.Lines, bounds geometry.Bounds, opts Options) (*Result, error) {
	if opts.Mode == ModeEven {
		if !bounds.Valid() {
			return nil, fmt.Errorf("invalid grid bounds %s", bounds)
		}
		lines = grid.EvenLines(bounds)
	}
	if err := lines.Validate(); err != nil {
		return nil, err
	}

	res := &Result{
		Mode:   opts.Mode,
		Lines:  lines,
		Bounds: bounds,
	}
	if opts.Mode != ModeEven {
		res.Bounds = lines.Bounds()
	}

	var rects []geometry.RectInt
	switch opts.Mode {
	case ModeEven:
		res.Width = bounds.Width() / grid.Size
		res.Height = bounds.Height() / grid.Size
		rects = evenRects(lines, res.Width, res.Height)
	case ModeCell:
		res.Width = int(grid.MeanSpacing(lines.Vertical))
		res.Height = int(grid.MeanSpacing(lines.Horizontal))
		rects = cellRects(lines)
	case ModeInterior:
		res.LineWidth = opts.LineWidth
		if res.LineWidth <= 0 {
			res.LineWidth = EstimateLineWidth(cardimage.ToGray(img), lines)
		}
		res.Buffer = max(res.LineWidth, opts.MinBuffer)
		res.Width = int(grid.MeanSpacing(lines.Vertical) - float64(2*res.Buffer))
		res.Height = int(grid.MeanSpacing(lines.Horizontal) - float64(2*res.Buffer))
		rects = interiorRects(lines, res.Buffer, res.Width, res.Height)
	default:
		return nil, fmt.Errorf("unknown extraction mode %d", opts.Mode)
	}

	if opts.TargetWidth > 0 {
		res.Width = opts.TargetWidth
	}
	if opts.TargetHeight > 0 {
		res.Height = opts.TargetHeight
	}
	if res.Width <= 0 || res.Height <= 0 {
		return nil, fmt.Errorf("square size %dx%d is empty; grid lines too close for mode %s", res.Width, res.Height, opts.Mode)
	}

	ib := img.Bounds()
	for i, cell := range grid.AllCells() {
		r := rects[i]
		crop := imaging.Crop(img, r.ToImage().Add(ib.Min))
		if crop.Bounds().Empty() {
			return nil, fmt.Errorf("cell %s at %v lies outside the image", cell, r.Box())
		}

		sq := Square{Cell: cell, Image: crop, Bounds: r}
		if crop.Bounds().Dx() != res.Width || crop.Bounds().Dy() != res.Height {
			log.WithFields(log.Fields{
				"cell": cell.String(),
				"from": fmt.Sprintf("%dx%d", crop.Bounds().Dx(), crop.Bounds().Dy()),
				"to":   fmt.Sprintf("%dx%d", res.Width, res.Height),
			}).Debug("resizing square")
			sq.Image = imaging.Resize(crop, res.Width, res.Height, imaging.Lanczos)
			sq.Resized = true
		}
		res.Squares = append(res.Squares, sq)
	}
	return res, nil
}

func evenRects(lines grid.Lines, w, h int) []geometry.RectInt {
	rects := make([]geometry.RectInt, 0, grid.Size*grid.Size)
	for _, c := range grid.AllCells() {
		rects = append(rects, geometry.RectInt{
			X:      lines.Vertical[0] + c.Col*w,
			Y:      lines.Horizontal[0] + c.Row*h,
			Width:  w,
			Height: h,
		})
	}
	return rects
}

func cellRects(lines grid.Lines) []geometry.RectInt {
	rects := make([]geometry.RectInt, 0, grid.Size*grid.Size)
	for _, c := range grid.AllCells() {
		rects = append(rects, lines.CellRect(c))
	}
	return rects
}

// interiorRects places a w×h crop inside each cell, starting just past the
// leading lines and pulled back when it would reach the trailing ones.
func interiorRects(lines grid.Lines, buffer, w, h int) []geometry.RectInt {
	rects := make([]geometry.RectInt, 0, grid.Size*grid.Size)
	for _, c := range grid.AllCells() {
		x0, x1 := lines.Vertical[c.Col], lines.Vertical[c.Col+1]
		y0, y1 := lines.Horizontal[c.Row], lines.Horizontal[c.Row+1]

		// The outer border tends to be heavier.
		lead := 1
		if c.Col == 0 {
			lead = 2
		}
		left, right := fit(x0+buffer+lead, x0, x1, buffer, w)
		top, bottom := fit(y0+buffer+1, y0, y1, buffer, h)

		rects = append(rects, geometry.RectInt{X: left, Y: top, Width: right - left, Height: bottom - top})
	}
	return rects
}

// fit returns [start, start+size) along one axis, kept within
// [lo+buffer, hi-buffer].
func fit(start, lo, hi, buffer, size int) (int, int) {
	end := start + size
	if end > hi-buffer {
		end = hi - buffer
		start = end - size
		if start < lo+buffer {
			start = lo + buffer
			end = min(hi-buffer, start+size)
		}
	}
	return start, end
}

// EstimateLineWidth measures the first vertical line by walking right from
// it, near the second to fourth horizontal lines, until a 10-pixel tall
// sample turns light. The widest reading wins; 8 is returned when no
// sample turns light within 30 pixels.
func EstimateLineWidth(gray *image.Gray, lines grid.Lines) int {
	const (
		fallback = 8
		reach    = 30
		light    = 180
	)
	if len(lines.Vertical) == 0 || len(lines.Horizontal) < 4 {
		return fallback
	}

	b := gray.Bounds()
	x0 := lines.Vertical[0]
	end := -1
	for _, y := range lines.Horizontal[1:4] {
		if y-5 < b.Min.Y || y+5 > b.Max.Y {
			continue
		}
		for x := x0; x < min(x0+reach, b.Max.X); x++ {
			sum := 0
			for yy := y - 5; yy < y+5; yy++ {
				sum += int(gray.GrayAt(x, yy).Y)
			}
			if float64(sum)/10 > light {
				end = max(end, x)
				break
			}
		}
	}
	if end < 0 {
		return fallback
	}
	return end - x0
}

// Save writes every square to dir as square_{row}_{col}.png.
func (r *Result) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create squares directory: %w", err)
	}
	for _, sq := range r.Squares {
		if err := cardimage.SavePNG(filepath.Join(dir, sq.Cell.FileName()), sq.Image); err != nil {
			return fmt.Errorf("failed to save square %s: %w", sq.Cell, err)
		}
	}
	return nil
}

// Square returns the square for cell c, or nil.
func (r *Result) Square(c grid.Cell) *Square {
	for i := range r.Squares {
		if r.Squares[i].Cell == c {
			return &r.Squares[i]
		}
	}
	return nil
}

// ResizedCount reports how many squares were resampled.
func (r *Result) ResizedCount() int {
	n := 0
	for _, sq := range r.Squares {
		if sq.Resized {
			n++
		}
	}
	return n
}
