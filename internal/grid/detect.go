package grid

import (
	"errors"
	"fmt"
	"image"

	cardimage "bingo-kit/internal/image"
	"bingo-kit/pkg/geometry"
)

var (
	// ErrEmptyImage is returned when there are no pixels to scan.
	ErrEmptyImage = errors.New("empty image")
	// ErrInvalidLines is returned for line sets that are not LineCount
	// strictly increasing values per axis.
	ErrInvalidLines = errors.New("invalid grid lines")
)

// Confidence records where a grid came from, so callers can decide how
// far to trust it.
type Confidence int

const (
	// ConfidenceDetected means the first detection pass found both axes.
	ConfidenceDetected Confidence = iota
	// ConfidenceRelaxed means only the relaxed second pass succeeded.
	ConfidenceRelaxed
	// ConfidenceFallback means detection failed and percentage margins were used.
	ConfidenceFallback
	// ConfidenceManual means the caller supplied the bounds.
	ConfidenceManual
	// ConfidenceSaved means the bounds came from a saved grid config.
	ConfidenceSaved
)

func (c Confidence) String() string {
	switch c {
	case ConfidenceDetected:
		return "detected"
	case ConfidenceRelaxed:
		return "relaxed"
	case ConfidenceFallback:
		return "fallback"
	case ConfidenceManual:
		return "manual"
	case ConfidenceSaved:
		return "saved"
	default:
		return "unknown"
	}
}

// ParseConfidence is the inverse of Confidence.String.
func ParseConfidence(s string) (Confidence, error) {
	for c := ConfidenceDetected; c <= ConfidenceSaved; c++ {
		if c.String() == s {
			return c, nil
		}
	}
	return ConfidenceFallback, fmt.Errorf("unknown confidence %q", s)
}

// Trusted reports whether the lines were measured from the image rather
// than guessed.
func (c Confidence) Trusted() bool {
	return c == ConfidenceDetected || c == ConfidenceRelaxed
}

// Lines holds the horizontal (y) and vertical (x) grid line coordinates.
type Lines struct {
	Horizontal []int `json:"horizontal"`
	Vertical   []int `json:"vertical"`
}

// Validate checks that both axes have Size+1 strictly increasing values.
func (l Lines) Validate() error {
	check := func(axis Axis, v []int) error {
		if len(v) != Size+1 {
			return fmt.Errorf("%w: %d %s lines, want %d", ErrInvalidLines, len(v), axis, Size+1)
		}
		for i := 1; i < len(v); i++ {
			if v[i] <= v[i-1] {
				return fmt.Errorf("%w: %s lines not increasing at %d", ErrInvalidLines, axis, i)
			}
		}
		return nil
	}
	if err := check(Horizontal, l.Horizontal); err != nil {
		return err
	}
	return check(Vertical, l.Vertical)
}

// Bounds returns the outer rectangle spanned by the lines.
func (l Lines) Bounds() geometry.Bounds {
	if len(l.Horizontal) == 0 || len(l.Vertical) == 0 {
		return geometry.Bounds{}
	}
	return geometry.Bounds{
		Top:    l.Horizontal[0],
		Bottom: l.Horizontal[len(l.Horizontal)-1],
		Left:   l.Vertical[0],
		Right:  l.Vertical[len(l.Vertical)-1],
	}
}

// CellRect returns the rectangle between the lines around cell c, with the
// far lines excluded.
func (l Lines) CellRect(c Cell) geometry.RectInt {
	return geometry.RectInt{
		X:      l.Vertical[c.Col],
		Y:      l.Horizontal[c.Row],
		Width:  l.Vertical[c.Col+1] - l.Vertical[c.Col],
		Height: l.Horizontal[c.Row+1] - l.Horizontal[c.Row],
	}
}

// Result holds the outcome of grid detection on an image.
type Result struct {
	Lines      Lines
	Bounds     geometry.Bounds
	Confidence Confidence
	Params     DetectionParams // parameters of the pass that produced Lines

	// Raw merged candidates of the last pass, for debug overlays.
	RowCandidates []int
	ColCandidates []int

	// Spacing statistics of the selected lines (zero for fallback).
	RowVariance float64
	ColVariance float64
}

// Detect locates the grid lines of img. It runs a first pass with params,
// a relaxed second pass if either axis comes up short, and otherwise falls
// back to percentage margins. Only an empty image is an error; degraded
// results are reported through Result.Confidence.
func Detect(img image.Image, params DetectionParams) (*Result, error) {
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, ErrEmptyImage
	}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("detection params: %w", err)
	}

	gray := cardimage.ToGray(img)

	result, ok := detectPass(gray, params)
	if ok {
		result.Confidence = ConfidenceDetected
		return result, nil
	}

	relaxed := params.Relaxed()
	result, ok = detectPass(gray, relaxed)
	if ok {
		result.Confidence = ConfidenceRelaxed
		return result, nil
	}

	fb := Fallback(b.Dx(), b.Dy())
	fb.Params = relaxed
	fb.RowCandidates = result.RowCandidates
	fb.ColCandidates = result.ColCandidates
	return fb, nil
}

func detectPass(gray *image.Gray, params DetectionParams) (*Result, bool) {
	result := &Result{
		Params:        params,
		RowCandidates: ScanRows(gray, params),
		ColCandidates: ScanCols(gray, params),
	}

	rows, okRows := SelectLines(result.RowCandidates, params.MinSpacingRows, params.LineCount)
	cols, okCols := SelectLines(result.ColCandidates, params.MinSpacingCols, params.LineCount)
	if !okRows || !okCols {
		return result, false
	}

	result.Lines = Lines{Horizontal: rows.Lines, Vertical: cols.Lines}
	result.Bounds = result.Lines.Bounds()
	result.RowVariance = rows.Variance
	result.ColVariance = cols.Variance
	return result, true
}

// Fallback margins as fractions of the image size.
const (
	FallbackTopMargin    = 0.15
	FallbackBottomMargin = 0.10
	FallbackSideMargin   = 0.10
)

// FallbackBounds estimates the grid area from fixed percentage margins.
func FallbackBounds(width, height int) geometry.Bounds {
	return geometry.Bounds{
		Top:    int(float64(height) * FallbackTopMargin),
		Bottom: int(float64(height) * (1 - FallbackBottomMargin)),
		Left:   int(float64(width) * FallbackSideMargin),
		Right:  int(float64(width) * (1 - FallbackSideMargin)),
	}
}

// Fallback builds a ConfidenceFallback result for an image of the given
// size.
func Fallback(width, height int) *Result {
	lines := EvenLines(FallbackBounds(width, height))
	return &Result{
		Lines:      lines,
		Bounds:     lines.Bounds(),
		Confidence: ConfidenceFallback,
	}
}

// FromBounds builds a result for caller-supplied bounds (manual or saved).
func FromBounds(b geometry.Bounds, c Confidence) *Result {
	lines := EvenLines(b)
	return &Result{
		Lines:      lines,
		Bounds:     lines.Bounds(),
		Confidence: c,
	}
}

// EvenLines divides bounds into Size equal cells per axis. The remainder
// of the integer division is trimmed from the right and bottom.
func EvenLines(b geometry.Bounds) Lines {
	cw := b.Width() / Size
	ch := b.Height() / Size
	lines := Lines{
		Horizontal: make([]int, Size+1),
		Vertical:   make([]int, Size+1),
	}
	for i := 0; i <= Size; i++ {
		lines.Horizontal[i] = b.Top + i*ch
		lines.Vertical[i] = b.Left + i*cw
	}
	return lines
}
