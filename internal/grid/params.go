package grid

import "fmt"

// ScanMethod selects how a row or column qualifies as a line candidate.
type ScanMethod int

const (
	// MethodDarkRun qualifies rows/columns with enough dark pixels and a
	// long enough consecutive dark run.
	MethodDarkRun ScanMethod = iota
	// MethodEdge qualifies rows/columns with many strong brightness
	// transitions against the next row/column.
	MethodEdge
)

func (m ScanMethod) String() string {
	switch m {
	case MethodDarkRun:
		return "dark-run"
	case MethodEdge:
		return "edge"
	default:
		return "unknown"
	}
}

// ParseScanMethod converts a method name to a ScanMethod.
func ParseScanMethod(s string) (ScanMethod, error) {
	switch s {
	case "", "dark-run", "darkrun":
		return MethodDarkRun, nil
	case "edge":
		return MethodEdge, nil
	}
	return MethodDarkRun, fmt.Errorf("unknown scan method %q", s)
}

// MergeMode selects how neighbouring candidates collapse into one line.
type MergeMode int

const (
	// MergeFirst keeps the first coordinate of each cluster.
	MergeFirst MergeMode = iota
	// MergeMean keeps the rounded mean of each cluster.
	MergeMean
)

func (m MergeMode) String() string {
	if m == MergeMean {
		return "mean"
	}
	return "first"
}

// DetectionParams holds every tunable threshold of the line detector.
// See DefaultParams for the first pass and RelaxedParams for the retry.
type DetectionParams struct {
	Method ScanMethod

	// A pixel is dark when its gray level is below DarkThreshold.
	DarkThreshold uint8

	// EdgeDelta is the minimum gray difference counted as a transition (MethodEdge).
	EdgeDelta int

	// Sample windows as fractions of the image size. Rows are sampled
	// across [RowSampleStart, RowSampleEnd) of the width; columns across
	// [ColSampleStart, ColSampleEnd) of the height.
	RowSampleStart, RowSampleEnd float64
	ColSampleStart, ColSampleEnd float64

	// Fractions of the sampled span that the dark count and the longest
	// dark run must exceed.
	MinDarkFraction float64
	MinRunFraction  float64

	// Candidates closer than MergeDistance to the previous one are merged.
	MergeDistance int
	Merge         MergeMode

	// Minimum spacing between selected lines, per axis (pixels).
	MinSpacingRows int
	MinSpacingCols int

	// LineCount is the number of lines per axis (cells + 1).
	LineCount int
}

// DefaultParams returns the first-pass thresholds, tuned for dark grid
// lines on a light card.
func DefaultParams() DetectionParams {
	return DetectionParams{
		Method:          MethodDarkRun,
		DarkThreshold:   180,
		EdgeDelta:       30,
		RowSampleStart:  0.10,
		RowSampleEnd:    0.90,
		ColSampleStart:  0.15,
		ColSampleEnd:    0.85,
		MinDarkFraction: 0.5,
		MinRunFraction:  0.6,
		MergeDistance:   30,
		Merge:           MergeFirst,
		MinSpacingRows:  100,
		MinSpacingCols:  80,
		LineCount:       Size + 1,
	}
}

// RelaxedParams returns the second-pass thresholds used when the first
// pass does not find enough lines.
func RelaxedParams() DetectionParams {
	return DefaultParams().Relaxed()
}

// Relaxed returns a copy of p with the looser second-pass thresholds,
// keeping the method, merge mode and line count.
func (p DetectionParams) Relaxed() DetectionParams {
	p.DarkThreshold = 200
	p.RowSampleStart, p.RowSampleEnd = 0.05, 0.95
	p.ColSampleStart, p.ColSampleEnd = 0.10, 0.90
	p.MinDarkFraction = 0.4
	p.MinRunFraction = 0.5
	p.MergeDistance = 20
	p.MinSpacingRows = 80
	p.MinSpacingCols = 60
	return p
}

// WithThreshold returns a copy of p with a custom dark threshold.
func (p DetectionParams) WithThreshold(t uint8) DetectionParams {
	p.DarkThreshold = t
	return p
}

// WithMethod returns a copy of p using the given scan method.
// MethodEdge clusters with MergeMean since a line produces two edges.
func (p DetectionParams) WithMethod(m ScanMethod) DetectionParams {
	p.Method = m
	if m == MethodEdge {
		p.Merge = MergeMean
	}
	return p
}

// WithSpacing returns a copy of p with custom minimum line spacings.
func (p DetectionParams) WithSpacing(rows, cols int) DetectionParams {
	p.MinSpacingRows = rows
	p.MinSpacingCols = cols
	return p
}

// WithSampleWindow returns a copy of p with custom sample windows.
func (p DetectionParams) WithSampleWindow(rowStart, rowEnd, colStart, colEnd float64) DetectionParams {
	p.RowSampleStart, p.RowSampleEnd = rowStart, rowEnd
	p.ColSampleStart, p.ColSampleEnd = colStart, colEnd
	return p
}

// Validate checks that all fractions and counts are in range.
func (p DetectionParams) Validate() error {
	window := func(name string, start, end float64) error {
		if start < 0 || end > 1 || start >= end {
			return fmt.Errorf("%s sample window [%.2f, %.2f) out of range", name, start, end)
		}
		return nil
	}
	if err := window("row", p.RowSampleStart, p.RowSampleEnd); err != nil {
		return err
	}
	if err := window("column", p.ColSampleStart, p.ColSampleEnd); err != nil {
		return err
	}
	if p.MinDarkFraction <= 0 || p.MinDarkFraction > 1 {
		return fmt.Errorf("dark fraction %.2f out of range", p.MinDarkFraction)
	}
	if p.MinRunFraction < 0 || p.MinRunFraction > 1 {
		return fmt.Errorf("run fraction %.2f out of range", p.MinRunFraction)
	}
	if p.MergeDistance < 0 || p.MinSpacingRows < 0 || p.MinSpacingCols < 0 {
		return fmt.Errorf("negative spacing")
	}
	if p.LineCount < 2 {
		return fmt.Errorf("line count %d too small", p.LineCount)
	}
	return nil
}
