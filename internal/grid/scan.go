package grid

import (
	"image"
	"math"
)

// Axis selects which family of lines is scanned.
type Axis int

const (
	// Horizontal lines are found by scanning rows.
	Horizontal Axis = iota
	// Vertical lines are found by scanning columns.
	Vertical
)

func (a Axis) String() string {
	if a == Vertical {
		return "vertical"
	}
	return "horizontal"
}

// ScanRows returns merged y coordinates of rows that look like horizontal
// grid lines.
func ScanRows(gray *image.Gray, params DetectionParams) []int {
	return scan(gray, Horizontal, params)
}

// ScanCols returns merged x coordinates of columns that look like vertical
// grid lines.
func ScanCols(gray *image.Gray, params DetectionParams) []int {
	return scan(gray, Vertical, params)
}

// scan walks every line of the requested axis. For a row, the sampled span
// runs across the width; for a column, across the height.
func scan(gray *image.Gray, axis Axis, params DetectionParams) []int {
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()

	lines, length := h, w
	start, end := params.RowSampleStart, params.RowSampleEnd
	if axis == Vertical {
		lines, length = w, h
		start, end = params.ColSampleStart, params.ColSampleEnd
	}

	s0 := int(float64(length) * start)
	s1 := int(float64(length) * end)
	span := s1 - s0
	if span <= 0 {
		return nil
	}

	at := func(line, pos int) uint8 {
		if axis == Vertical {
			return gray.Pix[pos*gray.Stride+line]
		}
		return gray.Pix[line*gray.Stride+pos]
	}

	var raw []int
	for line := 0; line < lines; line++ {
		if params.Method == MethodEdge {
			if line+1 >= lines {
				break
			}
			transitions := 0
			for pos := s0; pos < s1; pos++ {
				d := int(at(line, pos)) - int(at(line+1, pos))
				if d < 0 {
					d = -d
				}
				if d > params.EdgeDelta {
					transitions++
				}
			}
			if float64(transitions) > float64(span)*params.MinDarkFraction {
				raw = append(raw, line)
			}
			continue
		}

		dark, run, longest := 0, 0, 0
		for pos := s0; pos < s1; pos++ {
			if at(line, pos) < params.DarkThreshold {
				dark++
				run++
				if run > longest {
					longest = run
				}
			} else {
				run = 0
			}
		}
		if float64(dark) > float64(span)*params.MinDarkFraction &&
			float64(longest) > float64(span)*params.MinRunFraction {
			raw = append(raw, line)
		}
	}

	return mergeCandidates(raw, params.MergeDistance, params.Merge)
}

// mergeCandidates collapses runs of nearby coordinates. A coordinate joins
// the current cluster when it is at most dist past the cluster's first
// member.
func mergeCandidates(raw []int, dist int, mode MergeMode) []int {
	if len(raw) == 0 {
		return nil
	}

	var out []int
	cluster := []int{raw[0]}
	flush := func() {
		if mode == MergeMean {
			sum := 0
			for _, v := range cluster {
				sum += v
			}
			out = append(out, int(math.Round(float64(sum)/float64(len(cluster)))))
		} else {
			out = append(out, cluster[0])
		}
	}

	for _, v := range raw[1:] {
		if v-cluster[0] <= dist {
			cluster = append(cluster, v)
			continue
		}
		flush()
		cluster = []int{v}
	}
	flush()
	return out
}
