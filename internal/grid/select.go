package grid

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Selection is the outcome of picking evenly spaced lines from candidates.
type Selection struct {
	Lines    []int   // chosen coordinates, strictly increasing
	Spacing  float64 // mean gap between consecutive lines
	Variance float64 // population variance of the gaps
}

// SelectLines picks count evenly spaced lines from ordered candidates.
// Candidates closer than minSpacing to the previously kept candidate are
// dropped first; then every window of count consecutive survivors is
// scored by the variance of its gaps and the lowest wins (earliest on
// ties). ok is false when fewer than count candidates survive.
func SelectLines(candidates []int, minSpacing, count int) (Selection, bool) {
	if count < 2 || len(candidates) < count {
		return Selection{}, false
	}

	filtered := []int{candidates[0]}
	for _, c := range candidates[1:] {
		if c-filtered[len(filtered)-1] >= minSpacing {
			filtered = append(filtered, c)
		}
	}
	if len(filtered) < count {
		return Selection{}, false
	}

	best := Selection{Variance: math.Inf(1)}
	gaps := make([]float64, count-1)
	for start := 0; start+count <= len(filtered); start++ {
		window := filtered[start : start+count]
		for i := range gaps {
			gaps[i] = float64(window[i+1] - window[i])
		}
		mean, variance := stat.PopMeanVariance(gaps, nil)
		if variance < best.Variance {
			best = Selection{
				Lines:    append([]int(nil), window...),
				Spacing:  mean,
				Variance: variance,
			}
		}
	}
	return best, true
}

// Gaps returns the distances between consecutive lines.
func Gaps(lines []int) []float64 {
	if len(lines) < 2 {
		return nil
	}
	gaps := make([]float64, len(lines)-1)
	for i := range gaps {
		gaps[i] = float64(lines[i+1] - lines[i])
	}
	return gaps
}

// MeanSpacing returns the mean gap between consecutive lines.
func MeanSpacing(lines []int) float64 {
	gaps := Gaps(lines)
	if len(gaps) == 0 {
		return 0
	}
	return stat.Mean(gaps, nil)
}
