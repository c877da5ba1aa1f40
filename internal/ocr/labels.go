package ocr

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"

	log "github.com/sirupsen/logrus"

	"bingo-kit/internal/card"
	"bingo-kit/internal/grid"
	"bingo-kit/internal/manifest"
)

// LabelSquares reads every square with l and stores the text in meta.
// Missing squares are skipped. It stops at the first labeler error.
func LabelSquares(ctx context.Context, l Labeler, squares card.Squares, meta *manifest.Metadata) error {
	for _, c := range grid.AllCells() {
		sq, ok := squares[c]
		if !ok {
			continue
		}
		text, err := l.Label(ctx, sq)
		if err != nil {
			return fmt.Errorf("square %s: %w", c, err)
		}
		log.WithFields(log.Fields{"cell": c.String(), "label": text}).Debug("labelled square")
		meta.SetLabel(c, text)
	}
	return nil
}

// Normalize reduces a label to upper-case letters and digits for
// comparison.
func Normalize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Group is a set of cells whose labels match.
type Group struct {
	Label string
	Cells []grid.Cell
}

// Duplicates returns the groups of cells sharing a normalised label,
// ordered by their first cell. Empty labels are ignored.
func Duplicates(meta *manifest.Metadata) []Group {
	return group(meta, func(a, b string) bool { return a == b })
}

// NearDuplicates is like Duplicates but also groups labels whose
// Similarity reaches threshold, to catch OCR misreads of the same text.
func NearDuplicates(meta *manifest.Metadata, threshold float64) []Group {
	return group(meta, func(a, b string) bool { return Similarity(a, b) >= threshold })
}

func group(meta *manifest.Metadata, same func(a, b string) bool) []Group {
	type entry struct {
		norm  string
		group *Group
	}
	var entries []entry
	for _, c := range meta.Cells() {
		sq, _ := meta.Square(c)
		norm := Normalize(sq.Label)
		if norm == "" {
			continue
		}
		var g *Group
		for _, e := range entries {
			if same(e.norm, norm) {
				g = e.group
				break
			}
		}
		if g == nil {
			g = &Group{Label: sq.Label}
		}
		g.Cells = append(g.Cells, c)
		entries = append(entries, entry{norm: norm, group: g})
	}

	seen := map[*Group]bool{}
	var out []Group
	for _, e := range entries {
		if seen[e.group] || len(e.group.Cells) < 2 {
			continue
		}
		seen[e.group] = true
		out = append(out, *e.group)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Cells[0], out[j].Cells[0]
		if a.Row != b.Row {
			return a.Row < b.Row
		}
		return a.Col < b.Col
	})
	return out
}

// Similarity scores two normalised labels from 0 (nothing shared) to 1
// (identical) by their longest common subsequence.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	n := max(len(a), len(b))
	if n == 0 {
		return 1
	}
	return float64(longestCommonSubsequence(a, b)) / float64(n)
}

func longestCommonSubsequence(a, b string) int {
	m, n := len(a), len(b)
	if m == 0 || n == 0 {
		return 0
	}

	prev := make([]int, n+1)
	curr := make([]int, n+1)
	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else {
				curr[j] = max(prev[j], curr[j-1])
			}
		}
		prev, curr = curr, prev
	}
	return prev[n]
}
