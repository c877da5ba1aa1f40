package grid

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bingo-kit/pkg/geometry"
)

// drawCard renders a white card with black grid lines of the given
// thickness at the given coordinates.
func drawCard(w, h int, rows, cols []int, thickness int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	black := image.NewUniform(color.Black)

	left, right := cols[0], cols[len(cols)-1]+thickness
	top, bottom := rows[0], rows[len(rows)-1]+thickness
	for _, y := range rows {
		draw.Draw(img, image.Rect(left, y, right, y+thickness), black, image.Point{}, draw.Src)
	}
	for _, x := range cols {
		draw.Draw(img, image.Rect(x, top, x+thickness, bottom), black, image.Point{}, draw.Src)
	}
	return img
}

func spaced(start, step int) []int {
	out := make([]int, Size+1)
	for i := range out {
		out[i] = start + i*step
	}
	return out
}

func assertLinesNear(t *testing.T, want, got []int, tol int) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.InDelta(t, want[i], got[i], float64(tol), "line %d", i)
	}
}

func TestDetectEvenGrid(t *testing.T) {
	rows := spaced(120, 100)
	cols := spaced(60, 96)
	img := drawCard(600, 700, rows, cols, 3)

	res, err := Detect(img, DefaultParams())
	require.NoError(t, err)

	assert.Equal(t, ConfidenceDetected, res.Confidence)
	assertLinesNear(t, rows, res.Lines.Horizontal, 1)
	assertLinesNear(t, cols, res.Lines.Vertical, 1)
	assert.NoError(t, res.Lines.Validate())
	assert.InDelta(t, 120, res.Bounds.Top, 1)
	assert.InDelta(t, 540, res.Bounds.Right, 1)
	assert.InDelta(t, 0, res.RowVariance, 0.01)
}

func TestDetectEdgeMethod(t *testing.T) {
	rows := spaced(120, 100)
	cols := spaced(60, 96)
	img := drawCard(600, 700, rows, cols, 3)

	res, err := Detect(img, DefaultParams().WithMethod(MethodEdge))
	require.NoError(t, err)

	assert.Equal(t, ConfidenceDetected, res.Confidence)
	// Edge clusters centre on the line, one pixel inside a 3 px stroke.
	assertLinesNear(t, rows, res.Lines.Horizontal, 1)
	assertLinesNear(t, cols, res.Lines.Vertical, 1)
}

func TestDetectFallsBackToRelaxedPass(t *testing.T) {
	// 90 px row spacing is below the first pass minimum of 100.
	rows := spaced(120, 90)
	cols := spaced(60, 96)
	img := drawCard(600, 700, rows, cols, 3)

	res, err := Detect(img, DefaultParams())
	require.NoError(t, err)

	assert.Equal(t, ConfidenceRelaxed, res.Confidence)
	assert.Equal(t, RelaxedParams().MinSpacingRows, res.Params.MinSpacingRows)
	assertLinesNear(t, rows, res.Lines.Horizontal, 1)
	assertLinesNear(t, cols, res.Lines.Vertical, 1)
}

func TestDetectBlankImageUsesFallback(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 500, 400))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	res, err := Detect(img, DefaultParams())
	require.NoError(t, err)

	assert.Equal(t, ConfidenceFallback, res.Confidence)
	assert.False(t, res.Confidence.Trusted())
	assert.Equal(t, geometry.Bounds{Top: 60, Bottom: 360, Left: 50, Right: 450}, res.Bounds)
	assert.Equal(t, []int{60, 120, 180, 240, 300, 360}, res.Lines.Horizontal)
	assert.Equal(t, []int{50, 130, 210, 290, 370, 450}, res.Lines.Vertical)
}

func TestDetectEmptyImage(t *testing.T) {
	_, err := Detect(image.NewGray(image.Rect(0, 0, 0, 0)), DefaultParams())
	assert.ErrorIs(t, err, ErrEmptyImage)
}

func TestDetectRejectsBadParams(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 10, 10))
	_, err := Detect(img, DefaultParams().WithSampleWindow(0.9, 0.1, 0.1, 0.9))
	assert.Error(t, err)
}

func TestEvenLinesTrimsRemainder(t *testing.T) {
	lines := EvenLines(geometry.Bounds{Top: 0, Bottom: 103, Left: 10, Right: 62})
	assert.Equal(t, []int{0, 20, 40, 60, 80, 100}, lines.Horizontal)
	assert.Equal(t, []int{10, 20, 30, 40, 50, 60}, lines.Vertical)
}

func TestFromBoundsKeepsConfidence(t *testing.T) {
	res := FromBounds(geometry.Bounds{Top: 0, Bottom: 50, Left: 0, Right: 50}, ConfidenceManual)
	assert.Equal(t, ConfidenceManual, res.Confidence)
	assert.Equal(t, geometry.Bounds{Top: 0, Bottom: 50, Left: 0, Right: 50}, res.Bounds)
}

func TestLinesValidate(t *testing.T) {
	good := Lines{Horizontal: spaced(0, 10), Vertical: spaced(0, 10)}
	assert.NoError(t, good.Validate())

	short := Lines{Horizontal: []int{0, 10, 20}, Vertical: spaced(0, 10)}
	assert.ErrorIs(t, short.Validate(), ErrInvalidLines)

	flat := Lines{Horizontal: spaced(0, 10), Vertical: []int{0, 10, 10, 20, 30, 40}}
	assert.ErrorIs(t, flat.Validate(), ErrInvalidLines)
}

func TestLinesCellRect(t *testing.T) {
	lines := Lines{Horizontal: spaced(100, 50), Vertical: spaced(10, 40)}
	r := lines.CellRect(Cell{Row: 1, Col: 2})
	assert.Equal(t, geometry.RectInt{X: 90, Y: 150, Width: 40, Height: 50}, r)
}

func TestSelectLines(t *testing.T) {
	tests := []struct {
		name       string
		candidates []int
		minSpacing int
		want       []int
		ok         bool
	}{
		{"spurious leading candidate", []int{5, 100, 200, 300, 400, 500, 600}, 50, []int{100, 200, 300, 400, 500, 600}, true},
		{"too close dropped", []int{100, 120, 200, 300, 400, 500, 600}, 50, []int{100, 200, 300, 400, 500, 600}, true},
		{"earliest window wins ties", []int{0, 10, 20, 30, 40, 50, 60}, 5, []int{0, 10, 20, 30, 40, 50}, true},
		{"not enough candidates", []int{1, 2, 3}, 0, nil, false},
		{"spacing leaves too few", []int{0, 10, 20, 30, 40, 50}, 15, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel, ok := SelectLines(tt.candidates, tt.minSpacing, Size+1)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, sel.Lines)
		})
	}
}

func TestMeanSpacing(t *testing.T) {
	assert.InDelta(t, 100, MeanSpacing([]int{0, 100, 200}), 1e-9)
	assert.Zero(t, MeanSpacing([]int{7}))
	assert.Nil(t, Gaps(nil))
}

func TestMergeCandidates(t *testing.T) {
	raw := []int{10, 11, 12, 40, 41, 80}
	assert.Equal(t, []int{10, 40, 80}, mergeCandidates(raw, 5, MergeFirst))
	assert.Equal(t, []int{11, 41, 80}, mergeCandidates(raw, 5, MergeMean))

	// Distance is measured from the first member, so clusters do not chain.
	assert.Equal(t, []int{0, 40}, mergeCandidates([]int{0, 20, 40}, 30, MergeFirst))
	assert.Nil(t, mergeCandidates(nil, 5, MergeFirst))
}

func TestParams(t *testing.T) {
	p := DefaultParams()
	require.NoError(t, p.Validate())
	assert.Equal(t, uint8(180), p.DarkThreshold)

	r := p.Relaxed()
	assert.Equal(t, uint8(200), r.DarkThreshold)
	assert.Equal(t, 20, r.MergeDistance)
	assert.Equal(t, 80, r.MinSpacingRows)
	assert.Equal(t, 60, r.MinSpacingCols)
	assert.Equal(t, p.LineCount, r.LineCount)
	require.NoError(t, r.Validate())

	assert.Equal(t, MergeMean, p.WithMethod(MethodEdge).Merge)
	assert.Equal(t, MergeFirst, p.Merge, "builders must not mutate the receiver")

	bad := p
	bad.MinDarkFraction = 0
	assert.Error(t, bad.Validate())
	bad = p
	bad.LineCount = 1
	assert.Error(t, bad.Validate())
}

func TestParseScanMethod(t *testing.T) {
	m, err := ParseScanMethod("edge")
	require.NoError(t, err)
	assert.Equal(t, MethodEdge, m)

	m, err = ParseScanMethod("")
	require.NoError(t, err)
	assert.Equal(t, MethodDarkRun, m)

	_, err = ParseScanMethod("hough")
	assert.Error(t, err)
}

func TestConfidenceRoundTrip(t *testing.T) {
	for c := ConfidenceDetected; c <= ConfidenceSaved; c++ {
		got, err := ParseConfidence(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
	_, err := ParseConfidence("guess")
	assert.Error(t, err)
}

func TestCells(t *testing.T) {
	cells := AllCells()
	require.Len(t, cells, Size*Size)
	assert.Equal(t, Cell{Row: 0, Col: 1}, cells[1])
	assert.Equal(t, Cell{Row: 4, Col: 4}, cells[24])

	for _, c := range cells {
		got, err := ParseCellFileName(c.FileName())
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}

	for _, name := range []string{"square_5_0.png", "square_1_2.jpg", "card_1_2.png", "square_1_2.png.bak"} {
		_, err := ParseCellFileName(name)
		assert.ErrorIs(t, err, ErrBadCellName, name)
	}

	c, err := ParseCell("2,3")
	require.NoError(t, err)
	assert.Equal(t, Cell{Row: 2, Col: 3}, c)
	_, err = ParseCell("7,0")
	assert.Error(t, err)
}
