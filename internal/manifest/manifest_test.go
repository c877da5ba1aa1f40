package manifest

import (
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bingo-kit/internal/extract"
	"bingo-kit/internal/grid"
	"bingo-kit/pkg/geometry"
)

func testResult() *extract.Result {
	lines := grid.EvenLines(geometry.Bounds{Top: 10, Bottom: 510, Left: 20, Right: 520})
	res := &extract.Result{
		Width:  100,
		Height: 100,
		Mode:   extract.ModeCell,
		Lines:  lines,
		Bounds: lines.Bounds(),
	}
	for _, c := range grid.AllCells() {
		res.Squares = append(res.Squares, extract.Square{
			Cell:   c,
			Image:  image.NewNRGBA(image.Rect(0, 0, 100, 100)),
			Bounds: lines.CellRect(c),
		})
	}
	return res
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	det := &grid.Result{Confidence: grid.ConfidenceRelaxed, Params: grid.RelaxedParams()}
	m := New("card.webp", testResult(), det)
	require.NoError(t, m.Save(dir))

	got, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "card.webp", got.SourceImage)
	assert.Equal(t, 25, got.TotalSquares)
	assert.Equal(t, Size{Width: 100, Height: 100}, got.SquareSize)
	assert.Equal(t, "relaxed", got.Detection.Confidence)
	assert.Equal(t, 2, got.Detection.Pass)
	assert.Equal(t, "cell", got.Mode)

	sq, ok := got.Square(grid.Cell{Row: 1, Col: 2})
	require.True(t, ok)
	r, ok := sq.Rect()
	require.True(t, ok)
	assert.Equal(t, geometry.RectInt{X: 220, Y: 110, Width: 100, Height: 100}, r)
	assert.Equal(t, Dims{Width: 100, Height: 100}, sq.Size)
	assert.Equal(t, m.Lines(), got.Lines())
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.ErrorIs(t, err, ErrNoMetadata)
}

func TestLoadLegacyFormats(t *testing.T) {
	dir := t.TempDir()
	legacy := `{
  "square_size": {"width": 80, "height": 90},
  "grid_bounds": {"top": 0, "bottom": 450, "left": 0, "right": 400},
  "detected_lines": {
    "horizontal": [0, 90, 180, 270, 360, 450],
    "vertical": [0, 80, 160, 240, 320, 400]
  },
  "total_squares": 1,
  "squares": {
    "square_0_0.png": {"row": 0, "col": 0, "size": {"width": 80, "height": 90}, "original_position": [0, 0]},
    "square_0_1.png": {"row": 0, "col": 1, "extraction_bounds": [91, 11, 160, 80], "size": [69, 69]}
  }
}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(legacy), 0644))

	m, err := Load(dir)
	require.NoError(t, err)
	require.NotNil(t, m.GridLines)
	assert.Equal(t, []int{0, 90, 180, 270, 360, 450}, m.Lines().Horizontal)

	first, _ := m.Square(grid.Cell{Row: 0, Col: 0})
	assert.Equal(t, Dims{Width: 80, Height: 90}, first.Size)
	_, ok := first.Rect()
	assert.False(t, ok)

	second, _ := m.Square(grid.Cell{Row: 0, Col: 1})
	assert.Equal(t, Dims{Width: 69, Height: 69}, second.Size)
	assert.Equal(t, []grid.Cell{{Row: 0, Col: 0}, {Row: 0, Col: 1}}, m.Cells())
}

func TestLinesFallBackToBounds(t *testing.T) {
	m := &Metadata{GridBounds: geometry.Bounds{Top: 0, Bottom: 100, Left: 0, Right: 50}}
	assert.Equal(t, []int{0, 10, 20, 30, 40, 50}, m.Lines().Vertical)
}

func TestSetLabel(t *testing.T) {
	m := New("x.png", testResult(), nil)
	assert.Nil(t, m.Detection)

	m.SetLabel(grid.Cell{Row: 3, Col: 4}, "FREE HUGS")
	sq, _ := m.Square(grid.Cell{Row: 3, Col: 4})
	assert.Equal(t, "FREE HUGS", sq.Label)
	assert.NotNil(t, sq.ExtractionBounds)
}

func TestGridConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), GridConfigName)

	cfg := LoadGridConfig(path)
	_, ok := cfg.Lookup("card.png")
	assert.False(t, ok)

	b := geometry.Bounds{Top: 1, Bottom: 2, Left: 3, Right: 4}
	cfg.Put("card.png", b)
	require.NoError(t, cfg.Save())

	again := LoadGridConfig(path)
	got, ok := again.Lookup("card.png")
	require.True(t, ok)
	assert.Equal(t, b, got)
	assert.Equal(t, []string{"card.png"}, again.Images())
}

func TestCorruptGridConfigIsEmpty(t *testing.T) {
	for _, content := range []string{"{not json", "null"} {
		path := filepath.Join(t.TempDir(), GridConfigName)
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		cfg := LoadGridConfig(path)
		assert.Empty(t, cfg.Bounds, content)
		assert.NotPanics(t, func() {
			cfg.Put("a.png", geometry.Bounds{Bottom: 1, Right: 1})
		}, content)
		assert.NoError(t, cfg.Save(), content)
	}
}

func TestKeyIsRelativeBelowWorkingDirectory(t *testing.T) {
	t.Chdir(t.TempDir())
	wd, err := os.Getwd()
	require.NoError(t, err)

	want := filepath.Join("cards", "a.png")
	assert.Equal(t, want, Key(want))
	assert.Equal(t, want, Key(filepath.Join(wd, "cards", "a.png")))

	outside := filepath.Join(filepath.Dir(wd), "b.png")
	assert.Equal(t, outside, Key(outside))
}
