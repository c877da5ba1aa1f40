package extract

import (
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bingo-kit/internal/grid"
	"bingo-kit/pkg/geometry"
)

var (
	testRows = []int{120, 220, 320, 420, 520, 620}
	testCols = []int{60, 156, 252, 348, 444, 540}
)

func testLines() grid.Lines {
	return grid.Lines{Horizontal: testRows, Vertical: testCols}
}

// drawCard renders a white 600×700 card with 2 px black grid lines and a
// red marker in the middle of cell (1,2).
func drawCard() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 600, 700))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	black := image.NewUniform(color.Black)
	for _, y := range testRows {
		draw.Draw(img, image.Rect(testCols[0], y, testCols[5]+2, y+2), black, image.Point{}, draw.Src)
	}
	for _, x := range testCols {
		draw.Draw(img, image.Rect(x, testRows[0], x+2, testRows[5]+2), black, image.Point{}, draw.Src)
	}
	red := image.NewUniform(color.NRGBA{R: 255, A: 255})
	draw.Draw(img, image.Rect(295, 265, 305, 275), red, image.Point{}, draw.Src)
	return img
}

func isRed(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	return r>>8 > 200 && g>>8 < 50 && b>>8 < 50
}

func countDark(img image.Image) int {
	n := 0
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bb, _ := img.At(x, y).RGBA()
			if r>>8 < 100 && g>>8 < 100 && bb>>8 < 100 {
				n++
			}
		}
	}
	return n
}

func TestInteriorExcludesLines(t *testing.T) {
	img := drawCard()
	res, err := Extract(img, testLines(), testLines().Bounds(), DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 2, res.LineWidth)
	assert.Equal(t, 10, res.Buffer)
	assert.Equal(t, 76, res.Width)
	assert.Equal(t, 80, res.Height)
	require.Len(t, res.Squares, 25)
	assert.Zero(t, res.ResizedCount())

	for _, sq := range res.Squares {
		assert.Equal(t, res.Width, sq.Image.Bounds().Dx(), sq.Cell.String())
		assert.Equal(t, res.Height, sq.Image.Bounds().Dy(), sq.Cell.String())
		assert.Zero(t, countDark(sq.Image), "square %s touches a grid line", sq.Cell)
	}

	first := res.Square(grid.Cell{Row: 0, Col: 0})
	require.NotNil(t, first)
	assert.Equal(t, geometry.RectInt{X: 70, Y: 130, Width: 76, Height: 80}, first.Bounds)
}

func TestSquaresFollowTheirCells(t *testing.T) {
	img := drawCard()
	res, err := Extract(img, testLines(), testLines().Bounds(), Options{Mode: ModeCell})
	require.NoError(t, err)

	for _, sq := range res.Squares {
		b := sq.Image.Bounds()
		hasRed := false
		for y := b.Min.Y; y < b.Max.Y && !hasRed; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				if isRed(sq.Image.At(x, y)) {
					hasRed = true
					break
				}
			}
		}
		assert.Equal(t, sq.Cell == grid.Cell{Row: 1, Col: 2}, hasRed, sq.Cell.String())
	}
}

func TestCellAndEvenModes(t *testing.T) {
	img := drawCard()

	cell, err := Extract(img, testLines(), testLines().Bounds(), Options{Mode: ModeCell})
	require.NoError(t, err)
	assert.Equal(t, 96, cell.Width)
	assert.Equal(t, 100, cell.Height)
	assert.Equal(t, [4]int{252, 220, 348, 320}, cell.Square(grid.Cell{Row: 1, Col: 2}).Bounds.Box())

	bounds := geometry.Bounds{Top: 120, Bottom: 624, Left: 60, Right: 543}
	even, err := Extract(img, grid.Lines{}, bounds, Options{Mode: ModeEven})
	require.NoError(t, err)
	assert.Equal(t, 96, even.Width)
	assert.Equal(t, 100, even.Height)
	assert.Equal(t, [4]int{60 + 4*96, 120 + 4*100, 60 + 5*96, 120 + 5*100}, even.Squares[24].Bounds.Box())
	assert.Zero(t, even.ResizedCount())
}

func TestUnevenLinesGiveUniformSquares(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 300, 300))
	lines := grid.Lines{
		Horizontal: []int{0, 50, 110, 160, 220, 270},
		Vertical:   []int{0, 60, 100, 160, 210, 270},
	}
	res, err := Extract(img, lines, lines.Bounds(), Options{Mode: ModeCell})
	require.NoError(t, err)

	assert.Equal(t, 54, res.Width)
	assert.Equal(t, 54, res.Height)
	assert.Positive(t, res.ResizedCount())
	for _, sq := range res.Squares {
		assert.Equal(t, image.Rect(0, 0, 54, 54), sq.Image.Bounds(), sq.Cell.String())
	}
}

func TestTargetSizeOverride(t *testing.T) {
	img := drawCard()
	res, err := Extract(img, testLines(), testLines().Bounds(), Options{Mode: ModeCell, TargetWidth: 40, TargetHeight: 30})
	require.NoError(t, err)
	assert.Equal(t, 25, res.ResizedCount())
	for _, sq := range res.Squares {
		assert.Equal(t, image.Rect(0, 0, 40, 30), sq.Image.Bounds())
	}
}

func TestExtractErrors(t *testing.T) {
	img := drawCard()

	_, err := Extract(img, grid.Lines{Horizontal: testRows[:4], Vertical: testCols}, geometry.Bounds{}, DefaultOptions())
	assert.ErrorIs(t, err, grid.ErrInvalidLines)

	tight := grid.Lines{
		Horizontal: []int{0, 15, 30, 45, 60, 75},
		Vertical:   []int{0, 15, 30, 45, 60, 75},
	}
	_, err = Extract(img, tight, tight.Bounds(), Options{Mode: ModeInterior, LineWidth: 2, MinBuffer: 10})
	assert.Error(t, err)

	_, err = Extract(img, grid.Lines{}, geometry.Bounds{}, Options{Mode: ModeEven})
	assert.Error(t, err)
}

func TestEstimateLineWidth(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 100, 100))
	lines := grid.Lines{
		Horizontal: []int{10, 25, 40, 55, 70, 85},
		Vertical:   []int{10, 25, 40, 55, 70, 85},
	}
	assert.Equal(t, 8, EstimateLineWidth(gray, lines), "all-dark image never turns light")

	draw.Draw(gray, gray.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(gray, image.Rect(10, 0, 14, 100), image.NewUniform(color.Black), image.Point{}, draw.Src)
	assert.Equal(t, 4, EstimateLineWidth(gray, lines))
}

func TestSaveWritesAllSquares(t *testing.T) {
	res, err := Extract(drawCard(), testLines(), testLines().Bounds(), DefaultOptions())
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "squares")
	require.NoError(t, res.Save(dir))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 25)
	assert.FileExists(t, filepath.Join(dir, "square_4_4.png"))
}

func TestParseMode(t *testing.T) {
	for _, m := range []Mode{ModeInterior, ModeCell, ModeEven} {
		got, err := ParseMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
	_, err := ParseMode("diagonal")
	assert.Error(t, err)
}
