package verify

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bingo-kit/internal/background"
	"bingo-kit/internal/card"
	"bingo-kit/internal/extract"
	"bingo-kit/internal/grid"
	"bingo-kit/internal/manifest"
)

func sourceCard() (*image.NRGBA, grid.Lines) {
	lines := grid.Lines{
		Horizontal: []int{20, 70, 120, 170, 220, 270},
		Vertical:   []int{10, 60, 110, 160, 210, 260},
	}
	img := image.NewNRGBA(image.Rect(0, 0, 280, 300))
	for y := 0; y < 300; y++ {
		for x := 0; x < 280; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: uint8(x ^ y), A: 255})
		}
	}
	return img, lines
}

func extracted(t *testing.T) (*image.NRGBA, card.Squares, *manifest.Metadata) {
	t.Helper()
	src, lines := sourceCard()
	res, err := extract.Extract(src, lines, lines.Bounds(), extract.Options{Mode: extract.ModeCell})
	require.NoError(t, err)

	squares := make(card.Squares)
	for _, sq := range res.Squares {
		squares[sq.Cell] = sq.Image
	}
	return src, squares, manifest.New("src.png", res, nil)
}

func isRed(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	return r>>8 > 200 && g>>8 < 60 && b>>8 < 60
}

func TestGrid(t *testing.T) {
	_, squares, meta := extracted(t)
	out := Grid(squares, meta.SquareSize)

	assert.Equal(t, image.Rect(0, 0, (50+Padding)*5+Padding, (50+Padding)*5+Padding), out.Bounds())
	assert.Equal(t, color.RGBA{A: 255}, out.RGBAAt(Padding, Padding), "border")
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, out.RGBAAt(0, 0), "padding")

	labelled := false
	for y := Padding + 5; y < Padding+5+13 && !labelled; y++ {
		for x := Padding + 5; x < Padding+5+28; x++ {
			if isRed(out.At(x, y)) {
				labelled = true
				break
			}
		}
	}
	assert.True(t, labelled, "R0C0 label")
}

func TestGridSkipsMissingSquares(t *testing.T) {
	_, squares, meta := extracted(t)
	delete(squares, grid.Cell{Row: 4, Col: 4})

	out := Grid(squares, meta.SquareSize)
	at := image.Pt(Padding+4*(50+Padding)+25, Padding+4*(50+Padding)+25)
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, out.RGBAAt(at.X, at.Y))
}

func TestCompare(t *testing.T) {
	src, squares, meta := extracted(t)
	out := Compare(src, squares, meta)

	assert.Equal(t, image.Rect(0, 0, 280*2+Gap, 300), out.Bounds())
	assert.Equal(t, color.RGBA{R: 211, G: 211, B: 211, A: 255}, out.RGBAAt(285, 150), "gap")

	// Inside a cell the reconstruction matches the original.
	want := src.NRGBAAt(100, 100)
	got := out.RGBAAt(280+Gap+100, 100)
	assert.Equal(t, []uint8{want.R, want.G, want.B}, []uint8{got.R, got.G, got.B})
	// Outside the grid the reconstruction is white.
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, out.RGBAAt(280+Gap+275, 295))
}

func TestRoundTripExact(t *testing.T) {
	src, squares, meta := extracted(t)
	bg := background.Transparent(src, meta.GridBounds)

	rep, err := RoundTrip(src, bg, squares, meta)
	require.NoError(t, err)
	assert.True(t, rep.Exact())
	assert.Equal(t, 25*50*50, rep.Checked)
}

func TestRoundTripDetectsDamage(t *testing.T) {
	src, squares, meta := extracted(t)
	bg := background.Transparent(src, meta.GridBounds)

	damaged := image.NewNRGBA(image.Rect(0, 0, 50, 50))
	draw.Draw(damaged, damaged.Bounds(), squares[grid.Cell{Row: 0, Col: 1}], image.Point{}, draw.Src)
	damaged.SetNRGBA(3, 3, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	squares[grid.Cell{Row: 0, Col: 1}] = damaged
	delete(squares, grid.Cell{Row: 3, Col: 3})

	rep, err := RoundTrip(src, bg, squares, meta)
	require.NoError(t, err)
	assert.False(t, rep.Exact())
	assert.Equal(t, []grid.Cell{{Row: 3, Col: 3}}, rep.Missing)
	assert.GreaterOrEqual(t, rep.PerCell[grid.Cell{Row: 0, Col: 1}], 1)
	assert.Positive(t, rep.MaxDelta)
}

func TestUniformSize(t *testing.T) {
	_, squares, meta := extracted(t)
	assert.NoError(t, UniformSize(squares, meta.SquareSize))

	squares[grid.Cell{Row: 2, Col: 2}] = image.NewNRGBA(image.Rect(0, 0, 10, 10))
	assert.Error(t, UniformSize(squares, meta.SquareSize))
}
