package calibrate

import (
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"
	"testing"
	"time"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bingo-kit/internal/grid"
	cardimage "bingo-kit/internal/image"
	"bingo-kit/internal/manifest"
	"bingo-kit/pkg/colorutil"
	"bingo-kit/pkg/geometry"
	"bingo-kit/ui/prefs"
)

// writeCard saves a white 600x700 card with 3 px black lines at
// y=120+100i and x=60+96i.
func writeCard(t *testing.T, path string) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 600, 700))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	black := image.NewUniform(color.Black)
	for i := 0; i <= grid.Size; i++ {
		y, x := 120+100*i, 60+96*i
		draw.Draw(img, image.Rect(60, y, 543, y+3), black, image.Point{}, draw.Src)
		draw.Draw(img, image.Rect(x, 120, x+3, 623), black, image.Point{}, draw.Src)
	}
	require.NoError(t, cardimage.SavePNG(path, img))
}

func newCalibrator(t *testing.T) *Calibrator {
	t.Helper()
	a := test.NewApp()
	t.Cleanup(a.Quit)
	p := prefs.LoadFrom(filepath.Join(t.TempDir(), "preferences.json"))
	c := New(a, p, manifest.GridConfigName, grid.DefaultParams())
	t.Cleanup(c.stopWatching)
	return c
}

func TestRenderDrawsGrid(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 200, 200))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	out := Render(img, geometry.Bounds{Top: 20, Bottom: 170, Left: 10, Right: 160})

	assert.Equal(t, colorutil.Red, out.RGBAAt(80, 20))
	assert.Equal(t, colorutil.Red, out.RGBAAt(80, 21))
	assert.Equal(t, colorutil.Blue, out.RGBAAt(80, 50))
	assert.Equal(t, colorutil.Red, out.RGBAAt(10, 100))
	assert.Equal(t, colorutil.Blue, out.RGBAAt(40, 100))
	assert.Equal(t, colorutil.Red, out.RGBAAt(100, 170))
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, out.RGBAAt(5, 5))
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, img.RGBAAt(80, 20), "source untouched")
}

func TestRenderIgnoresEmptyBounds(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 20, 20))
	out := Render(img, geometry.Bounds{Top: 10, Bottom: 5})
	assert.Equal(t, img.Pix, out.Pix)
}

func TestScaleBounds(t *testing.T) {
	b := geometry.Bounds{Top: 100, Bottom: 300, Left: 50, Right: 251}
	assert.Equal(t, b, scaleBounds(b, 1))
	assert.Equal(t, geometry.Bounds{Top: 50, Bottom: 150, Left: 25, Right: 126}, scaleBounds(b, 0.5))
}

func TestOpenDetectAdjustSave(t *testing.T) {
	t.Chdir(t.TempDir())
	writeCard(t, "card.png")
	c := newCalibrator(t)

	require.NoError(t, c.Open("card.png"))
	assert.Equal(t, grid.ConfidenceDetected, c.Confidence())
	b := c.Bounds()
	assert.InDelta(t, 120, b.Top, 1)
	assert.InDelta(t, 620, b.Bottom, 1)
	assert.InDelta(t, 60, b.Left, 1)
	assert.InDelta(t, 540, b.Right, 1)
	assert.Equal(t, float64(b.Top), c.sliders[edgeTop].Value)
	assert.Equal(t, "card.png", c.prefs.String(prefs.KeyLastImage))

	c.onSlider(edgeTop, 125)
	assert.Equal(t, 125, c.Bounds().Top)
	assert.Equal(t, grid.ConfidenceManual, c.Confidence())

	require.NoError(t, c.Save())
	saved, ok := manifest.LoadGridConfig(manifest.GridConfigName).Lookup("card.png")
	require.True(t, ok)
	assert.Equal(t, c.Bounds(), saved)

	// Reopening prefers the saved bounds over detection.
	require.NoError(t, c.Open("card.png"))
	assert.Equal(t, grid.ConfidenceSaved, c.Confidence())
	assert.Equal(t, 125, c.Bounds().Top)
}

func TestSaveRejectsEmptyBounds(t *testing.T) {
	t.Chdir(t.TempDir())
	c := newCalibrator(t)
	assert.ErrorIs(t, c.Save(), errNoImage)
	assert.ErrorIs(t, c.Detect(), errNoImage)

	writeCard(t, "card.png")
	require.NoError(t, c.Open("card.png"))
	c.onSlider(edgeBottom, 50)
	assert.Error(t, c.Save())
	assert.NoFileExists(t, manifest.GridConfigName)
}

func TestWatcherReportsEachChangeOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "card.png")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	w, err := NewWatcher(path, 10*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, w.Changed())

	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, later, later))
	assert.True(t, w.Changed())
	assert.False(t, w.Changed())

	changed := make(chan struct{}, 1)
	w.OnChange(func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	w.Start()
	defer w.Stop()

	even := later.Add(time.Minute)
	require.NoError(t, os.Chtimes(path, even, even))
	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("change not reported")
	}
}
