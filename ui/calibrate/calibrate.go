// Package calibrate provides a window for adjusting the grid bounds of a
// card by hand and saving them for the split command.
package calibrate

import (
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
	"github.com/disintegration/imaging"
	log "github.com/sirupsen/logrus"

	"bingo-kit/internal/grid"
	cardimage "bingo-kit/internal/image"
	"bingo-kit/internal/manifest"
	"bingo-kit/pkg/geometry"
	"bingo-kit/ui/prefs"
)

const (
	appTitle = "Bingo Grid Calibrator"

	// previewMax caps the preview's longer side; the sliders still work in
	// source pixels.
	previewMax = 1000

	watchInterval = 2 * time.Second
)

var errNoImage = errors.New("no image open")

type edge int

const (
	edgeTop edge = iota
	edgeBottom
	edgeLeft
	edgeRight
	edgeCount
)

var edgeNames = [edgeCount]string{"Top", "Bottom", "Left", "Right"}

// Calibrator is the calibration window.
type Calibrator struct {
	fyne.Window
	prefs      *prefs.Prefs
	gridConfig string
	params     grid.DetectionParams

	path       string
	src        image.Image
	preview    image.Image
	scale      float64 // preview pixels per source pixel
	bounds     geometry.Bounds
	confidence grid.Confidence

	view    *canvas.Image
	sliders [edgeCount]*widget.Slider
	values  [edgeCount]*widget.Label
	status  *widget.Label
	syncing bool
	watcher *Watcher
}

// New creates the calibrator window. gridConfig is the grid config file
// Save writes to; params drive the Detect button.
func New(fyneApp fyne.App, p *prefs.Prefs, gridConfig string, params grid.DetectionParams) *Calibrator {
	win := fyneApp.NewWindow(appTitle)

	c := &Calibrator{
		Window:     win,
		prefs:      p,
		gridConfig: gridConfig,
		params:     params,
		scale:      1,
	}

	c.setupUI()
	c.setupMenus()

	win.Resize(fyne.NewSize(
		float32(p.FloatWithFallback(prefs.KeyWindowWidth, 1100)),
		float32(p.FloatWithFallback(prefs.KeyWindowHeight, 800)),
	))
	win.SetCloseIntercept(func() {
		c.stopWatching()
		c.savePreferences()
		win.Close()
	})
	return c
}

func (c *Calibrator) setupUI() {
	c.view = canvas.NewImageFromImage(image.NewRGBA(image.Rect(0, 0, 1, 1)))
	c.view.FillMode = canvas.ImageFillContain
	c.view.SetMinSize(fyne.NewSize(400, 400))

	c.status = widget.NewLabel("Open a card image to begin")

	sliders := container.NewVBox()
	for i := range c.sliders {
		e := edge(i)
		s := widget.NewSlider(0, 1)
		s.Step = 1
		s.OnChanged = func(v float64) {
			c.onSlider(e, v)
		}
		c.sliders[i] = s
		c.values[i] = widget.NewLabel("0")
		sliders.Add(container.NewBorder(nil, nil, widget.NewLabel(edgeNames[i]), c.values[i], s))
	}

	buttons := container.NewHBox(
		widget.NewButton("Open...", c.onOpen),
		widget.NewButton("Detect", c.onDetect),
		widget.NewButton("Save", c.onSave),
	)

	side := container.NewVBox(buttons, widget.NewSeparator(), sliders)
	split := container.NewHSplit(side, c.view)
	split.SetOffset(0.3)

	c.SetContent(container.NewBorder(
		nil,                           // top
		container.NewPadded(c.status), // bottom
		nil,                           // left
		nil,                           // right
		split,                         // center
	))
}

func (c *Calibrator) setupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open Image...", c.onOpen),
		fyne.NewMenuItem("Save Bounds", c.onSave),
	)
	gridMenu := fyne.NewMenu("Grid",
		fyne.NewMenuItem("Detect", c.onDetect),
		fyne.NewMenuItem("Default Margins", c.onFallback),
	)
	c.SetMainMenu(fyne.NewMainMenu(fileMenu, gridMenu))
}

// Open loads the image at path. Saved bounds from the grid config are
// used when present; otherwise the grid is detected.
func (c *Calibrator) Open(path string) error {
	img, err := cardimage.Load(path)
	if err != nil {
		return err
	}
	c.setImage(path, img)

	if saved, ok := manifest.LoadGridConfig(c.gridConfig).Lookup(manifest.Key(path)); ok && saved.Valid() {
		c.setBounds(saved.Clamp(img.Bounds()), grid.ConfidenceSaved)
	} else if err := c.Detect(); err != nil {
		return err
	}

	c.prefs.SetString(prefs.KeyLastImage, path)
	c.SetTitle(fmt.Sprintf("%s - %s", appTitle, filepath.Base(path)))
	c.watch(path)
	return nil
}

// reload re-reads the open image after it changed on disk, keeping the
// current bounds.
func (c *Calibrator) reload() error {
	if c.path == "" {
		return errNoImage
	}
	img, err := cardimage.Load(c.path)
	if err != nil {
		return err
	}
	c.setImage(c.path, img)
	c.setBounds(c.bounds.Clamp(img.Bounds()), c.confidence)
	return nil
}

func (c *Calibrator) setImage(path string, img image.Image) {
	c.path = path
	c.src = img

	b := img.Bounds()
	c.preview, c.scale = img, 1
	if b.Dx() > previewMax || b.Dy() > previewMax {
		c.preview = imaging.Fit(img, previewMax, previewMax, imaging.Box)
		c.scale = float64(c.preview.Bounds().Dx()) / float64(b.Dx())
	}

	c.syncing = true
	for i, s := range c.sliders {
		s.Min = 0
		if edge(i) == edgeTop || edge(i) == edgeBottom {
			s.Max = float64(b.Dy() - 1)
		} else {
			s.Max = float64(b.Dx() - 1)
		}
		s.Refresh()
	}
	c.syncing = false
}

// Detect runs grid detection on the open image and moves the sliders to
// the result.
func (c *Calibrator) Detect() error {
	if c.src == nil {
		return errNoImage
	}
	res, err := grid.Detect(c.src, c.params)
	if err != nil {
		return err
	}
	c.setBounds(res.Bounds, res.Confidence)
	return nil
}

// Save records the current bounds for the open image in the grid config.
func (c *Calibrator) Save() error {
	if c.src == nil {
		return errNoImage
	}
	if !c.bounds.Valid() {
		return fmt.Errorf("bounds %s describe an empty area", c.bounds)
	}

	gc := manifest.LoadGridConfig(c.gridConfig)
	gc.Put(manifest.Key(c.path), c.bounds)
	if err := gc.Save(); err != nil {
		return fmt.Errorf("failed to save grid config: %w", err)
	}
	log.WithFields(log.Fields{
		"image":  c.path,
		"bounds": c.bounds.String(),
		"config": gc.Path(),
	}).Info("saved grid bounds")
	c.status.SetText(fmt.Sprintf("Saved %s to %s", c.bounds, gc.Path()))
	return nil
}

// Bounds returns the current grid bounds in source pixels.
func (c *Calibrator) Bounds() geometry.Bounds {
	return c.bounds
}

// Confidence reports where the current bounds came from.
func (c *Calibrator) Confidence() grid.Confidence {
	return c.confidence
}

func (c *Calibrator) setBounds(b geometry.Bounds, conf grid.Confidence) {
	c.bounds = b
	c.confidence = conf

	c.syncing = true
	c.sliders[edgeTop].SetValue(float64(b.Top))
	c.sliders[edgeBottom].SetValue(float64(b.Bottom))
	c.sliders[edgeLeft].SetValue(float64(b.Left))
	c.sliders[edgeRight].SetValue(float64(b.Right))
	c.syncing = false

	c.refresh()
}

func (c *Calibrator) onSlider(e edge, v float64) {
	if c.syncing || c.src == nil {
		return
	}
	switch e {
	case edgeTop:
		c.bounds.Top = int(v)
	case edgeBottom:
		c.bounds.Bottom = int(v)
	case edgeLeft:
		c.bounds.Left = int(v)
	case edgeRight:
		c.bounds.Right = int(v)
	}
	c.confidence = grid.ConfidenceManual
	c.refresh()
}

func (c *Calibrator) refresh() {
	b := c.bounds
	c.values[edgeTop].SetText(fmt.Sprint(b.Top))
	c.values[edgeBottom].SetText(fmt.Sprint(b.Bottom))
	c.values[edgeLeft].SetText(fmt.Sprint(b.Left))
	c.values[edgeRight].SetText(fmt.Sprint(b.Right))

	if c.preview != nil {
		c.view.Image = Render(c.preview, scaleBounds(b, c.scale))
		c.view.Refresh()
	}

	if !b.Valid() {
		c.status.SetText("Bounds are empty: top must be above bottom and left of right")
		return
	}
	c.status.SetText(fmt.Sprintf("%s (%s), cells about %dx%d",
		b, c.confidence, b.Width()/grid.Size, b.Height()/grid.Size))
}

func (c *Calibrator) onOpen() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		if err := c.Open(reader.URI().Path()); err != nil {
			dialog.ShowError(err, c.Window)
		}
	}, c.Window)

	fd.SetFilter(storage.NewExtensionFileFilter(cardimage.SupportedFormats()))
	if loc := c.lastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (c *Calibrator) onDetect() {
	if err := c.Detect(); err != nil {
		dialog.ShowError(err, c.Window)
	}
}

func (c *Calibrator) onFallback() {
	if c.src == nil {
		dialog.ShowError(errNoImage, c.Window)
		return
	}
	b := c.src.Bounds()
	c.setBounds(grid.FallbackBounds(b.Dx(), b.Dy()), grid.ConfidenceFallback)
}

func (c *Calibrator) onSave() {
	if err := c.Save(); err != nil {
		dialog.ShowError(err, c.Window)
	}
}

// lastDir returns the directory of the last opened image, or nil.
func (c *Calibrator) lastDir() fyne.ListableURI {
	last := c.prefs.String(prefs.KeyLastImage)
	if last == "" {
		return nil
	}
	dir, err := filepath.Abs(filepath.Dir(last))
	if err != nil {
		return nil
	}
	listable, err := storage.ListerForURI(storage.NewFileURI(dir))
	if err != nil {
		return nil
	}
	return listable
}

func (c *Calibrator) watch(path string) {
	c.stopWatching()
	w, err := NewWatcher(path, watchInterval)
	if err != nil {
		log.WithError(err).Warn("not watching image for changes")
		return
	}
	w.OnChange(func() {
		dialog.ShowConfirm("Image Changed",
			"The image was modified on disk.\nReload it?",
			func(ok bool) {
				if !ok {
					return
				}
				if err := c.reload(); err != nil {
					dialog.ShowError(err, c.Window)
				}
			}, c.Window)
	})
	w.Start()
	c.watcher = w
}

func (c *Calibrator) stopWatching() {
	if c.watcher != nil {
		c.watcher.Stop()
		c.watcher = nil
	}
}

func (c *Calibrator) savePreferences() {
	size := c.Canvas().Size()
	c.prefs.SetFloat(prefs.KeyWindowWidth, float64(size.Width))
	c.prefs.SetFloat(prefs.KeyWindowHeight, float64(size.Height))
	if err := c.prefs.Save(); err != nil {
		log.WithError(err).Warn("failed to save preferences")
	}
}
