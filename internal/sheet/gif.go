// Package sheet bundles generated cards into an animated GIF preview or a
// printable PDF.
package sheet

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"os"
	"time"

	"github.com/disintegration/imaging"
	"github.com/ericpauley/go-quantize/quantize"

	cardimage "bingo-kit/internal/image"
	"bingo-kit/pkg/colorutil"
)

// GIFOptions configures WriteGIF.
type GIFOptions struct {
	Delay       time.Duration // per frame
	Colors      int           // palette size, at most 256
	SampleWidth int           // frames are downscaled to this width for palette sampling
	Dither      bool
	LoopCount   int // 0 loops forever
}

// DefaultGIFOptions returns a two-second, 256-colour dithered preview.
func DefaultGIFOptions() GIFOptions {
	return GIFOptions{
		Delay:       2 * time.Second,
		Colors:      256,
		SampleWidth: 256,
		Dither:      true,
	}
}

// WriteGIF writes the images at paths as frames of an animated GIF. All
// frames share one palette built by median cut over downscaled samples.
func WriteGIF(paths []string, out string, opts GIFOptions) error {
	if len(paths) == 0 {
		return fmt.Errorf("no frames to write")
	}
	if opts.Colors < 2 || opts.Colors > 256 {
		opts.Colors = 256
	}

	frames := make([]*image.RGBA, 0, len(paths))
	var size image.Point
	for i, p := range paths {
		img, err := cardimage.Load(p)
		if err != nil {
			return err
		}
		if i == 0 {
			size = img.Bounds().Size()
		} else if img.Bounds().Size() != size {
			img = imaging.Fit(img, size.X, size.Y, imaging.Lanczos)
		}
		frames = append(frames, cardimage.Flatten(img, colorutil.White))
	}

	pal := buildPalette(frames, opts.Colors, opts.SampleWidth)

	g := &gif.GIF{
		Image:     make([]*image.Paletted, 0, len(frames)),
		Delay:     make([]int, 0, len(frames)),
		LoopCount: opts.LoopCount,
		Config: image.Config{
			ColorModel: pal,
			Width:      size.X,
			Height:     size.Y,
		},
	}
	delay := int(opts.Delay / (10 * time.Millisecond))
	for _, fr := range frames {
		g.Image = append(g.Image, toPaletted(fr, pal, opts.Dither))
		g.Delay = append(g.Delay, delay)
	}

	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, g); err != nil {
		return fmt.Errorf("failed to encode gif: %w", err)
	}
	return os.WriteFile(out, buf.Bytes(), 0644)
}

// buildPalette stacks downscaled copies of every frame and quantizes the
// composite.
func buildPalette(frames []*image.RGBA, colors, sampleWidth int) color.Palette {
	if sampleWidth <= 0 {
		sampleWidth = 256
	}
	var samples []*image.NRGBA
	height := 0
	for _, fr := range frames {
		s := imaging.Resize(fr, sampleWidth, 0, imaging.Box)
		samples = append(samples, s)
		height += s.Bounds().Dy()
	}

	composite := image.NewRGBA(image.Rect(0, 0, sampleWidth, height))
	y := 0
	for _, s := range samples {
		r := image.Rect(0, y, s.Bounds().Dx(), y+s.Bounds().Dy())
		draw.Draw(composite, r, s, image.Point{}, draw.Src)
		y += s.Bounds().Dy()
	}

	q := quantize.MedianCutQuantizer{}
	pal := q.Quantize(make(color.Palette, 0, colors), composite)
	if len(pal) == 0 {
		pal = color.Palette{colorutil.Black, colorutil.White}
	}
	return pal
}

func toPaletted(src *image.RGBA, pal color.Palette, dither bool) *image.Paletted {
	dst := image.NewPaletted(src.Bounds(), pal)
	if dither {
		draw.FloydSteinberg.Draw(dst, src.Bounds(), src, src.Bounds().Min)
	} else {
		draw.Draw(dst, src.Bounds(), src, src.Bounds().Min, draw.Src)
	}
	return dst
}
