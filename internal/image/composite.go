package image

import (
	"image"
	"image/color"
	"image/draw"
)

// PasteMode specifies how a square is placed onto a card.
type PasteMode int

const (
	// PasteOver blends the source using its own alpha channel as mask.
	PasteOver PasteMode = iota
	// PasteReplace copies source pixels, alpha included.
	PasteReplace
)

func (m PasteMode) String() string {
	switch m {
	case PasteOver:
		return "Over"
	case PasteReplace:
		return "Replace"
	default:
		return "Unknown"
	}
}

// Paste draws src onto dst with its top-left corner at at.
func Paste(dst draw.Image, src image.Image, at image.Point, mode PasteMode) {
	sb := src.Bounds()
	r := image.Rectangle{Min: at, Max: at.Add(sb.Size())}
	op := draw.Over
	if mode == PasteReplace {
		op = draw.Src
	}
	draw.Draw(dst, r, src, sb.Min, op)
}

// Flatten composites img onto an opaque backdrop of color back, using the
// alpha channel of img as the paste mask.
func Flatten(img image.Image, back color.Color) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{back}, image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
	return dst
}

// Canvas creates an opaque canvas filled with back.
func Canvas(width, height int, back color.Color) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{back}, image.Point{}, draw.Src)
	return dst
}
