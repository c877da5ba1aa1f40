// Package background builds card templates with the grid area erased.
package background

import (
	"image"
	"image/draw"
	"path/filepath"
	"strings"

	cardimage "bingo-kit/internal/image"
	"bingo-kit/pkg/colorutil"
	"bingo-kit/pkg/geometry"
)

// Transparent returns a copy of img whose grid rectangle (right and
// bottom border lines included) has alpha 0. Pixels outside the rectangle
// are unchanged.
func Transparent(img image.Image, bounds geometry.Bounds) *image.NRGBA {
	dst := cardimage.ToNRGBA(img)
	r := bounds.Rect().Intersect(dst.Bounds())
	if r.Empty() {
		return dst
	}
	draw.Draw(dst, r, image.NewUniform(colorutil.Transparent), image.Point{}, draw.Src)
	return dst
}

// WhiteFill returns an opaque copy of img with the grid rectangle painted
// white.
func WhiteFill(img image.Image, bounds geometry.Bounds) *image.RGBA {
	dst := cardimage.ToRGBA(img)
	r := bounds.Rect().Intersect(dst.Bounds())
	if r.Empty() {
		return dst
	}
	draw.Draw(dst, r, image.NewUniform(colorutil.White), image.Point{}, draw.Src)
	return dst
}

// WhiteFillPath derives the white-fill file name from the template path:
// background.png becomes background_white_fill.png.
func WhiteFillPath(path string) string {
	ext := filepath.Ext(path)
	if !strings.EqualFold(ext, ".png") {
		return path + "_white_fill.png"
	}
	return strings.TrimSuffix(path, ext) + "_white_fill" + ext
}

// Templates holds both template variants of one source image.
type Templates struct {
	Transparent *image.NRGBA
	WhiteFill   *image.RGBA
}

// Build creates both templates.
func Build(img image.Image, bounds geometry.Bounds) Templates {
	return Templates{
		Transparent: Transparent(img, bounds),
		WhiteFill:   WhiteFill(img, bounds),
	}
}

// Save writes the transparent template to path and the white-fill variant
// next to it. It returns the white-fill path.
func (t Templates) Save(path string) (string, error) {
	if err := cardimage.SavePNG(path, t.Transparent); err != nil {
		return "", err
	}
	white := WhiteFillPath(path)
	if err := cardimage.SavePNG(white, t.WhiteFill); err != nil {
		return "", err
	}
	return white, nil
}
