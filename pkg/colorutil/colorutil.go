// Package colorutil provides shared color utilities for bingo card processing.
package colorutil

import (
	"image/color"
)

// Common overlay colors used throughout the application.
var (
	Black       = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White       = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Red         = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	Green       = color.RGBA{R: 0, G: 128, B: 0, A: 255}
	Blue        = color.RGBA{R: 0, G: 0, B: 255, A: 255}
	LightGray   = color.RGBA{R: 211, G: 211, B: 211, A: 255}
	Transparent = color.NRGBA{}
)

// Luma converts 8-bit RGB to an 8-bit gray level using the ITU-R 601-2
// luma transform (L = R*299/1000 + G*587/1000 + B*114/1000).
func Luma(r, g, b uint8) uint8 {
	return uint8((uint32(r)*299 + uint32(g)*587 + uint32(b)*114) / 1000)
}

// GrayOf returns the luma of an arbitrary color, ignoring alpha.
func GrayOf(c color.Color) uint8 {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return Luma(n.R, n.G, n.B)
}
