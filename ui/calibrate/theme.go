package calibrate

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// calibratorTheme tints the default theme to match the overlay colours.
type calibratorTheme struct{}

var _ fyne.Theme = (*calibratorTheme)(nil)

func (t *calibratorTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNamePrimary:
		return color.NRGBA{R: 0xC6, G: 0x28, B: 0x28, A: 0xFF} // border red
	case theme.ColorNameFocus:
		return color.NRGBA{R: 0x15, G: 0x65, B: 0xC0, A: 0x80} // inner-line blue
	default:
		return theme.DefaultTheme().Color(name, variant)
	}
}

func (t *calibratorTheme) Font(style fyne.TextStyle) fyne.Resource {
	return theme.DefaultTheme().Font(style)
}

func (t *calibratorTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}

func (t *calibratorTheme) Size(name fyne.ThemeSizeName) float32 {
	switch name {
	case theme.SizeNameInputBorder:
		return 3
	default:
		return theme.DefaultTheme().Size(name)
	}
}

// Theme returns the calibrator theme.
func Theme() fyne.Theme {
	return &calibratorTheme{}
}
