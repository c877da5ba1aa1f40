// Package overlay draws debug visualisations of detected grids and
// extraction rectangles with OpenCV.
package overlay

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"bingo-kit/internal/extract"
	"bingo-kit/internal/grid"
	"bingo-kit/pkg/colorutil"
	"bingo-kit/pkg/geometry"
)

// candidateColor marks raw line candidates that were not selected.
var candidateColor = color.RGBA{R: 255, G: 200, B: 0, A: 255}

// ImageToMat converts a Go image.Image to a BGR gocv.Mat.
func ImageToMat(img image.Image) (gocv.Mat, error) {
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			rgba.Set(x, y, img.At(b.Min.X+x, b.Min.Y+y))
		}
	}

	mat, err := gocv.NewMatFromBytes(b.Dy(), b.Dx(), gocv.MatTypeCV8UC4, rgba.Pix)
	if err != nil {
		return gocv.Mat{}, err
	}
	defer mat.Close()

	bgr := gocv.NewMat()
	gocv.CvtColor(mat, &bgr, gocv.ColorRGBAToBGR)
	return bgr, nil
}

// DrawLines draws horizontal lines in red and vertical lines in blue, each
// spanning the grid.
func DrawLines(mat *gocv.Mat, lines grid.Lines) {
	if len(lines.Horizontal) == 0 || len(lines.Vertical) == 0 {
		return
	}
	b := lines.Bounds()
	for _, y := range lines.Horizontal {
		gocv.Line(mat, image.Pt(b.Left, y), image.Pt(b.Right, y), colorutil.Red, 2)
	}
	for _, x := range lines.Vertical {
		gocv.Line(mat, image.Pt(x, b.Top), image.Pt(x, b.Bottom), colorutil.Blue, 2)
	}
}

// DrawCandidates draws every raw candidate across the whole image, 1 px.
func DrawCandidates(mat *gocv.Mat, rows, cols []int) {
	w, h := mat.Cols(), mat.Rows()
	for _, y := range rows {
		gocv.Line(mat, image.Pt(0, y), image.Pt(w-1, y), candidateColor, 1)
	}
	for _, x := range cols {
		gocv.Line(mat, image.Pt(x, 0), image.Pt(x, h-1), candidateColor, 1)
	}
}

// DrawBoxes outlines each rectangle, 1 px.
func DrawBoxes(mat *gocv.Mat, rects []geometry.RectInt, col color.RGBA) {
	for _, r := range rects {
		gocv.Rectangle(mat, r.ToImage(), col, 1)
	}
}

// Label writes text with its baseline at at.
func Label(mat *gocv.Mat, text string, at image.Point, col color.RGBA) {
	gocv.PutText(mat, text, at, gocv.FontHersheyPlain, 1.2, col, 1)
}

// Detection renders the detection result over img: candidates, selected
// lines and a caption with the confidence.
func Detection(img image.Image, res *grid.Result) (image.Image, error) {
	mat, err := ImageToMat(img)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	DrawCandidates(&mat, res.RowCandidates, res.ColCandidates)
	DrawLines(&mat, res.Lines)
	Label(&mat, fmt.Sprintf("%s (%s)", res.Confidence, res.Params.Method), image.Pt(10, 20), colorutil.Red)

	return mat.ToImage()
}

// Extraction renders the grid lines in red and each crop rectangle in
// green over img.
func Extraction(img image.Image, res *extract.Result) (image.Image, error) {
	mat, err := ImageToMat(img)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	b := res.Lines.Bounds()
	for _, y := range res.Lines.Horizontal {
		gocv.Line(&mat, image.Pt(b.Left, y), image.Pt(b.Right, y), colorutil.Red, 2)
	}
	for _, x := range res.Lines.Vertical {
		gocv.Line(&mat, image.Pt(x, b.Top), image.Pt(x, b.Bottom), colorutil.Red, 2)
	}

	rects := make([]geometry.RectInt, 0, len(res.Squares))
	for _, sq := range res.Squares {
		rects = append(rects, sq.Bounds)
	}
	DrawBoxes(&mat, rects, colorutil.Green)

	return mat.ToImage()
}
