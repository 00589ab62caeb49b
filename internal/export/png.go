package export

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/klabast/wb-services/garden-planner/internal/garden"
)

// Grid diagram geometry
const (
	CellSize      = 96
	maxLabelRunes = 10
)

var (
	gridColor  = color.RGBA{R: 0x6b, G: 0x8e, B: 0x23, A: 0xff}
	soilColor  = color.RGBA{R: 0xf5, G: 0xef, B: 0xe0, A: 0xff}
	plantColor = color.RGBA{R: 0xdc, G: 0xee, B: 0xc8, A: 0xff}
)

// WriteLayoutPNG draws the bed as a grid with crop labels in occupied cells
func WriteLayoutPNG(w io.Writer, l *garden.Layout) error {
	width := l.Cols()*CellSize + 1
	height := l.Rows()*CellSize + 1
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(soilColor), image.Point{}, draw.Src)

	for _, cell := range l.Occupied() {
		r := image.Rect(cell.Col*CellSize, cell.Row*CellSize, (cell.Col+1)*CellSize, (cell.Row+1)*CellSize)
		draw.Draw(img, r, image.NewUniform(plantColor), image.Point{}, draw.Src)
	}

	line := image.NewUniform(gridColor)
	for c := 0; c <= l.Cols(); c++ {
		draw.Draw(img, image.Rect(c*CellSize, 0, c*CellSize+1, height), line, image.Point{}, draw.Src)
	}
	for r := 0; r <= l.Rows(); r++ {
		draw.Draw(img, image.Rect(0, r*CellSize, width, r*CellSize+1), line, image.Point{}, draw.Src)
	}

	face := basicfont.Face7x13
	d := &font.Drawer{Dst: img, Src: image.NewUniform(color.Black), Face: face}
	for _, cell := range l.Occupied() {
		label := Truncate(cell.Crop, maxLabelRunes)
		adv := d.MeasureString(label)
		cx := fixed.I(cell.Col*CellSize + CellSize/2)
		cy := cell.Row*CellSize + CellSize/2 + face.Ascent/2
		d.Dot = fixed.Point26_6{X: cx - adv/2, Y: fixed.I(cy)}
		d.DrawString(label)
	}

	return png.Encode(w, img)
}

// Truncate shortens s to at most n runes
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
