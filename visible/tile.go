package visible

import (
	"fmt"
	"image"
	"math"

	"github.com/fogleman/gg"

	"github.com/NightCatCoding/NightCatWatermark/internal/imgio"
)

// tile is one rendered, rotated instance of the watermark text. The
// pre-rotation text dimensions are kept for spacing math and discarded
// with the tile after compositing.
type tile struct {
	rgba  *image.RGBA
	textW int
	textH int
}

// renderTile measures the text, draws it centered on a transparent
// square canvas sized to the text diagonal plus a 10% margin, and
// rotates the canvas expand-to-fit so nothing is clipped.
func (w *Watermarker) renderTile(p Params) (tile, error) {
	face, err := w.fonts.Face(p.FontSize)
	if err != nil {
		return tile{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	measure := gg.NewContext(1, 1)
	measure.SetFontFace(face)
	tw, th := measure.MeasureString(p.Text)

	diagonal := math.Sqrt(tw*tw + th*th)
	side := int(diagonal) + int(diagonal*0.1)
	if side < 1 {
		side = 1
	}

	dc := gg.NewContext(side, side)
	dc.SetFontFace(face)
	dc.SetRGBA255(int(p.Color.R), int(p.Color.G), int(p.Color.B), p.Opacity)
	dc.DrawStringAnchored(p.Text, float64(side)/2, float64(side)/2, 0.5, 0.5)

	img := dc.Image()
	if p.Angle != 0 {
		img = rotateExpand(img, p.Angle)
	}
	return tile{
		rgba:  imgio.ToRGBA(img),
		textW: int(math.Ceil(tw)),
		textH: int(math.Ceil(th)),
	}, nil
}

// rotateExpand rotates src by degrees (counter-clockwise positive) onto
// a canvas grown to contain the full rotated content.
func rotateExpand(src image.Image, degrees float64) image.Image {
	b := src.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	rad := gg.Radians(degrees)
	sin, cos := math.Abs(math.Sin(rad)), math.Abs(math.Cos(rad))
	nw := int(math.Ceil(w*cos + h*sin))
	nh := int(math.Ceil(w*sin + h*cos))

	dc := gg.NewContext(nw, nh)
	// Screen coordinates grow downward, so CCW-positive needs the sign
	// flipped for gg's rotation.
	dc.RotateAbout(-rad, float64(nw)/2, float64(nh)/2)
	dc.DrawImageAnchored(src, nw/2, nh/2, 0.5, 0.5)
	return dc.Image()
}
