package visible

import (
	"image"
	"math"

	"github.com/fogleman/gg"

	"github.com/NightCatCoding/NightCatWatermark/internal/imgio"
)

// step computes the tiling advance along one axis:
// tile dimension plus fontSize·(ratio−1), floored at the tile dimension.
func step(tileDim, fontSize int, ratio float64) int {
	return tileDim + int(float64(fontSize)*math.Max(0, ratio-1.0))
}

// composite pastes the tile across a transparent overlay the size of
// base, offsetting every other row by half the horizontal step so the
// pattern reads as bricks rather than a grid, then alpha-composites the
// overlay onto the base.
func composite(base image.Image, t tile, p Params) *image.RGBA {
	baseRGBA := imgio.ToRGBA(base)
	imgW := baseRGBA.Bounds().Dx()
	imgH := baseRGBA.Bounds().Dy()

	tileW := t.rgba.Bounds().Dx()
	tileH := t.rgba.Bounds().Dy()
	stepX := step(tileW, p.FontSize, p.SpacingH)
	stepY := step(tileH, p.FontSize, p.SpacingV)

	overlay := gg.NewContext(imgW, imgH)
	row := 0
	// Start half a tile above and to the left, and run one tile past the
	// far edges, so rotated tiles cover the borders.
	for y := -tileH / 2; y < imgH+tileH; y += stepY {
		x := -tileW / 2
		if row%2 == 1 {
			x += stepX / 2
		}
		for ; x < imgW+tileW; x += stepX {
			overlay.DrawImage(t.rgba, x, y)
		}
		row++
	}

	out := gg.NewContextForImage(baseRGBA)
	out.DrawImage(overlay.Image(), 0, 0)
	return imgio.ToRGBA(out.Image())
}
