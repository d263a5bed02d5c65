package imgio

import (
	"image"
	"io"

	"github.com/rwcarlsen/goexif/exif"
)

// applyOrientation rotates img according to the EXIF orientation tag
// read from r, if one is present. Only the rotation-style orientations
// (3, 6, 8) occur in practice for camera output; mirrored variants are
// left untouched.
func applyOrientation(r io.Reader, img image.Image) image.Image {
	x, err := exif.Decode(r)
	if err != nil {
		return img
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return img
	}
	o, err := tag.Int(0)
	if err != nil {
		return img
	}
	switch o {
	case 3:
		return Rotate180(ToRGBA(img))
	case 6:
		// Stored rotated 90° CCW, undo with a 90° CW rotation.
		return Rotate270(ToRGBA(img))
	case 8:
		return Rotate90(ToRGBA(img))
	}
	return img
}

// Rotate90 returns src rotated 90 degrees counter-clockwise.
func Rotate90(src *image.RGBA) *image.RGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, h, w))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dst.SetRGBA(y, w-1-x, src.RGBAAt(b.Min.X+x, b.Min.Y+y))
		}
	}
	return dst
}

// Rotate180 returns src rotated 180 degrees.
func Rotate180(src *image.RGBA) *image.RGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dst.SetRGBA(w-1-x, h-1-y, src.RGBAAt(b.Min.X+x, b.Min.Y+y))
		}
	}
	return dst
}

// Rotate270 returns src rotated 90 degrees clockwise.
func Rotate270(src *image.RGBA) *image.RGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, h, w))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dst.SetRGBA(h-1-y, x, src.RGBAAt(b.Min.X+x, b.Min.Y+y))
		}
	}
	return dst
}
