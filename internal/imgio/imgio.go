// Package imgio handles raster image IO for the watermark engine:
// decoding with EXIF orientation correction, downsampling, alpha
// flattening and format-aware encoding.
package imgio

import (
	"errors"
	"fmt"
	"image"
	"os"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/tiff"
)

// ErrUnreadable reports a missing or undecodable source file.
var ErrUnreadable = errors.New("unreadable image")

// Load decodes the image at path and applies any EXIF orientation so
// that callers always see the visually-correct pixels.
func Load(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrUnreadable, path, err)
	}
	if _, err := f.Seek(0, 0); err == nil {
		img = applyOrientation(f, img)
	}
	return img, nil
}

// Dimensions reports the pixel size of the image at path without
// decoding the pixel data. Used for capacity checks on large files.
func Dimensions(path string) (width, height int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: decode %s: %w", ErrUnreadable, path, err)
	}
	return cfg.Width, cfg.Height, nil
}
