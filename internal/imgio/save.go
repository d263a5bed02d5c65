package imgio

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
)

const jpegQuality = 95

// Save encodes img to path, choosing the encoder from the file
// extension. JPEG output is flattened onto white first since the format
// cannot carry alpha. Unknown extensions fall back to PNG.
func Save(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		flat := FlattenWhite(ToRGBA(img))
		if err := jpeg.Encode(f, flat, &jpeg.Options{Quality: jpegQuality}); err != nil {
			return fmt.Errorf("encode %s: %w", path, err)
		}
	default:
		if err := png.Encode(f, img); err != nil {
			return fmt.Errorf("encode %s: %w", path, err)
		}
	}
	return f.Close()
}

// ForceLossless rewrites path so that Save will use a lossless encoder.
// Blind watermarks do not survive lossy re-encoding.
func ForceLossless(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", "":
		if filepath.Ext(path) == "" {
			return path + ".png"
		}
		return path
	default:
		return strings.TrimSuffix(path, filepath.Ext(path)) + ".png"
	}
}
