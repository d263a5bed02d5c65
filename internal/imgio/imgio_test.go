package imgio

import (
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestImage(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{uint8(x % 256), uint8(y % 256), 0, 255})
		}
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	switch filepath.Ext(name) {
	case ".jpg":
		require.NoError(t, jpeg.Encode(f, img, nil))
	default:
		require.NoError(t, png.Encode(f, img))
	}
	return path
}

func TestLoadAndDimensions(t *testing.T) {
	dir := t.TempDir()
	path := writeTestImage(t, dir, "a.png", 120, 90)

	img, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(120, 90), img.Bounds().Size())

	w, h, err := Dimensions(path)
	require.NoError(t, err)
	assert.Equal(t, 120, w)
	assert.Equal(t, 90, h)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.png"))
	assert.ErrorIs(t, err, ErrUnreadable)

	garbage := filepath.Join(dir, "garbage.png")
	require.NoError(t, os.WriteFile(garbage, []byte("not an image"), 0o644))
	_, err = Load(garbage)
	assert.ErrorIs(t, err, ErrUnreadable)

	_, _, err = Dimensions(garbage)
	assert.ErrorIs(t, err, ErrUnreadable)
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	img := image.NewRGBA(image.Rect(0, 0, 40, 30))

	pngOut := filepath.Join(dir, "nested", "out.png")
	require.NoError(t, Save(pngOut, img), "Save creates missing directories")
	got, err := Load(pngOut)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(40, 30), got.Bounds().Size())

	jpgOut := filepath.Join(dir, "out.jpg")
	require.NoError(t, Save(jpgOut, img))
	got, err = Load(jpgOut)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(40, 30), got.Bounds().Size())
}

func TestForceLossless(t *testing.T) {
	test := []struct {
		in, expected string
	}{
		{"out/a.jpg", "out/a.png"},
		{"a.jpeg", "a.png"},
		{"a.png", "a.png"},
		{"a.PNG", "a.PNG"},
		{"noext", "noext.png"},
	}
	for _, tt := range test {
		assert.Equal(t, tt.expected, ForceLossless(tt.in), tt.in)
	}
}

func TestDownscale(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 400, 300))

	small := Downscale(src, 100)
	assert.Equal(t, image.Pt(100, 75), small.Bounds().Size())

	tall := Downscale(image.NewRGBA(image.Rect(0, 0, 300, 400)), 100)
	assert.Equal(t, image.Pt(75, 100), tall.Bounds().Size())

	// Already within bounds: same size, but still an independent copy.
	same := Downscale(src, 800)
	assert.Equal(t, image.Pt(400, 300), same.Bounds().Size())
	same.SetRGBA(0, 0, color.RGBA{255, 0, 0, 255})
	assert.NotEqual(t, same.RGBAAt(0, 0), src.RGBAAt(0, 0))
}

func TestRotations(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 3, 2))
	src.SetRGBA(0, 0, color.RGBA{255, 0, 0, 255})
	src.SetRGBA(2, 1, color.RGBA{0, 0, 255, 255})

	r90 := Rotate90(src)
	assert.Equal(t, image.Pt(2, 3), r90.Bounds().Size())
	// 90 degrees counter-clockwise moves (0,0) to the bottom-left.
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, r90.RGBAAt(0, 2))

	r180 := Rotate180(src)
	assert.Equal(t, image.Pt(3, 2), r180.Bounds().Size())
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, r180.RGBAAt(2, 1))
	assert.Equal(t, color.RGBA{0, 0, 255, 255}, r180.RGBAAt(0, 0))

	r270 := Rotate270(src)
	assert.Equal(t, image.Pt(2, 3), r270.Bounds().Size())
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, r270.RGBAAt(1, 0))
}

func TestFlattenWhite(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	src.SetRGBA(0, 0, color.RGBA{0, 0, 0, 0}) // fully transparent

	flat := FlattenWhite(src)
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, flat.RGBAAt(0, 0))
}
