package nightcat

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NightCatCoding/NightCatWatermark/blindmark"
	"github.com/NightCatCoding/NightCatWatermark/internal/imgio"
	"github.com/NightCatCoding/NightCatWatermark/visible"
)

func TestOutputName(t *testing.T) {
	test := []struct {
		name      string
		source    string
		visibleOn bool
		blindOn   bool
		bitLength int
		format    string
		expected  string
	}{
		{
			name:      "visible keeps requested format",
			source:    "/photos/cat.jpg",
			visibleOn: true,
			format:    "jpg",
			expected:  "cat_watermarked.jpg",
		},
		{
			name:      "blind forces png",
			source:    "cat.jpg",
			blindOn:   true,
			bitLength: 112,
			format:    "jpg",
			expected:  "cat_blind-112.png",
		},
		{
			name:      "both watermarks",
			source:    "dir/photo.png",
			visibleOn: true,
			blindOn:   true,
			bitLength: 200,
			format:    "png",
			expected:  "photo_watermarked_blind-200.png",
		},
		{
			name:      "empty format defaults to png",
			source:    "cat.webp",
			visibleOn: true,
			expected:  "cat_watermarked.png",
		},
		{
			name:      "dotted format accepted",
			source:    "cat.png",
			visibleOn: true,
			format:    ".JPG",
			expected:  "cat_watermarked.jpg",
		},
	}
	for _, tt := range test {
		t.Run(tt.name, func(t *testing.T) {
			got := OutputName(tt.source, tt.visibleOn, tt.blindOn, tt.bitLength, tt.format)
			assert.Equal(t, tt.expected, got)
		})
	}
}

// writeGradientPNG writes a w by h gradient image and returns its path.
func writeGradientPNG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{
				R: uint8(x * 255 / w),
				G: uint8(y * 255 / h),
				B: uint8((x + y) * 255 / (w + h)),
				A: 255,
			})
		}
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func TestEmbedBatchVisibleOnly(t *testing.T) {
	dir := t.TempDir()
	src := writeGradientPNG(t, dir, "input.png", 200, 160)
	w, err := New()
	require.NoError(t, err)

	results, err := w.EmbedBatch(context.Background(), BatchConfig{
		Sources:   []string{src},
		OutputDir: dir,
		Format:    "png",
		Visible:   VisibleConfig{Enabled: true, Params: visible.DefaultParams("CONFIDENTIAL")},
	})
	require.NoError(t, err)

	var got []FileResult
	for res := range results {
		got = append(got, res)
	}
	require.Len(t, got, 1)
	require.NoError(t, got[0].Err)
	assert.Equal(t, filepath.Join(dir, "input_watermarked.png"), got[0].Output)
	assert.Zero(t, got[0].BitLength)

	out, err := imgio.Load(got[0].Output)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(200, 160), out.Bounds().Size())
}

func TestEmbedBatchBlindRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := writeGradientPNG(t, dir, "photo.png", 320, 320)
	w, err := New()
	require.NoError(t, err)

	results, err := w.EmbedBatch(context.Background(), BatchConfig{
		Sources:   []string{src},
		OutputDir: dir,
		Format:    "jpg",
		Blind:     BlindConfig{Enabled: true, Text: "owner:nightcat", Password: "hunter2"},
	})
	require.NoError(t, err)
	res := <-results
	require.NoError(t, res.Err)
	assert.Equal(t, ".png", filepath.Ext(res.Output), "blind output must be lossless")
	require.Positive(t, res.BitLength)

	text, err := w.ExtractBlind(context.Background(), res.Output, "hunter2", res.BitLength)
	require.NoError(t, err)
	assert.Equal(t, "owner:nightcat", text)

	_, err = w.ExtractBlind(context.Background(), res.Output, "wrong-password", res.BitLength)
	assert.ErrorIs(t, err, blindmark.ErrNoWatermark)
}

func TestEmbedBatchBothWatermarks(t *testing.T) {
	dir := t.TempDir()
	src := writeGradientPNG(t, dir, "both.png", 320, 320)
	w, err := New()
	require.NoError(t, err)

	results, err := w.EmbedBatch(context.Background(), BatchConfig{
		Sources:   []string{src},
		OutputDir: dir,
		Visible:   VisibleConfig{Enabled: true, Params: visible.DefaultParams("draft")},
		Blind:     BlindConfig{Enabled: true, Text: "id=42", Password: "pw"},
	})
	require.NoError(t, err)
	res := <-results
	require.NoError(t, res.Err)
	assert.Contains(t, filepath.Base(res.Output), "_watermarked_blind-")

	// The payload must survive the visible compositing underneath it.
	text, err := w.ExtractBlind(context.Background(), res.Output, "pw", res.BitLength)
	require.NoError(t, err)
	assert.Equal(t, "id=42", text)
}

func TestEmbedBatchSkipsFailedFiles(t *testing.T) {
	dir := t.TempDir()
	good := writeGradientPNG(t, dir, "good.png", 200, 160)
	missing := filepath.Join(dir, "missing.png")

	w, err := New()
	require.NoError(t, err)
	results, err := w.EmbedBatch(context.Background(), BatchConfig{
		Sources:   []string{missing, good},
		OutputDir: dir,
		Visible:   VisibleConfig{Enabled: true, Params: visible.DefaultParams("x")},
	})
	require.NoError(t, err)

	var got []FileResult
	for res := range results {
		got = append(got, res)
	}
	require.Len(t, got, 2)
	assert.ErrorIs(t, got[0].Err, imgio.ErrUnreadable)
	assert.NoError(t, got[1].Err)
}

func TestEmbedBatchValidation(t *testing.T) {
	w, err := New()
	require.NoError(t, err)
	test := []struct {
		name string
		cfg  BatchConfig
	}{
		{"no sources", BatchConfig{Visible: VisibleConfig{Enabled: true, Params: visible.DefaultParams("x")}}},
		{"nothing enabled", BatchConfig{Sources: []string{"a.png"}}},
		{"visible without text", BatchConfig{Sources: []string{"a.png"}, Visible: VisibleConfig{Enabled: true}}},
		{"blind without password", BatchConfig{Sources: []string{"a.png"}, Blind: BlindConfig{Enabled: true, Text: "x"}}},
		{"blind without text", BatchConfig{Sources: []string{"a.png"}, Blind: BlindConfig{Enabled: true, Password: "p"}}},
	}
	for _, tt := range test {
		t.Run(tt.name, func(t *testing.T) {
			_, err := w.EmbedBatch(context.Background(), tt.cfg)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestEmbedBatchCancellation(t *testing.T) {
	dir := t.TempDir()
	src := writeGradientPNG(t, dir, "one.png", 200, 160)
	w, err := New()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results, err := w.EmbedBatch(ctx, BatchConfig{
		Sources:   []string{src, src, src},
		OutputDir: dir,
		Visible:   VisibleConfig{Enabled: true, Params: visible.DefaultParams("x")},
	})
	require.NoError(t, err)
	var count int
	for range results {
		count++
	}
	assert.Zero(t, count, "cancelled run reports no results")
}

func TestExtractBatch(t *testing.T) {
	dir := t.TempDir()
	src := writeGradientPNG(t, dir, "in.png", 320, 320)
	w, err := New()
	require.NoError(t, err)

	out, bits, err := w.EmbedBlind(context.Background(), src, "pw", "hello")
	require.NoError(t, err)
	marked := filepath.Join(dir, "marked.png")
	require.NoError(t, imgio.Save(marked, out))

	results, err := w.ExtractBatch(context.Background(), []string{marked, src}, "pw", bits)
	require.NoError(t, err)
	var got []ExtractResult
	for res := range results {
		got = append(got, res)
	}
	require.Len(t, got, 2)
	assert.NoError(t, got[0].Err)
	assert.Equal(t, "hello", got[0].Text)
	assert.Error(t, got[1].Err, "unmarked image must not decode")

	_, err = w.ExtractBatch(context.Background(), nil, "pw", bits)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = w.ExtractBatch(context.Background(), []string{marked}, "", bits)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = w.ExtractBatch(context.Background(), []string{marked}, "pw", 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCapacity(t *testing.T) {
	dir := t.TempDir()
	src := writeGradientPNG(t, dir, "cap.png", 512, 512)
	w, err := New()
	require.NoError(t, err)

	bits, maxText, err := w.Capacity(src)
	require.NoError(t, err)
	assert.Equal(t, 4096, bits)
	assert.Equal(t, 500, maxText)

	_, _, err = w.Capacity(filepath.Join(dir, "nope.png"))
	assert.ErrorIs(t, err, imgio.ErrUnreadable)
}

func TestEmbedBlindRejectsOversizedText(t *testing.T) {
	dir := t.TempDir()
	src := writeGradientPNG(t, dir, "tiny.png", 64, 64)
	w, err := New()
	require.NoError(t, err)

	// 64x64 carries 64 bits, exactly the header, so no text fits.
	_, _, err = w.EmbedBlind(context.Background(), src, "pw", "x")
	assert.ErrorIs(t, err, blindmark.ErrCapacityExceeded)
}
