package blindmark

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r := uint8(x * 255 / w)
			g := uint8(y * 255 / h)
			b := uint8((x + y) * 255 / (w + h))
			img.Set(x, y, color.RGBA{r, g, b, 255})
		}
	}
	return img
}

func TestZeroCodecRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := gradient(320, 320)
	seed := Seed("hunter2")

	bits, err := Encode("NightCat")
	require.NoError(t, err)
	require.LessOrEqual(t, len(bits), Capacity(320, 320))

	var codec ZeroCodec
	marked, err := codec.Embed(ctx, src, seed, bits)
	require.NoError(t, err)
	require.NotNil(t, marked)
	assert.Equal(t, src.Bounds().Size(), marked.Bounds().Size())

	got, err := codec.Extract(ctx, marked, seed, len(bits))
	require.NoError(t, err)
	require.Len(t, got, len(bits))

	text, err := Decode(got)
	require.NoError(t, err)
	assert.Equal(t, "NightCat", text)
}

func TestZeroCodecWrongPassword(t *testing.T) {
	ctx := context.Background()
	src := gradient(320, 320)

	bits, err := Encode("NightCat")
	require.NoError(t, err)

	var codec ZeroCodec
	marked, err := codec.Embed(ctx, src, Seed("right"), bits)
	require.NoError(t, err)

	got, err := codec.Extract(ctx, marked, Seed("wrong"), len(bits))
	require.NoError(t, err)

	_, err = Decode(got)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCorruptPayload)
}

func TestZeroCodecTooSmallImage(t *testing.T) {
	ctx := context.Background()
	src := gradient(16, 16)

	bits, err := Encode("way too much text for a 16x16 carrier image")
	require.NoError(t, err)

	var codec ZeroCodec
	_, err = codec.Embed(ctx, src, Seed("pw"), bits)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCapacityExceeded)
}

func TestZeroCodecInvalidArguments(t *testing.T) {
	ctx := context.Background()
	var codec ZeroCodec

	_, err := codec.Embed(ctx, gradient(64, 64), 1, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = codec.Extract(ctx, gradient(64, 64), 1, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
