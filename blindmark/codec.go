package blindmark

import (
	"context"
	"errors"
	"fmt"
	"image"

	watermark "github.com/yyyoichi/watermark_zero"
)

// Codec is the narrow contract with the frequency-domain transform.
// The transform itself is an external collaborator; this package only
// supplies the seed and the bit sequence and consumes the result.
type Codec interface {
	// Embed returns a copy of src carrying bits. The same seed must be
	// supplied for extraction.
	Embed(ctx context.Context, src image.Image, seed int64, bits []bool) (image.Image, error)

	// Extract recovers bitCount bits from src. The bit count is not
	// discoverable from the image; it must be recorded at embed time.
	Extract(ctx context.Context, src image.Image, seed int64, bitCount int) ([]bool, error)
}

// ZeroCodec adapts the watermark_zero DWT/DCT/SVD transform to the
// Codec contract. Its default 8x8 block shape embeds exactly one bit
// per 64 pixels, matching Capacity.
type ZeroCodec struct{}

var _ Codec = ZeroCodec{}

func (ZeroCodec) Embed(ctx context.Context, src image.Image, seed int64, bits []bool) (image.Image, error) {
	if len(bits) == 0 {
		return nil, fmt.Errorf("%w: empty bit sequence", ErrInvalidInput)
	}
	out, err := watermark.Embed(ctx, src, newSeededMark(bits, seed))
	if err != nil {
		if errors.Is(err, watermark.ErrTooSmallImage) {
			return nil, fmt.Errorf("%w: %w", ErrCapacityExceeded, err)
		}
		return nil, fmt.Errorf("embed: %w", err)
	}
	return out, nil
}

func (ZeroCodec) Extract(ctx context.Context, src image.Image, seed int64, bitCount int) ([]bool, error) {
	if bitCount <= 0 {
		return nil, fmt.Errorf("%w: bit count %d", ErrInvalidInput, bitCount)
	}
	mark := newSeededMark(make([]bool, bitCount), seed)
	dec, err := watermark.Extract(ctx, src, mark)
	if err != nil {
		if errors.Is(err, watermark.ErrTooSmallImage) {
			return nil, fmt.Errorf("%w: %w", ErrCapacityExceeded, err)
		}
		return nil, fmt.Errorf("extract: %w", err)
	}
	return dec.DecodeToBools(), nil
}
