// Package nightcat embeds and previews text watermarks on raster
// images. The visible mode tiles rotated, semi-transparent text across
// an image; the blind mode hides a short UTF-8 message in the image's
// frequency domain, recoverable only with the matching password and the
// bit length recorded at embed time.
//
// Full-resolution operations live here; the interactive preview
// pipeline is in the preview package.
package nightcat

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/NightCatCoding/NightCatWatermark/blindmark"
	"github.com/NightCatCoding/NightCatWatermark/internal/imgio"
	"github.com/NightCatCoding/NightCatWatermark/visible"
)

// ErrInvalidInput reports an unusable operation argument: an empty
// password, a non-positive bit length, or an empty batch configuration.
var ErrInvalidInput = errors.New("invalid input")

// Watermarker runs full-resolution embed and extract operations. The
// frequency-domain transform is an external collaborator reached
// through the blindmark.Codec contract; this type only feeds it seeds
// and bit sequences.
type Watermarker struct {
	visible *visible.Watermarker
	codec   blindmark.Codec
	logger  *slog.Logger
}

type config struct {
	fontPath string
	codec    blindmark.Codec
	logger   *slog.Logger
}

type Option func(*config)

// WithFontPath renders visible watermarks with the font at path.
func WithFontPath(path string) Option {
	return func(c *config) { c.fontPath = path }
}

// WithCodec substitutes the frequency-domain codec implementation.
func WithCodec(codec blindmark.Codec) Option {
	return func(c *config) { c.codec = codec }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

func New(opts ...Option) (*Watermarker, error) {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}
	var vopts []visible.Option
	if cfg.fontPath != "" {
		vopts = append(vopts, visible.WithFontPath(cfg.fontPath))
	}
	v, err := visible.New(vopts...)
	if err != nil {
		return nil, err
	}
	w := &Watermarker{
		visible: v,
		codec:   cfg.codec,
		logger:  cfg.logger,
	}
	if w.codec == nil {
		w.codec = blindmark.ZeroCodec{}
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}
	return w, nil
}

// EmbedVisible loads the image at srcPath, corrects EXIF orientation
// and applies the tiled text watermark at full resolution.
func (w *Watermarker) EmbedVisible(ctx context.Context, srcPath string, p visible.Params) (*image.RGBA, error) {
	img, err := imgio.Load(srcPath)
	if err != nil {
		return nil, err
	}
	return w.visible.Apply(ctx, img, p)
}

// EmbedVisibleImage applies the tiled text watermark to an in-memory
// image, for chaining with other processing steps.
func (w *Watermarker) EmbedVisibleImage(ctx context.Context, img image.Image, p visible.Params) (*image.RGBA, error) {
	return w.visible.Apply(ctx, img, p)
}

// EmbedBlind hides text in the image at srcPath, keyed by password.
// It returns the watermarked image and the payload bit length; the bit
// length must be stored alongside the output, extraction is impossible
// without it. The result must be encoded losslessly.
func (w *Watermarker) EmbedBlind(ctx context.Context, srcPath, password, text string) (image.Image, int, error) {
	img, err := imgio.Load(srcPath)
	if err != nil {
		return nil, 0, err
	}
	return w.EmbedBlindImage(ctx, img, password, text)
}

// EmbedBlindImage is EmbedBlind for an in-memory image.
func (w *Watermarker) EmbedBlindImage(ctx context.Context, img image.Image, password, text string) (image.Image, int, error) {
	if password == "" {
		return nil, 0, fmt.Errorf("%w: password is empty", ErrInvalidInput)
	}
	size := img.Bounds().Size()
	if max := blindmark.MaxTextBytes(size.X, size.Y); len(text) > max {
		return nil, 0, fmt.Errorf("%w: text is %d bytes, image of %dx%d carries at most %d",
			blindmark.ErrCapacityExceeded, len(text), size.X, size.Y, max)
	}
	bits, err := blindmark.Encode(text)
	if err != nil {
		return nil, 0, err
	}
	out, err := w.codec.Embed(ctx, img, blindmark.Seed(password), bits)
	if err != nil {
		return nil, 0, err
	}
	w.logger.Debug("blind watermark embedded", "bits", len(bits), "width", size.X, "height", size.Y)
	return out, len(bits), nil
}

// EmbedBoth applies the visible watermark and then hides text in the
// tiled result, so the payload survives the compositing. The returned
// bit length belongs to the blind payload.
func (w *Watermarker) EmbedBoth(ctx context.Context, srcPath string, p visible.Params, password, text string) (image.Image, int, error) {
	img, err := w.EmbedVisible(ctx, srcPath, p)
	if err != nil {
		return nil, 0, err
	}
	return w.EmbedBlindImage(ctx, img, password, text)
}

// ExtractBlind recovers the hidden text from the image at srcPath.
// bitLength is the value reported by the matching embed; it cannot be
// derived from the image. A wrong password surfaces as
// blindmark.ErrNoWatermark, not as a generic parse failure.
func (w *Watermarker) ExtractBlind(ctx context.Context, srcPath, password string, bitLength int) (string, error) {
	if password == "" {
		return "", fmt.Errorf("%w: password is empty", ErrInvalidInput)
	}
	if bitLength <= 0 {
		return "", fmt.Errorf("%w: bit length %d", ErrInvalidInput, bitLength)
	}
	img, err := imgio.Load(srcPath)
	if err != nil {
		return "", err
	}
	size := img.Bounds().Size()
	if capacity := blindmark.Capacity(size.X, size.Y); bitLength > capacity {
		return "", fmt.Errorf("%w: bit length %d exceeds image capacity %d", ErrInvalidInput, bitLength, capacity)
	}
	bits, err := w.codec.Extract(ctx, img, blindmark.Seed(password), bitLength)
	if err != nil {
		return "", err
	}
	return blindmark.Decode(bits)
}

// Capacity reports the payload capacity of the image at srcPath in
// bits, and the largest embeddable text in bytes. Only the image header
// is decoded.
func (w *Watermarker) Capacity(srcPath string) (bits, maxTextBytes int, err error) {
	width, height, err := imgio.Dimensions(srcPath)
	if err != nil {
		return 0, 0, err
	}
	return blindmark.Capacity(width, height), blindmark.MaxTextBytes(width, height), nil
}
