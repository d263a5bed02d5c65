// Package visible renders tiled, rotated, semi-transparent text
// watermarks onto raster images.
package visible

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/NightCatCoding/NightCatWatermark/internal/fontcache"
)

// ErrInvalidInput reports empty text or an out-of-range parameter.
var ErrInvalidInput = errors.New("invalid input")

const (
	MinFontSize = 1
	MaxFontSize = 500

	minSpacing = 0.5
	maxSpacing = 10.0

	// DefaultSpacingH and DefaultSpacingV give a loose brick pattern.
	// 1.0 is a tight arrangement, 2.0 leaves roughly one glyph of gap.
	DefaultSpacingH = 1.5
	DefaultSpacingV = 1.2
)

// Params describes one watermark render. Immutable per render.
type Params struct {
	Text     string
	FontSize int // pixels, MinFontSize..MaxFontSize
	Opacity  int // 0..255, 255 fully opaque
	Angle    float64 // degrees, positive rotates counter-clockwise
	Color    color.RGBA // alpha component is ignored; Opacity wins
	SpacingH float64 // horizontal spacing ratio, clamped to [0.5, 10]
	SpacingV float64 // vertical spacing ratio, clamped to [0.5, 10]
}

// DefaultParams returns the stock gray diagonal watermark for text.
func DefaultParams(text string) Params {
	return Params{
		Text:     text,
		FontSize: 40,
		Opacity:  80,
		Angle:    -30,
		Color:    color.RGBA{R: 128, G: 128, B: 128},
		SpacingH: DefaultSpacingH,
		SpacingV: DefaultSpacingV,
	}
}

func (p Params) normalize() Params {
	p.Text = strings.TrimSpace(p.Text)
	if p.SpacingH == 0 {
		p.SpacingH = DefaultSpacingH
	}
	if p.SpacingV == 0 {
		p.SpacingV = DefaultSpacingV
	}
	p.SpacingH = clamp(p.SpacingH, minSpacing, maxSpacing)
	p.SpacingV = clamp(p.SpacingV, minSpacing, maxSpacing)
	return p
}

func (p Params) validate() error {
	if p.Text == "" {
		return fmt.Errorf("%w: watermark text is empty", ErrInvalidInput)
	}
	if p.FontSize < MinFontSize || p.FontSize > MaxFontSize {
		return fmt.Errorf("%w: font size %d outside [%d, %d]", ErrInvalidInput, p.FontSize, MinFontSize, MaxFontSize)
	}
	if p.Opacity < 0 || p.Opacity > 255 {
		return fmt.Errorf("%w: opacity %d outside [0, 255]", ErrInvalidInput, p.Opacity)
	}
	return nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Watermarker renders text watermarks. Safe for concurrent use; font
// faces come from an injected, internally locked cache.
type Watermarker struct {
	fonts *fontcache.Cache
}

type Option func(*Watermarker) error

// WithFontPath renders with the TrueType/OpenType font at path instead
// of the bundled default.
func WithFontPath(path string) Option {
	return func(w *Watermarker) error {
		c, err := fontcache.NewFromFile(path)
		if err != nil {
			return err
		}
		w.fonts = c
		return nil
	}
}

// WithFontCache shares an existing font cache, for callers running both
// the preview and full-resolution paths.
func WithFontCache(c *fontcache.Cache) Option {
	return func(w *Watermarker) error {
		w.fonts = c
		return nil
	}
}

func New(opts ...Option) (*Watermarker, error) {
	w := new(Watermarker)
	for _, opt := range opts {
		if err := opt(w); err != nil {
			return nil, err
		}
	}
	if w.fonts == nil {
		w.fonts = fontcache.New()
	}
	return w, nil
}

// Apply watermarks base with p and returns a new image. The base image
// is never modified. Rendering is aborted between the tile render and
// the compositing pass when ctx is cancelled.
func (w *Watermarker) Apply(ctx context.Context, base image.Image, p Params) (*image.RGBA, error) {
	p = p.normalize()
	if err := p.validate(); err != nil {
		return nil, err
	}
	t, err := w.renderTile(p)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return composite(base, t, p), nil
}
