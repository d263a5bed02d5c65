package nightcat

import (
	"context"
	"fmt"
	"image"
	"path/filepath"

	"github.com/NightCatCoding/NightCatWatermark/internal/imgio"
	"github.com/NightCatCoding/NightCatWatermark/visible"
)

// VisibleConfig switches the tiled text watermark on for a batch run.
type VisibleConfig struct {
	Enabled bool
	Params  visible.Params
}

// BlindConfig switches the hidden payload on for a batch run.
type BlindConfig struct {
	Enabled  bool
	Text     string
	Password string
}

// BatchConfig describes one embed run over a set of source images.
// At least one of Visible and Blind must be enabled. Format selects
// the output encoding for visible-only runs; any run with a blind
// payload is written as PNG regardless.
type BatchConfig struct {
	Sources   []string
	OutputDir string
	Format    string
	Visible   VisibleConfig
	Blind     BlindConfig
}

// FileResult reports the outcome for one source image. BitLength is
// the count extraction needs later; it is zero when no blind payload
// was embedded.
type FileResult struct {
	Source    string
	Output    string
	BitLength int
	Err       error
}

func (cfg BatchConfig) validate() error {
	if len(cfg.Sources) == 0 {
		return fmt.Errorf("%w: no source images", ErrInvalidInput)
	}
	if !cfg.Visible.Enabled && !cfg.Blind.Enabled {
		return fmt.Errorf("%w: neither visible nor blind watermark enabled", ErrInvalidInput)
	}
	if cfg.Visible.Enabled && cfg.Visible.Params.Text == "" {
		return fmt.Errorf("%w: visible watermark text is empty", ErrInvalidInput)
	}
	if cfg.Blind.Enabled {
		if cfg.Blind.Text == "" {
			return fmt.Errorf("%w: blind payload text is empty", ErrInvalidInput)
		}
		if cfg.Blind.Password == "" {
			return fmt.Errorf("%w: blind payload password is empty", ErrInvalidInput)
		}
	}
	return nil
}

// EmbedBatch watermarks every image in cfg.Sources, writing outputs to
// cfg.OutputDir under the conventional names. Results stream on the
// returned channel in source order, one per input, and the channel
// closes when the run finishes. A failed file is reported and skipped;
// cancelling ctx stops the run between files, leaving the remaining
// sources unreported.
//
// When both watermarks are enabled the visible tile is applied first
// and the payload is embedded into the tiled result, so the payload
// survives the compositing.
func (w *Watermarker) EmbedBatch(ctx context.Context, cfg BatchConfig) (<-chan FileResult, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	results := make(chan FileResult)
	go func() {
		defer close(results)
		for i, src := range cfg.Sources {
			if ctx.Err() != nil {
				w.logger.Info("batch cancelled", "done", i, "total", len(cfg.Sources))
				return
			}
			res := w.embedOne(ctx, cfg, src)
			if res.Err != nil {
				w.logger.Warn("embed failed", "source", src, "error", res.Err)
			} else {
				w.logger.Info("embedded", "source", src, "output", res.Output, "bits", res.BitLength)
			}
			select {
			case results <- res:
			case <-ctx.Done():
				return
			}
		}
	}()
	return results, nil
}

func (w *Watermarker) embedOne(ctx context.Context, cfg BatchConfig, src string) FileResult {
	res := FileResult{Source: src}
	img, err := imgio.Load(src)
	if err != nil {
		res.Err = err
		return res
	}
	var out image.Image = img
	if cfg.Visible.Enabled {
		out, err = w.visible.Apply(ctx, out, cfg.Visible.Params)
		if err != nil {
			res.Err = err
			return res
		}
	}
	if cfg.Blind.Enabled {
		out, res.BitLength, err = w.EmbedBlindImage(ctx, out, cfg.Blind.Password, cfg.Blind.Text)
		if err != nil {
			res.Err = err
			return res
		}
	}
	name := OutputName(src, cfg.Visible.Enabled, cfg.Blind.Enabled, res.BitLength, cfg.Format)
	res.Output = filepath.Join(cfg.OutputDir, name)
	if cfg.Blind.Enabled {
		// The payload does not survive a lossy re-encode.
		res.Output = imgio.ForceLossless(res.Output)
	}
	if err := imgio.Save(res.Output, out); err != nil {
		res.Err = err
		res.Output = ""
		return res
	}
	return res
}

// ExtractResult reports the recovered text for one source image.
type ExtractResult struct {
	Source string
	Text   string
	Err    error
}

// ExtractBatch recovers the hidden payload from every image in paths
// using one shared password and bit length. Results stream in input
// order; a file whose payload does not decode is reported with its
// error and the run continues.
func (w *Watermarker) ExtractBatch(ctx context.Context, paths []string, password string, bitLength int) (<-chan ExtractResult, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no source images", ErrInvalidInput)
	}
	if password == "" {
		return nil, fmt.Errorf("%w: password is empty", ErrInvalidInput)
	}
	if bitLength <= 0 {
		return nil, fmt.Errorf("%w: bit length %d", ErrInvalidInput, bitLength)
	}
	results := make(chan ExtractResult)
	go func() {
		defer close(results)
		for i, src := range paths {
			if ctx.Err() != nil {
				w.logger.Info("batch cancelled", "done", i, "total", len(paths))
				return
			}
			text, err := w.ExtractBlind(ctx, src, password, bitLength)
			if err != nil {
				w.logger.Warn("extract failed", "source", src, "error", err)
			}
			select {
			case results <- ExtractResult{Source: src, Text: text, Err: err}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return results, nil
}
