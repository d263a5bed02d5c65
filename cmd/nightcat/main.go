// Command nightcat embeds and extracts text watermarks from the
// command line.
//
//	nightcat embed -text "draft" -out ./out photo1.jpg photo2.png
//	nightcat embed -blind-text "id=42" -password pw -out ./out photo.png
//	nightcat extract -password pw -bits 112 photo_blind-112.png
//	nightcat capacity photo.png
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	nightcat "github.com/NightCatCoding/NightCatWatermark"
	"github.com/NightCatCoding/NightCatWatermark/visible"
)

type envOptions struct {
	OutputDir string `envconfig:"OUTPUT_DIR" default:"."`
	FontPath  string `envconfig:"FONT_PATH"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	// A .env file is optional; real environment variables win.
	_ = godotenv.Load()
	var env envOptions
	if err := envconfig.Process("nightcat", &env); err != nil {
		return fmt.Errorf("read environment: %w", err)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(env.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if len(os.Args) < 2 {
		usage()
		return fmt.Errorf("missing subcommand")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch os.Args[1] {
	case "embed":
		return runEmbed(ctx, env, logger, os.Args[2:])
	case "extract":
		return runExtract(ctx, env, logger, os.Args[2:])
	case "capacity":
		return runCapacity(env, os.Args[2:])
	default:
		usage()
		return fmt.Errorf("unknown subcommand %q", os.Args[1])
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage:
  nightcat embed [-text T] [-blind-text T -password P] [flags] <image>...
  nightcat extract -password P -bits N <image>...
  nightcat capacity <image>...`)
}

func newWatermarker(env envOptions, logger *slog.Logger) (*nightcat.Watermarker, error) {
	opts := []nightcat.Option{nightcat.WithLogger(logger)}
	if env.FontPath != "" {
		opts = append(opts, nightcat.WithFontPath(env.FontPath))
	}
	return nightcat.New(opts...)
}

func runEmbed(ctx context.Context, env envOptions, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("embed", flag.ExitOnError)
	var (
		text      = fs.String("text", "", "visible watermark text")
		fontSize  = fs.Int("font-size", 40, "visible watermark font size in pixels")
		opacity   = fs.Int("opacity", 80, "visible watermark opacity, 0-255")
		angle     = fs.Float64("angle", -30, "visible watermark rotation in degrees")
		blindText = fs.String("blind-text", "", "hidden payload text")
		password  = fs.String("password", "", "hidden payload password")
		format    = fs.String("format", "png", "output format for visible-only runs (png or jpg)")
		outDir    = fs.String("out", env.OutputDir, "output directory")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("embed: no input images")
	}

	cfg := nightcat.BatchConfig{
		Sources:   fs.Args(),
		OutputDir: *outDir,
		Format:    *format,
	}
	if *text != "" {
		p := visible.DefaultParams(*text)
		p.FontSize = *fontSize
		p.Opacity = *opacity
		p.Angle = *angle
		cfg.Visible = nightcat.VisibleConfig{Enabled: true, Params: p}
	}
	if *blindText != "" {
		cfg.Blind = nightcat.BlindConfig{Enabled: true, Text: *blindText, Password: *password}
	}

	w, err := newWatermarker(env, logger)
	if err != nil {
		return err
	}
	results, err := w.EmbedBatch(ctx, cfg)
	if err != nil {
		return err
	}
	var failed int
	for res := range results {
		if res.Err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "FAIL %s: %v\n", res.Source, res.Err)
			continue
		}
		if res.BitLength > 0 {
			fmt.Printf("%s -> %s (payload %d bits)\n", res.Source, res.Output, res.BitLength)
		} else {
			fmt.Printf("%s -> %s\n", res.Source, res.Output)
		}
	}
	if failed > 0 {
		return fmt.Errorf("embed: %d of %d files failed", failed, len(cfg.Sources))
	}
	return nil
}

func runExtract(ctx context.Context, env envOptions, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	var (
		password = fs.String("password", "", "payload password")
		bits     = fs.Int("bits", 0, "payload bit length reported at embed time")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("extract: no input images")
	}

	w, err := newWatermarker(env, logger)
	if err != nil {
		return err
	}
	results, err := w.ExtractBatch(ctx, fs.Args(), *password, *bits)
	if err != nil {
		return err
	}
	var failed int
	for res := range results {
		if res.Err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "FAIL %s: %v\n", res.Source, res.Err)
			continue
		}
		fmt.Printf("%s: %s\n", res.Source, res.Text)
	}
	if failed > 0 {
		return fmt.Errorf("extract: %d file(s) failed", failed)
	}
	return nil
}

func runCapacity(env envOptions, args []string) error {
	fs := flag.NewFlagSet("capacity", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("capacity: no input images")
	}
	w, err := newWatermarker(env, slog.Default())
	if err != nil {
		return err
	}
	for _, path := range fs.Args() {
		bits, maxText, err := w.Capacity(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FAIL %s: %v\n", path, err)
			continue
		}
		fmt.Printf("%s: %d bits, up to %d bytes of text\n", path, bits, maxText)
	}
	return nil
}
