package lasercode

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Reformat – turns a barcode SVG made of filled rectangles into a canvas of
// thin vertical lines. Nothing is written anywhere; the caller saves the canvas.
func Reformat(r io.Reader, cfg Config) (*Canvas, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := cfg.logger()

	bars, err := ExtractBars(r, cfg.GroupID)
	if err != nil {
		return nil, err
	}
	t, err := Normalize(bars, cfg)
	if err != nil {
		return nil, err
	}
	log.Debug("barcode extent",
		slog.Int("bars", len(bars)),
		slog.Float64("min_x", t.MinX),
		slog.Float64("max_x", t.MaxX),
		slog.Float64("x_scale", t.Scale))

	canvas := NewCanvas(cfg)
	for i, bar := range bars {
		lines := EmitLines(bar, t, cfg)
		if len(lines) == 0 {
			return nil, fmt.Errorf("%w: line policy gives no lines for bar #%d (width %g)", ErrConfig, i+1, bar.Width)
		}
		log.Debug("bar",
			slog.Int("index", i),
			slog.Float64("x", t.X(bar)),
			slog.Float64("width", bar.Width),
			slog.Int("lines", len(lines)))
		for _, l := range lines {
			canvas.AddLine(l)
		}
	}
	return canvas, nil
}

// ReformatFile – Reformat from one file into another and return the saved
// canvas. The output file is created only when the whole barcode was converted.
func ReformatFile(inPath, outPath string, cfg Config) (*Canvas, error) {
	f, err := os.Open(inPath)
	if err != nil {
		return nil, fmt.Errorf("open svg: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	canvas, err := Reformat(f, cfg)
	if err != nil {
		return nil, fmt.Errorf("reformat %s: %w", inPath, err)
	}
	if err := canvas.Save(outPath); err != nil {
		return nil, err
	}
	cfg.logger().Info("saved output", slog.String("path", outPath), slog.Int("lines", len(canvas.lines)))
	return canvas, nil
}

// Generate – encodes the payload and reformats the result in memory.
// Option tokens are those of EncodeSVG; the module width always follows cfg.
func Generate(payload string, cfg Config, opts ...string) (*Canvas, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	tokens := append([]string{}, opts...)
	if cfg.ModuleWidth > 0 {
		token := formatMM(cfg.ModuleWidth)
		tokens = append(tokens, token)
		// bar widths come back with the precision of the token
		module, err := ParseLength(token)
		if err != nil {
			return nil, err
		}
		cfg.ModuleWidth = module
	}
	src, err := EncodeSVG(payload, tokens...)
	if err != nil {
		return nil, err
	}
	// the generated document always uses the default group id
	cfg.GroupID = DefaultGroupID
	return Reformat(bytes.NewReader(src), cfg)
}

// GenerateFile – Generate and save to outPath.
func GenerateFile(payload, outPath string, cfg Config, opts ...string) (*Canvas, error) {
	canvas, err := Generate(payload, cfg, opts...)
	if err != nil {
		return nil, err
	}
	if err := canvas.Save(outPath); err != nil {
		return nil, err
	}
	cfg.logger().Info("saved output", slog.String("path", outPath), slog.Int("lines", len(canvas.lines)))
	return canvas, nil
}
