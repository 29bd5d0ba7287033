package lasercode

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config – target geometry and line policy of one reformatting call.
// The zero value is not usable, start from DefaultConfig.
type Config struct {
	Width       float64 `yaml:"width"`        // target barcode width, mm
	Height      float64 `yaml:"height"`       // target line height, mm
	PadX        float64 `yaml:"pad_x"`        // left/right padding, mm
	PadY        float64 `yaml:"pad_y"`        // top/bottom padding, mm
	StrokeWidth float64 `yaml:"stroke_width"` // px
	ModuleWidth float64 `yaml:"module_width"` // narrowest source bar, mm
	GroupID     string  `yaml:"group_id"`

	// Policy decides how many lines a bar becomes. Nil means thin/thick
	// classification against ModuleWidth.
	Policy LinePolicy `yaml:"-"`

	// Logger receives debug output of the pipeline. Nil means slog.Default().
	Logger *slog.Logger `yaml:"-"`
}

// DefaultConfig – 45×16 mm barcode with 5 mm padding, 1/4 lines per thin/thick bar.
func DefaultConfig() Config {
	return Config{
		Width:       DefaultWidth,
		Height:      DefaultHeight,
		PadX:        DefaultPadX,
		PadY:        DefaultPadY,
		StrokeWidth: DefaultStrokeWidth,
		ModuleWidth: DefaultModuleWidth,
		GroupID:     DefaultGroupID,
	}
}

// LoadConfig – reads a YAML file on top of DefaultConfig.
// Keys missing from the file keep their defaults.
func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()
	return DecodeConfig(f)
}

// DecodeConfig – same as LoadConfig for an already opened stream.
func DecodeConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	data, err := io.ReadAll(r)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return cfg, nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	return cfg, cfg.Validate()
}

// Validate – checks dimensions and the group id.
func (c Config) Validate() error {
	errs := []error{
		checkLength("width", c.Width, true),
		checkLength("height", c.Height, true),
		checkLength("pad_x", c.PadX, false),
		checkLength("pad_y", c.PadY, false),
		checkLength("stroke_width", c.StrokeWidth, true),
	}
	if c.Policy == nil {
		errs = append(errs, checkLength("module_width", c.ModuleWidth, true))
	}
	if strings.TrimSpace(c.GroupID) == "" {
		errs = append(errs, errors.New("group id is empty"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrConfig, err)
	}
	return nil
}

func checkLength(name string, v float64, positive bool) error {
	switch {
	case math.IsNaN(v) || math.IsInf(v, 0):
		return fmt.Errorf("%s must be a finite number, got %g", name, v)
	case positive && v <= 0:
		return fmt.Errorf("%s must be positive, got %g", name, v)
	case v < 0:
		return fmt.Errorf("%s must not be negative, got %g", name, v)
	}
	return nil
}

// TotalWidth – canvas width including padding.
func (c Config) TotalWidth() float64 { return c.Width + 2*c.PadX }

// TotalHeight – canvas height including padding.
func (c Config) TotalHeight() float64 { return c.Height + 2*c.PadY }

func (c Config) linePolicy() LinePolicy {
	if c.Policy != nil {
		return c.Policy
	}
	return ThinThickPolicy{ModuleWidth: c.ModuleWidth, Thin: DefaultThinLines, Thick: DefaultThickLines}
}

func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}
