package lasercode

import "math"

// widthEpsilon absorbs float noise of widths parsed from "%.3f" text.
const widthEpsilon = 1e-9

// LineSpec – one vertical stroke from (X, Y) to (X, Y+Height), output units.
type LineSpec struct {
	X      float64
	Y      float64
	Height float64
	// Pitch is the slice of the bar width this line stands for.
	Pitch       float64
	StrokeWidth float64
}

// LinePolicy – how many parallel lines a bar of the given source width becomes.
// Reformat fails with ErrConfig when a bar gets fewer than one line.
type LinePolicy interface {
	LineCount(width float64) int
}

// ThinThickPolicy – bars exactly one module wide are thin, every other bar is thick.
//
// Symbologies with more than two bar widths (code128, ean) still get only
// two line counts, so wide bars of different sizes share the same count and
// differ in pitch only.
type ThinThickPolicy struct {
	ModuleWidth float64
	Thin        int
	Thick       int
}

func (p ThinThickPolicy) LineCount(width float64) int {
	if math.Abs(width-p.ModuleWidth) <= widthEpsilon {
		return p.Thin
	}
	return p.Thick
}

// EmitLines – splits one bar into evenly spaced lines centered in their slices,
// left to right. Every line spans the full target height.
func EmitLines(bar Bar, t ScaleTransform, cfg Config) []LineSpec {
	count := cfg.linePolicy().LineCount(bar.Width)
	if count < 1 {
		return nil
	}
	left := t.X(bar)
	pitch := t.Width(bar) / float64(count)

	lines := make([]LineSpec, 0, count)
	for i := 0; i < count; i++ {
		lines = append(lines, LineSpec{
			X:           left + (float64(i)+0.5)*pitch,
			Y:           t.PadY,
			Height:      cfg.Height,
			Pitch:       pitch,
			StrokeWidth: cfg.StrokeWidth,
		})
	}
	return lines
}
