package lasercode

import "math"

// ScaleTransform – maps source x coordinates onto the target width.
type ScaleTransform struct {
	MinX  float64 // start of the first bar
	MaxX  float64 // end of the last bar
	Scale float64
	PadX  float64
	PadY  float64
}

// Normalize – derives the transform from the first and the last bar.
// Bars are expected in left-to-right order, as ExtractBars returns them.
func Normalize(bars []Bar, cfg Config) (ScaleTransform, error) {
	if len(bars) == 0 {
		return ScaleTransform{}, ErrEmptyBarcode
	}
	minX := bars[0].X
	maxX := bars[len(bars)-1].End()
	if !(maxX > minX) {
		return ScaleTransform{}, &GeometryError{MinX: minX, MaxX: maxX}
	}
	scale := cfg.Width / (maxX - minX)
	if math.IsInf(scale, 0) || math.IsNaN(scale) || scale <= 0 {
		return ScaleTransform{}, &GeometryError{MinX: minX, MaxX: maxX}
	}
	return ScaleTransform{
		MinX:  minX,
		MaxX:  maxX,
		Scale: scale,
		PadX:  cfg.PadX,
		PadY:  cfg.PadY,
	}, nil
}

// X – left edge of the bar in output coordinates.
func (t ScaleTransform) X(b Bar) float64 {
	return (b.X-t.MinX)*t.Scale + t.PadX
}

// Width – bar width in output coordinates.
func (t ScaleTransform) Width(b Bar) float64 {
	return b.Width * t.Scale
}
