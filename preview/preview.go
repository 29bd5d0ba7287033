// Package preview rasterizes a reformatted barcode so the cut can be checked
// by eye before it goes to the laser.
package preview

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/vector"

	"lasercode"
)

// DefaultPxPerMM gives about 254 dpi.
const DefaultPxPerMM = 10.0

// maxSide – upper bound for either side of the image, px.
const maxSide = 20000

// Render draws every line of the canvas as a black strip, as wide as the
// slice of the bar the line stands for, on a white background.
func Render(c *lasercode.Canvas, pxPerMM float64) (*image.RGBA, error) {
	if !(pxPerMM > 0) {
		return nil, fmt.Errorf("preview: resolution must be positive, got %g", pxPerMM)
	}
	wmm, hmm := c.Size()
	w := int(math.Ceil(wmm * pxPerMM))
	h := int(math.Ceil(hmm * pxPerMM))
	if w <= 0 || h <= 0 || w > maxSide || h > maxSide {
		return nil, fmt.Errorf("preview: image size %dx%d out of range", w, h)
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	lines := c.Lines()
	if len(lines) == 0 {
		return img, nil
	}

	z := vector.NewRasterizer(w, h)
	for _, l := range lines {
		half := l.Pitch / 2
		if half <= 0 {
			half = l.StrokeWidth / 2
		}
		x0 := float32((l.X - half) * pxPerMM)
		x1 := float32((l.X + half) * pxPerMM)
		y0 := float32(l.Y * pxPerMM)
		y1 := float32((l.Y + l.Height) * pxPerMM)
		z.MoveTo(x0, y0)
		z.LineTo(x1, y0)
		z.LineTo(x1, y1)
		z.LineTo(x0, y1)
		z.ClosePath()
	}
	z.Draw(img, img.Bounds(), image.NewUniform(color.Black), image.Point{})
	return img, nil
}

// WritePNG encodes img as PNG.
func WritePNG(w io.Writer, img image.Image) error {
	if img == nil {
		return errors.New("preview: nil image")
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("preview: encode png: %w", err)
	}
	return nil
}
