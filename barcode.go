package lasercode

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/codabar"
	"github.com/boombuler/barcode/code128"
	"github.com/boombuler/barcode/code39"
	"github.com/boombuler/barcode/code93"
	"github.com/boombuler/barcode/ean"
	"github.com/boombuler/barcode/twooffive"
)

// EncodeSVG – renders a payload as a barcode SVG of filled rectangles,
// the input shape Reformat expects.
//
// Format of the options (all optional, the order is not important):
//
//   - type: "code39" (default), "code93", "code128", "codabar", "ean",
//     "2of5", "i2of5" (interleaved 2 of 5).
//   - "checksum": append the optional check character (code39, code93).
//   - "fullascii": full ASCII mode (code39, code93).
//   - <N>"mm": width of one module, 0.2mm by default.
//
// The bars live in a <g id="barcode_group">, preceded by a background
// rectangle without an x attribute.
func EncodeSVG(value string, opts ...string) ([]byte, error) {
	if value == "" {
		return nil, fmt.Errorf("%w: empty payload", ErrEncode)
	}

	// ---------- Default parameters ----------
	codeType := "code39"
	checksum := false
	fullASCII := false
	module := DefaultModuleWidth

	// ---------- Parsing options ----------
	for _, token := range opts {
		token = strings.ToLower(strings.TrimSpace(token))
		switch {
		case token == "":
		case token == "checksum":
			checksum = true
		case token == "fullascii":
			fullASCII = true
		case strings.HasSuffix(token, unitMM):
			v, err := strconv.ParseFloat(strings.TrimSuffix(token, unitMM), 64)
			if err != nil || !(v > 0) {
				return nil, fmt.Errorf("%w: bad module width %q", ErrEncode, token)
			}
			module = v
		case isSymbology(token):
			codeType = token
		default:
			return nil, fmt.Errorf("%w: unknown option %q", ErrEncode, token)
		}
	}

	// ---------- Generating the symbol ----------
	var bc barcode.Barcode
	var err error
	switch codeType {
	case "code93":
		bc, err = code93.Encode(value, checksum, fullASCII)
	case "code128":
		bc, err = code128.Encode(value)
	case "codabar":
		bc, err = codabar.Encode(value)
	case "ean":
		bc, err = ean.Encode(value)
	case "2of5":
		bc, err = twooffive.Encode(value, false)
	case "i2of5":
		bc, err = twooffive.Encode(value, true)
	default:
		bc, err = code39.Encode(value, checksum, fullASCII)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrEncode, codeType, err)
	}
	if bc.Metadata().Dimensions != 1 {
		return nil, fmt.Errorf("%w: %s is not a linear symbol", ErrEncode, codeType)
	}

	return renderSVG(barRuns(bc), bc.Bounds().Dx(), module), nil
}

var symbologies = []string{"code39", "code93", "code128", "codabar", "ean", "2of5", "i2of5"}

// Symbologies – names of the supported symbol types, the default first.
func Symbologies() []string {
	return append([]string(nil), symbologies...)
}

func isSymbology(token string) bool {
	for _, s := range symbologies {
		if s == token {
			return true
		}
	}
	return false
}

// run – consecutive dark modules, [start, start+length)
type run struct {
	start, length int
}

// barRuns – collapses the module row of a 1D symbol into dark runs.
func barRuns(bc barcode.Barcode) []run {
	b := bc.Bounds()
	var runs []run
	cur := run{start: -1}
	for x := b.Min.X; x < b.Max.X; x++ {
		if isDark(bc.At(x, b.Min.Y)) {
			if cur.start < 0 {
				cur = run{start: x - b.Min.X}
			}
			cur.length++
			continue
		}
		if cur.start >= 0 {
			runs = append(runs, cur)
			cur = run{start: -1}
		}
	}
	if cur.start >= 0 {
		runs = append(runs, cur)
	}
	return runs
}

func isDark(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	return (r+g+b)/3 < 0x8000
}

// renderSVG – quiet zone on both sides, one rect per run.
func renderSVG(runs []run, modules int, module float64) []byte {
	width := 2*quietZone + float64(modules)*module
	height := moduleHeight + 2*marginTop

	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	fmt.Fprintf(&sb, `<svg xmlns="%s" width="%s" height="%s">`+"\n", SVGNamespace, formatMM(width), formatMM(height))
	fmt.Fprintf(&sb, `  <g id="%s">`+"\n", DefaultGroupID)
	sb.WriteString(`    <rect width="100%" height="100%" style="fill:white"/>` + "\n")
	for _, r := range runs {
		fmt.Fprintf(&sb, `    <rect x="%s" y="%s" width="%s" height="%s" style="fill:black;"/>`+"\n",
			formatMM(quietZone+float64(r.start)*module),
			formatMM(marginTop),
			formatMM(float64(r.length)*module),
			formatMM(moduleHeight))
	}
	sb.WriteString("  </g>\n</svg>\n")
	return []byte(sb.String())
}
