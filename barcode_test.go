package lasercode_test

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/antchfx/xmlquery"

	"lasercode"
)

// isMultiple – whether v is a positive whole number of modules.
func isMultiple(v, module float64) bool {
	n := v / module
	return n >= 1 && math.Abs(n-math.Round(n)) < 1e-6
}

func TestEncodeSVGShape(t *testing.T) {
	src, err := lasercode.EncodeSVG("05713")
	if err != nil {
		t.Fatalf("failed to encode: %v", err)
	}
	doc, err := xmlquery.Parse(bytes.NewReader(src))
	if err != nil {
		t.Fatalf("generated svg does not parse: %v", err)
	}
	group := xmlquery.FindOne(doc, "//*[@id='barcode_group']")
	if group == nil {
		t.Fatalf("no barcode group in:\n%s", src)
	}
	var rects []*xmlquery.Node
	for n := group.FirstChild; n != nil; n = n.NextSibling {
		if n.Type == xmlquery.ElementNode && n.Data == "rect" {
			rects = append(rects, n)
		}
	}
	if len(rects) < 2 {
		t.Fatalf("expected a border and bars, got %d rects", len(rects))
	}
	for _, a := range rects[0].Attr {
		if a.Name.Local == "x" {
			t.Errorf("border rect carries x=%q", a.Value)
		}
	}
}

func TestEncodeSVGBarsOnModuleGrid(t *testing.T) {
	for _, module := range []float64{0.2, 0.25} {
		src, err := lasercode.EncodeSVG("05713", fmt.Sprintf("%gmm", module))
		if err != nil {
			t.Fatalf("failed to encode: %v", err)
		}
		bars, err := lasercode.ExtractBars(bytes.NewReader(src), lasercode.DefaultGroupID)
		if err != nil {
			t.Fatalf("failed to extract: %v", err)
		}
		if bars[0].X != 6.5 {
			t.Errorf("module %v: first bar at %v, want 6.5 (quiet zone)", module, bars[0].X)
		}
		thin, thick := 0, 0
		for i, b := range bars {
			if !isMultiple(b.Width, module) {
				t.Errorf("module %v: bar %d width %v is off the grid", module, i, b.Width)
			}
			if !isMultiple(b.X-6.5+module, module) {
				t.Errorf("module %v: bar %d at %v is off the grid", module, i, b.X)
			}
			if i > 0 && b.X <= bars[i-1].End() {
				t.Errorf("module %v: bar %d touches the previous one", module, i)
			}
			if math.Abs(b.Width-module) < 1e-9 {
				thin++
			} else {
				thick++
			}
		}
		if thin == 0 || thick == 0 {
			t.Errorf("module %v: code39 should mix thin and thick bars, got %d/%d", module, thin, thick)
		}
	}
}

func TestEncodeSVGSymbologies(t *testing.T) {
	cases := []struct {
		value string
		opts  []string
	}{
		{"05713", nil},
		{"05713", []string{"code39", "checksum"}},
		{"Tag-7", []string{"code39", "fullascii"}},
		{"HELLO", []string{"code93"}},
		{"hello 123", []string{"code128"}},
		{"A40156B", []string{"codabar"}},
		{"5901234123457", []string{"ean"}},
		{"12345", []string{"2of5"}},
		{"123456", []string{"i2of5"}},
		{"05713", []string{" CODE39 ", ""}},
	}
	for _, c := range cases {
		src, err := lasercode.EncodeSVG(c.value, c.opts...)
		if err != nil {
			t.Errorf("EncodeSVG(%q, %v): %v", c.value, c.opts, err)
			continue
		}
		bars, err := lasercode.ExtractBars(bytes.NewReader(src), lasercode.DefaultGroupID)
		if err != nil {
			t.Errorf("EncodeSVG(%q, %v): extract: %v", c.value, c.opts, err)
			continue
		}
		if len(bars) < 5 {
			t.Errorf("EncodeSVG(%q, %v): only %d bars", c.value, c.opts, len(bars))
		}
	}
}

func TestEncodeSVGChecksumAddsBars(t *testing.T) {
	plain, err := lasercode.EncodeSVG("05713")
	if err != nil {
		t.Fatalf("failed to encode: %v", err)
	}
	withSum, err := lasercode.EncodeSVG("05713", "checksum")
	if err != nil {
		t.Fatalf("failed to encode with checksum: %v", err)
	}
	a, _ := lasercode.ExtractBars(bytes.NewReader(plain), lasercode.DefaultGroupID)
	b, _ := lasercode.ExtractBars(bytes.NewReader(withSum), lasercode.DefaultGroupID)
	if len(b) <= len(a) {
		t.Errorf("checksum did not add a character: %d vs %d bars", len(b), len(a))
	}
}

func TestEncodeSVGRejects(t *testing.T) {
	cases := []struct {
		value string
		opts  []string
	}{
		{"", nil},
		{"05713", []string{"qr"}},
		{"05713", []string{"-1mm"}},
		{"05713", []string{"0mm"}},
		{"05713", []string{"abcmm"}},
		{"not digits", []string{"ean"}},
		{"12345", []string{"i2of5"}},
	}
	for _, c := range cases {
		_, err := lasercode.EncodeSVG(c.value, c.opts...)
		if !errors.Is(err, lasercode.ErrEncode) {
			t.Errorf("EncodeSVG(%q, %v): expected ErrEncode, got %v", c.value, c.opts, err)
		}
	}
}

func TestSymbologiesDefaultFirst(t *testing.T) {
	names := lasercode.Symbologies()
	if len(names) == 0 || names[0] != "code39" {
		t.Fatalf("unexpected symbologies: %v", names)
	}
	names[0] = "changed"
	if lasercode.Symbologies()[0] != "code39" {
		t.Errorf("Symbologies exposes its backing array")
	}
}
