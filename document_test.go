package lasercode_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/antchfx/xmlquery"
	"github.com/google/go-cmp/cmp"

	"lasercode"
)

func TestCanvasHeader(t *testing.T) {
	cfg := lasercode.DefaultConfig()
	cfg.Width, cfg.Height, cfg.PadX, cfg.PadY = 60, 20, 2.5, 0

	c := lasercode.NewCanvas(cfg)
	if w, h := c.Size(); w != 65 || h != 20 {
		t.Errorf("size = %vx%v, want 65x20", w, h)
	}

	out := string(c.Bytes())
	if !strings.HasPrefix(out, `<?xml version="1.0"`) {
		t.Errorf("missing xml declaration:\n%s", out)
	}
	for _, want := range []string{
		`xmlns="http://www.w3.org/2000/svg"`,
		`width="65mm"`,
		`height="20mm"`,
		`viewBox="0 0 65 20"`,
		`baseProfile="tiny"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("header lacks %s:\n%s", want, out)
		}
	}
}

func TestCanvasAddLine(t *testing.T) {
	c := lasercode.NewCanvas(lasercode.DefaultConfig())
	want := []lasercode.LineSpec{
		{X: 7.5, Y: 5, Height: 16, Pitch: 1, StrokeWidth: 0.1},
		{X: 9.25, Y: 5, Height: 16, Pitch: 0.5, StrokeWidth: 0.1},
	}
	for _, l := range want {
		c.AddLine(l)
	}
	if diff := cmp.Diff(want, c.Lines()); diff != "" {
		t.Errorf("lines (-want +got):\n%s", diff)
	}

	doc, err := xmlquery.Parse(bytes.NewReader(c.Bytes()))
	if err != nil {
		t.Fatalf("canvas does not parse: %v", err)
	}
	nodes := xmlquery.Find(doc, "//*[local-name()='line']")
	if len(nodes) != 2 {
		t.Fatalf("got %d line elements, want 2", len(nodes))
	}
	got := [][]string{}
	for _, n := range nodes {
		got = append(got, []string{
			n.SelectAttr("x1"), n.SelectAttr("y1"),
			n.SelectAttr("x2"), n.SelectAttr("y2"),
			n.SelectAttr("stroke"), n.SelectAttr("stroke-width"),
		})
	}
	wantAttrs := [][]string{
		{"7.5", "5", "7.5", "21", "rgb(0%,0%,0%)", "0.1px"},
		{"9.25", "5", "9.25", "21", "rgb(0%,0%,0%)", "0.1px"},
	}
	if diff := cmp.Diff(wantAttrs, got); diff != "" {
		t.Errorf("line attributes (-want +got):\n%s", diff)
	}
}

func TestCanvasLinesIsACopy(t *testing.T) {
	c := lasercode.NewCanvas(lasercode.DefaultConfig())
	c.AddLine(lasercode.LineSpec{X: 1})
	c.Lines()[0].X = 99
	if c.Lines()[0].X != 1 {
		t.Errorf("Lines exposes internal state")
	}
}

func TestCanvasWriteToAndSave(t *testing.T) {
	c := lasercode.NewCanvas(lasercode.DefaultConfig())
	c.AddLine(lasercode.LineSpec{X: 10, Y: 5, Height: 16, StrokeWidth: 0.1})

	var buf bytes.Buffer
	n, err := c.WriteTo(&buf)
	if err != nil {
		t.Fatalf("failed to write canvas: %v", err)
	}
	if n != int64(buf.Len()) {
		t.Errorf("WriteTo reported %d bytes, wrote %d", n, buf.Len())
	}

	path := filepath.Join(t.TempDir(), "out.svg")
	if err := c.Save(path); err != nil {
		t.Fatalf("failed to save canvas: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read saved canvas: %v", err)
	}
	if !bytes.Equal(data, buf.Bytes()) {
		t.Errorf("saved file differs from WriteTo output")
	}

	if err := c.Save(filepath.Join(t.TempDir(), "missing", "out.svg")); err == nil {
		t.Errorf("expected an error for a missing directory")
	}
}

func TestCanvasSaveReplacesWhole(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.svg")
	if err := os.WriteFile(path, []byte("old"), 0644); err != nil {
		t.Fatalf("failed to write old file: %v", err)
	}
	c := lasercode.NewCanvas(lasercode.DefaultConfig())
	if err := c.Save(path); err != nil {
		t.Fatalf("failed to save canvas: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read saved canvas: %v", err)
	}
	if !bytes.Equal(data, c.Bytes()) {
		t.Errorf("old content survived:\n%s", data)
	}
	fi, err := os.Stat(path)
	if err != nil {
		t.Fatalf("failed to stat: %v", err)
	}
	if fi.Mode().Perm() != 0644 {
		t.Errorf("mode = %v, want 0644", fi.Mode().Perm())
	}

	// a directory in the way fails the rename; nothing is left behind
	blocked := filepath.Join(dir, "blocked.svg")
	if err := os.Mkdir(blocked, 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := c.Save(blocked); err == nil {
		t.Errorf("expected an error when the target is a directory")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to read dir: %v", err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	if len(names) != 2 {
		t.Errorf("unexpected files after save: %v", names)
	}
}
