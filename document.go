package lasercode

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/antchfx/xmlquery"
)

// Canvas – the output SVG. Lines are only ever appended; the document is
// rendered once by WriteTo or Save.
type Canvas struct {
	root          *xmlquery.Node
	width, height float64
	lines         []LineSpec
}

// NewCanvas – empty SVG sized to the padded target area, one user unit per mm.
func NewCanvas(cfg Config) *Canvas {
	w, h := cfg.TotalWidth(), cfg.TotalHeight()

	root := &xmlquery.Node{Type: xmlquery.ElementNode, Data: "svg"}
	xmlquery.AddAttr(root, "xmlns", SVGNamespace)
	xmlquery.AddAttr(root, "version", "1.2")
	xmlquery.AddAttr(root, "baseProfile", "tiny")
	xmlquery.AddAttr(root, "width", formatNumber(w)+unitMM)
	xmlquery.AddAttr(root, "height", formatNumber(h)+unitMM)
	xmlquery.AddAttr(root, "viewBox", fmt.Sprintf("0 0 %s %s", formatNumber(w), formatNumber(h)))

	return &Canvas{root: root, width: w, height: h}
}

// Size – canvas dimensions in mm, padding included.
func (c *Canvas) Size() (width, height float64) {
	return c.width, c.height
}

// AddLine – appends one stroke to the document.
func (c *Canvas) AddLine(l LineSpec) {
	n := &xmlquery.Node{Type: xmlquery.ElementNode, Data: lineTag}
	xmlquery.AddAttr(n, "x1", formatNumber(l.X))
	xmlquery.AddAttr(n, "y1", formatNumber(l.Y))
	xmlquery.AddAttr(n, "x2", formatNumber(l.X))
	xmlquery.AddAttr(n, "y2", formatNumber(l.Y+l.Height))
	xmlquery.AddAttr(n, "stroke", strokeColor)
	xmlquery.AddAttr(n, "stroke-width", formatNumber(l.StrokeWidth)+"px")
	xmlquery.AddChild(c.root, n)
	c.lines = append(c.lines, l)
}

// Lines – copy of every line added so far, in document order.
func (c *Canvas) Lines() []LineSpec {
	out := make([]LineSpec, len(c.lines))
	copy(out, c.lines)
	return out
}

// Bytes – the serialized document.
func (c *Canvas) Bytes() []byte {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.WriteString(c.root.OutputXML(true))
	buf.WriteByte('\n')
	return buf.Bytes()
}

// WriteTo – writes the serialized document to w.
func (c *Canvas) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(c.Bytes())
	return int64(n), err
}

// Save – writes the document next to path and renames it into place, so
// path holds either the old file or the complete new one.
func (c *Canvas) Save(path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("write svg: %w", err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	if _, err := tmp.Write(c.Bytes()); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write svg: %w", err)
	}
	if err := tmp.Chmod(0644); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write svg: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write svg: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write svg: %w", err)
	}
	return nil
}
