package lasercode

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
)

// Bar – one dark bar of the source barcode, millimeters.
// Only X and Width take part in reformatting.
type Bar struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// End – right edge of the bar.
func (b Bar) End() float64 { return b.X + b.Width }

type rectKind int

const (
	rectBorder rectKind = iota
	rectBar
)

// ExtractBars – reads an SVG document and returns the bars of the group
// with the given id, in document order. The border rectangle is dropped.
func ExtractBars(r io.Reader, groupID string) ([]Bar, error) {
	doc, err := xmlquery.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%w: parse svg: %v", ErrStructure, err)
	}
	group, err := FindBarGroup(doc, groupID)
	if err != nil {
		return nil, err
	}
	return barsOf(group)
}

// FindBarGroup – finds the element with id groupID anywhere in the tree.
func FindBarGroup(doc *xmlquery.Node, groupID string) (*xmlquery.Node, error) {
	expr, err := groupSelector(groupID)
	if err != nil {
		return nil, err
	}
	group := xmlquery.QuerySelector(doc, expr)
	if group == nil {
		return nil, fmt.Errorf("%w: no element with id %q", ErrStructure, groupID)
	}
	return group, nil
}

// groupSelector – //*[@id='...'], quoted so that any id is a literal.
func groupSelector(groupID string) (*xpath.Expr, error) {
	var literal string
	switch {
	case !strings.Contains(groupID, "'"):
		literal = "'" + groupID + "'"
	case !strings.Contains(groupID, `"`):
		literal = `"` + groupID + `"`
	default:
		return nil, fmt.Errorf("%w: group id %q mixes both quote kinds", ErrConfig, groupID)
	}
	expr, err := xpath.Compile("//*[@id=" + literal + "]")
	if err != nil {
		return nil, fmt.Errorf("%w: group selector: %v", ErrConfig, err)
	}
	return expr, nil
}

// barsOf – direct rect children of the group, classified and parsed.
func barsOf(group *xmlquery.Node) ([]Bar, error) {
	var bars []Bar
	index := 0
	for n := group.FirstChild; n != nil; n = n.NextSibling {
		if !isSVGElement(n, rectTag) {
			continue
		}
		index++
		if classifyRect(n) == rectBorder {
			continue
		}
		bar, err := parseBar(n)
		if err != nil {
			return nil, fmt.Errorf("rect #%d: %w", index, err)
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

// classifyRect – the source generator marks its border by leaving out x.
// A blank but non-empty x is a bar and fails to parse.
func classifyRect(n *xmlquery.Node) rectKind {
	if v, ok := attr(n, "x"); !ok || v == "" {
		return rectBorder
	}
	return rectBar
}

func parseBar(n *xmlquery.Node) (Bar, error) {
	var bar Bar
	fields := []struct {
		name string
		dst  *float64
	}{
		{"x", &bar.X},
		{"y", &bar.Y},
		{"width", &bar.Width},
		{"height", &bar.Height},
	}
	for _, f := range fields {
		raw, ok := attr(n, f.name)
		if !ok {
			return Bar{}, &ParseError{Attr: f.name, Err: errors.New("missing attribute")}
		}
		v, err := ParseLength(raw)
		if err != nil {
			var pe *ParseError
			if errors.As(err, &pe) {
				pe.Attr = f.name
			}
			return Bar{}, err
		}
		*f.dst = v
	}
	return bar, nil
}

func isSVGElement(n *xmlquery.Node, local string) bool {
	if n.Type != xmlquery.ElementNode || n.Data != local {
		return false
	}
	return n.NamespaceURI == "" || n.NamespaceURI == SVGNamespace
}

// attr – unprefixed attribute lookup that tells a missing attribute from an empty one.
func attr(n *xmlquery.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Name.Space == "" && a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}
