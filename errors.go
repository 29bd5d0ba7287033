package lasercode

import (
	"errors"
	"fmt"
)

// Error classes of the reformatting pipeline. All of them are fatal: they
// point at a defect in the input document or the configuration.
var (
	// ErrStructure – the barcode group (or the document itself) is missing or unreadable.
	ErrStructure = errors.New("barcode group not found")
	// ErrParse – a length attribute could not be parsed.
	ErrParse = errors.New("malformed length")
	// ErrEmptyBarcode – the group holds no bars, only the border.
	ErrEmptyBarcode = errors.New("no bars found in barcode group")
	// ErrGeometry – the bars have no positive horizontal extent.
	ErrGeometry = errors.New("degenerate barcode extent")
	// ErrConfig – invalid target dimensions or policy.
	ErrConfig = errors.New("invalid config")
	// ErrEncode – the symbol source rejected the payload or its options.
	ErrEncode = errors.New("cannot encode barcode")
)

// ParseError describes a length attribute that could not be read.
type ParseError struct {
	Attr  string // attribute name, empty when parsing a bare value
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("%v %q", ErrParse, e.Value)
	if e.Attr != "" {
		msg = fmt.Sprintf("attribute %s: %s", e.Attr, msg)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Err }

// Is makes every *ParseError match ErrParse.
func (e *ParseError) Is(target error) bool { return target == ErrParse }

// GeometryError reports the offending extent.
type GeometryError struct {
	MinX, MaxX float64
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("%v: min_x=%g max_x=%g", ErrGeometry, e.MinX, e.MaxX)
}

func (e *GeometryError) Is(target error) bool { return target == ErrGeometry }
