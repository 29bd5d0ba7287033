package lasercode

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// unitMM is the only unit suffix the symbol source emits.
const unitMM = "mm"

// ParseLength – parses a length such as "12.340mm" into millimeters.
// A bare number is taken as millimeters as well; any other suffix fails.
func ParseLength(s string) (float64, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return 0, &ParseError{Value: s, Err: errors.New("empty value")}
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(raw, unitMM), 64)
	if err != nil {
		return 0, &ParseError{Value: s, Err: err}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &ParseError{Value: s, Err: errors.New("not a finite number")}
	}
	return v, nil
}

// formatMM – the inverse of ParseLength, with the fixed precision the source documents use.
func formatMM(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64) + unitMM
}

// formatNumber – shortest exact representation, used for output coordinates.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
