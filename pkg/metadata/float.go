package metadata

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Float is a float64 that marshals with fixed precision.
type Float float64

// Precision is the number of decimals written for every Float.
const Precision = 6

// MarshalJSON implements json.Marshaler.
func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, fmt.Errorf("metadata: cannot encode %v", v)
	}
	return []byte(formatFloat(v)), nil
}

func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', Precision, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" {
		return "0"
	}
	return s
}

// Vec is a position [x, y, z].
type Vec [3]Float
