package core

import (
	"math"
	"strings"
)

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// RoundCoordinate rounds a latitude/longitude to 6 decimal places.
func RoundCoordinate(f float64) float64 {
	return math.Round(f*1e6) / 1e6
}
