package util

import (
	"math"
	"strconv"
)

// RoundPlaces rounds x to n decimal places, half away from zero.
func RoundPlaces(x float64, n int) float64 {
	shift := math.Pow(10, float64(n))
	return math.Round(x*shift) / shift
}

// FormatFloat renders a float for tabular output without trailing
// zeros. The empty string is never returned; absent values are the
// caller's concern.
func FormatFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}
