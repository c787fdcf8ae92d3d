// Package mathutil provides common mathematical utility functions.
package mathutil

import (
	"math"
	"strconv"

	"github.com/nimora/nimora/pkg/constants"
)

// Ratio returns part as a percentage of whole, evaluated as (part / whole) * 100.
// The evaluation order matters for boundary comparisons and must not be
// rearranged to part*100/whole.
func Ratio(part, whole int) float64 {
	return (float64(part) / float64(whole)) * constants.PercentageMultiplier
}

// CalculatePercentage calculates what percentage value is of total
func CalculatePercentage(value, total float64) float64 {
	if total == 0 {
		return 0
	}
	return (value / total) * constants.PercentageMultiplier
}

// RoundPercentage rounds a percentage to the nearest whole number, halves away from zero.
func RoundPercentage(val float64) int {
	return int(math.Round(val))
}

// WithinTolerance checks if two values are within a specified tolerance
func WithinTolerance(val1, val2, tolerance float64) bool {
	return math.Abs(val1-val2) <= tolerance
}

// TruncateDecimal renders val rounded to places+1 decimals and then drops the
// final digit, e.g. 8.123456 with 4 places gives "8.1234" and 8.999996 gives "9.0000".
func TruncateDecimal(val float64, places int) string {
	formatted := strconv.FormatFloat(val, 'f', places+1, 64)
	if places == 0 {
		// drop the trailing digit and the decimal point
		return formatted[:len(formatted)-2]
	}
	return formatted[:len(formatted)-1]
}

// Abs returns the absolute value of an int.
func Abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
