// Package sizefmt renders byte counts the way the upload UI displays them.
package sizefmt

import (
	"math"
	"strconv"
)

var units = []string{"Bytes", "KB", "MB", "GB"}

// Format renders bytes in base-1024 units, picking the largest unit whose
// scaled value is at least 1 and rounding to two decimals. Trailing zeros are
// dropped, so 1536 becomes "1.5 KB".
func Format(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}
	i := 0
	div := int64(1)
	for i < len(units)-1 && bytes/div >= 1024 {
		div *= 1024
		i++
	}
	scaled := float64(bytes) / float64(div)
	rounded := math.Round(scaled*100) / 100
	return strconv.FormatFloat(rounded, 'f', -1, 64) + " " + units[i]
}

// Megabytes renders bytes as MB with exactly two decimals ("2.00").
func Megabytes(bytes int64) string {
	return strconv.FormatFloat(float64(bytes)/1024/1024, 'f', 2, 64)
}
