package batch

import (
	"strings"

	"github.com/xrash/smetrics"
)

// similarity is a case-insensitive edit-distance score from 0 to 100.
func similarity(a, b string) int {
	a, b = strings.ToLower(a), strings.ToLower(b)
	maxLen := max(len(a), len(b))
	if maxLen == 0 {
		return 100
	}
	distance := smetrics.WagnerFischer(a, b, 1, 1, 2)
	return max(0, 100-distance*100/maxLen)
}
