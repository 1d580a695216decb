package player

import (
	"fmt"
	"math"
)

// Inputs beyond this many seconds are clamped before formatting.
const maxFormattableSeconds = 1 << 53

// FormatTime renders a duration in seconds as M:SS. NaN, infinite and
// negative values render as 0:00, which is what media reports before its
// metadata has loaded.
func FormatTime(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		seconds = 0
	}
	if seconds > maxFormattableSeconds {
		seconds = maxFormattableSeconds
	}
	total := int64(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
