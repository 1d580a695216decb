package comment

import (
	"fmt"
	"time"
)

// FormatTimestamp renders the age of t relative to now as "Just now",
// "Nm ago", "Nh ago" or "Nd ago". A nil or future t is "Just now".
func FormatTimestamp(t *time.Time, now time.Time) string {
	if t == nil {
		return "Just now"
	}

	diff := now.Sub(*t)
	minutes := int(diff / time.Minute)
	hours := minutes / 60
	days := hours / 24

	switch {
	case days > 0:
		return fmt.Sprintf("%dd ago", days)
	case hours > 0:
		return fmt.Sprintf("%dh ago", hours)
	case minutes > 0:
		return fmt.Sprintf("%dm ago", minutes)
	default:
		return "Just now"
	}
}
