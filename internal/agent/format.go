package agent

import (
	"fmt"
	"strings"
	"time"
)

// FormatWait renders a wait duration compactly: whole hours always;
// minutes only while under a day; seconds only when there are no hours.
// Ties round toward the coarser unit already present.
func FormatWait(d time.Duration) string {
	seconds := int(d.Seconds())
	if seconds < 0 {
		seconds = 0
	}
	hours := seconds / 3600
	remainder := seconds % 3600
	minutes := remainder / 60
	seconds = remainder % 60

	var parts []string
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 && hours < 24 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	if seconds > 0 && hours == 0 {
		parts = append(parts, fmt.Sprintf("%ds", seconds))
	}
	if len(parts) == 0 {
		return "0s"
	}
	return strings.Join(parts, " ")
}
