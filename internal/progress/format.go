package progress

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	kb = 1 << 10
	mb = 1 << 20
	gb = 1 << 30
	tb = 1 << 40
)

// FormatBytes renders a byte count for humans ("1.50 GB").
func FormatBytes(b int64) string {
	switch {
	case b >= tb:
		return fmt.Sprintf("%.2f TB", float64(b)/tb)
	case b >= gb:
		return fmt.Sprintf("%.2f GB", float64(b)/gb)
	case b >= mb:
		return fmt.Sprintf("%.2f MB", float64(b)/mb)
	case b >= kb:
		return fmt.Sprintf("%.2f KB", float64(b)/kb)
	default:
		return fmt.Sprintf("%d B", b)
	}
}

// ParseBytes parses a human byte string ("256MB", "1.5GB", "1024").
// Units are binary multiples.
func ParseBytes(s string) (int64, error) {
	s = strings.TrimSpace(s)
	upper := strings.ToUpper(s)

	var multiplier int64 = 1
	switch {
	case strings.HasSuffix(upper, "TB"):
		multiplier, s = tb, s[:len(s)-2]
	case strings.HasSuffix(upper, "GB"):
		multiplier, s = gb, s[:len(s)-2]
	case strings.HasSuffix(upper, "MB"):
		multiplier, s = mb, s[:len(s)-2]
	case strings.HasSuffix(upper, "KB"):
		multiplier, s = kb, s[:len(s)-2]
	case strings.HasSuffix(upper, "B"):
		s = s[:len(s)-1]
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || value < 0 {
		return 0, fmt.Errorf("invalid byte size %q", s)
	}
	return int64(value * float64(multiplier)), nil
}

// FormatDuration renders a duration for humans ("2m 13s").
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh %dm %ds", int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60)
}
