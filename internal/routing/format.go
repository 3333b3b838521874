package routing

import "fmt"

// FormatDistance renders kilometres with one decimal, e.g. "5.7 km"
func FormatDistance(km float64) string {
	return fmt.Sprintf("%.1f km", km)
}

// FormatDuration renders minutes as "27 min" below an hour and "1h05" above
func FormatDuration(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%d min", minutes)
	}
	return fmt.Sprintf("%dh%02d", minutes/60, minutes%60)
}
