package route

import (
	"fmt"
	"math"
)

// FormatDistance renders metres as "850 m" or "1.2 km".
func FormatDistance(meters float64) string {
	if meters < 0 || math.IsNaN(meters) {
		meters = 0
	}
	if meters < 1000 {
		return fmt.Sprintf("%d m", int(math.Round(meters)))
	}
	return fmt.Sprintf("%.1f km", meters/1000)
}

// FormatDuration renders minutes as "42 min" or "1h 05m".
func FormatDuration(minutes float64) string {
	if minutes < 0 || math.IsNaN(minutes) {
		minutes = 0
	}
	total := int(math.Round(minutes))
	if total < 60 {
		return fmt.Sprintf("%d min", total)
	}
	return fmt.Sprintf("%dh %02dm", total/60, total%60)
}
