package fsrs

import (
	"fmt"
	"math"
	"time"
)

// FormatInterval renders a scheduling interval the way the study UI shows
// it: minutes under an hour, hours under a day, then days, months (30 days)
// and years (365 days). Never less than "1 minute".
func FormatInterval(d time.Duration) string {
	days := d.Hours() / 24

	switch {
	case days < 1.0/24:
		minutes := int(math.Round(d.Minutes()))
		if minutes < 1 {
			minutes = 1
		}
		return pluralize(minutes, "minute")
	case days < 1:
		return pluralize(int(math.Round(d.Hours())), "hour")
	case days < 30:
		return pluralize(int(math.Round(days)), "day")
	case days < 365:
		return pluralize(int(math.Round(days/30)), "month")
	default:
		return pluralize(int(math.Round(days/365)), "year")
	}
}

func pluralize(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
