package report

import (
	"fmt"
	"math"
	"time"
)

// LogTimeLayout is how activity log times are displayed (dd/MM/yyyy HH:mm:ss).
const LogTimeLayout = "02/01/2006 15:04:05"

// FormatMillis formats a millisecond duration as HH:MM:SS. Hours do not wrap at 24.
func FormatMillis(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	sec := (ms / 1000) % 60
	min := (ms / (1000 * 60)) % 60
	hours := ms / (1000 * 60 * 60)
	return fmt.Sprintf("%02d:%02d:%02d", hours, min, sec)
}

// FormatSecondsValue formats a chart value (seconds) back to HH:MM:SS. It is the
// exact inverse of the ms/1000 scaling done by BuildSeries.
func FormatSecondsValue(v float64) string {
	return FormatMillis(int64(math.Round(v * 1000)))
}

// FormatLogTime formats t for the activity list in loc.
func FormatLogTime(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format(LogTimeLayout)
}
