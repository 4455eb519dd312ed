package report

import (
	"time"

	"github.com/charlie0129/timetocode-dashboard/internal/models"
)

// Metrics are the KPI roll-ups of a filtered report set.
type Metrics struct {
	TotalProductiveMs    int64   `json:"total_productive_ms"`
	TotalInactivityMs    int64   `json:"total_inactivity_ms"`
	DistinctFilesEdited  int     `json:"distinct_files_edited"`
	TotalActions         int     `json:"total_actions"`
	ProductivePercentage float64 `json:"productive_percentage"`
}

// Aggregate reduces filtered reports into Metrics. Log entries are counted
// only when their own time falls inside iv.
func Aggregate(reports []models.Report, iv Interval, loc *time.Location) Metrics {
	var m Metrics
	files := make(map[string]struct{})

	for _, r := range reports {
		for path, ms := range r.FileDurations {
			m.TotalProductiveMs += ms
			files[path] = struct{}{}
		}
		m.TotalInactivityMs += r.InactivityDuration

		for _, e := range r.ActivityLog {
			t, err := models.ParseTimestamp(e.Time, loc)
			if err != nil {
				continue
			}
			if iv.Contains(t) {
				m.TotalActions++
			}
		}
	}

	m.DistinctFilesEdited = len(files)
	if total := m.TotalProductiveMs + m.TotalInactivityMs; total > 0 {
		m.ProductivePercentage = float64(m.TotalProductiveMs) / float64(total) * 100
	}
	return m
}

// InactivePercentage is the complement shown next to the productive share.
func (m Metrics) InactivePercentage() float64 {
	if m.TotalProductiveMs+m.TotalInactivityMs == 0 {
		return 0
	}
	return 100 - m.ProductivePercentage
}
