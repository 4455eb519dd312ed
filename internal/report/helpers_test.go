package report

import (
	"time"

	"github.com/charlie0129/timetocode-dashboard/internal/models"
)

// testNow is a fixed "today" for the pipeline tests.
var testNow = time.Date(2025, 5, 10, 15, 0, 0, 0, time.UTC)

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

// testReport returns a report with sensible defaults, adjusted by opts.
func testReport(opts ...func(*models.Report)) models.Report {
	r := models.Report{
		FileDurations:      map[string]int64{"/src/main.go": 60000},
		ActivityLog:        []models.LogEntry{{Time: "2025-05-10T10:00:00Z", Action: "save", File: "/src/main.go"}},
		InactivityDuration: 30000,
		Timestamp:          "2025-05-10T10:00:00Z",
		UserID:             "alice",
		Projeto:            "api",
	}
	for _, o := range opts {
		o(&r)
	}
	return r
}
