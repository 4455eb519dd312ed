package report

import (
	"strconv"
	"strings"
	"time"

	"github.com/charlie0129/timetocode-dashboard/internal/models"
)

// Activity is a log entry selected for display, with a stable list key.
type Activity struct {
	Key string `json:"key"`
	models.LogEntry
	At       time.Time `json:"-"`
	FileName string    `json:"file_name"`
	UserID   string    `json:"user_id"`
}

// ProjectActivity flattens the activity logs of reports, keeping entries inside
// iv whose action matches one of selected (case and surrounding whitespace are
// ignored). An empty selected keeps every action. Output follows report order,
// then log order within each report.
//
// Keys are built from the owning report's userId and timestamp plus the
// entry's position within that report's filtered log, so identical entries
// still get distinct keys.
func ProjectActivity(reports []models.Report, iv Interval, selected []string, loc *time.Location) []Activity {
	want := make(map[string]struct{}, len(selected))
	for _, a := range selected {
		want[strings.ToLower(strings.TrimSpace(a))] = struct{}{}
	}

	var out []Activity
	for _, r := range reports {
		idx := 0
		for _, e := range r.ActivityLog {
			t, err := models.ParseTimestamp(e.Time, loc)
			if err != nil || !iv.Contains(t) {
				continue
			}
			if len(want) > 0 {
				if _, ok := want[e.NormalizedAction()]; !ok {
					continue
				}
			}
			out = append(out, Activity{
				Key:      r.UserID + "-" + r.Timestamp + "-" + strconv.Itoa(idx),
				LogEntry: e,
				At:       t,
				FileName: e.FileName(),
				UserID:   r.UserID,
			})
			idx++
		}
	}
	return out
}

// ActionTypes lists the distinct trimmed action labels of reports in the order
// they first appear. Labels differing only in surrounding whitespace collapse.
func ActionTypes(reports []models.Report) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range reports {
		for _, e := range r.ActivityLog {
			a := strings.TrimSpace(e.Action)
			if _, ok := seen[a]; ok {
				continue
			}
			seen[a] = struct{}{}
			out = append(out, a)
		}
	}
	return out
}
