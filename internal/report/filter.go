package report

import (
	"time"

	"github.com/charlie0129/timetocode-dashboard/internal/models"
)

// Query holds the dashboard filter controls. Empty strings and nil dates mean
// "not set".
type Query struct {
	UserID  string     `json:"user,omitempty"`
	Project string     `json:"project,omitempty"`
	From    *time.Time `json:"from,omitempty"`
	To      *time.Time `json:"to,omitempty"`
	Actions []string   `json:"actions,omitempty"`
}

// Interval resolves the effective date range of q.
func (q Query) Interval(now time.Time, loc *time.Location) Interval {
	return NewInterval(now, q.From, q.To, loc)
}

// Filter returns the reports matching userID, project and iv, in input order.
// project is compared against the raw projeto field: an empty selector means
// all projects and "sem-projeto" is not substituted here. Reports whose
// timestamp cannot be parsed never match.
func Filter(reports []models.Report, userID, project string, iv Interval, loc *time.Location) []models.Report {
	out := make([]models.Report, 0, len(reports))
	for _, r := range reports {
		if userID != "" && r.UserID != userID {
			continue
		}
		if project != "" && r.Projeto != project {
			continue
		}
		ts, err := r.Time(loc)
		if err != nil || !iv.Contains(ts) {
			continue
		}
		out = append(out, r)
	}
	return out
}
