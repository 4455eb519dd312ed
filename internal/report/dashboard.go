package report

import (
	"time"

	"github.com/charlie0129/timetocode-dashboard/internal/models"
)

// Catalog holds the selector options derived from the full snapshot.
type Catalog struct {
	Users    []string `json:"users"`
	Projects []string `json:"projects"`
}

// BuildCatalog lists distinct user ids and project labels in first-seen order.
// Reports without a project contribute "sem-projeto".
func BuildCatalog(reports []models.Report) Catalog {
	c := Catalog{Users: []string{}, Projects: []string{}}
	users := make(map[string]struct{})
	projects := make(map[string]struct{})
	for _, r := range reports {
		if _, ok := users[r.UserID]; !ok {
			users[r.UserID] = struct{}{}
			c.Users = append(c.Users, r.UserID)
		}
		p := r.Project()
		if _, ok := projects[p]; !ok {
			projects[p] = struct{}{}
			c.Projects = append(c.Projects, p)
		}
	}
	return c
}

// Dashboard is everything a view needs for one filter state.
type Dashboard struct {
	Query       Query           `json:"query"`
	Range       Interval        `json:"-"`
	Catalog     Catalog         `json:"catalog"`
	Reports     []models.Report `json:"-"`
	Metrics     Metrics         `json:"metrics"`
	Series      Series          `json:"series"`
	ActionTypes []string        `json:"action_types"`
	Activities  []Activity      `json:"activities"`
}

// Build runs the whole pipeline over the snapshot for q.
func Build(snapshot []models.Report, q Query, now time.Time, loc *time.Location) Dashboard {
	iv := q.Interval(now, loc)
	filtered := Filter(snapshot, q.UserID, q.Project, iv, loc)

	activities := ProjectActivity(filtered, iv, q.Actions, loc)
	if activities == nil {
		activities = []Activity{}
	}
	actionTypes := ActionTypes(filtered)
	if actionTypes == nil {
		actionTypes = []string{}
	}

	return Dashboard{
		Query:       q,
		Range:       iv,
		Catalog:     BuildCatalog(snapshot),
		Reports:     filtered,
		Metrics:     Aggregate(filtered, iv, loc),
		Series:      BuildSeries(filtered),
		ActionTypes: actionTypes,
		Activities:  activities,
	}
}

// ActionSelected reports whether action is one of the selected action types.
func (d Dashboard) ActionSelected(action string) bool {
	for _, a := range d.Query.Actions {
		if a == action {
			return true
		}
	}
	return false
}
