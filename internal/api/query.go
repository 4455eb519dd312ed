package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charlie0129/timetocode-dashboard/internal/auth"
	"github.com/charlie0129/timetocode-dashboard/internal/report"
	"github.com/charlie0129/timetocode-dashboard/internal/store"
)

const dateLayout = "2006-01-02"

// parseQuery reads the filter controls from URL parameters. Invalid dates are
// reported and left unset so the rest of the query still applies.
func parseQuery(v url.Values, loc *time.Location) (report.Query, error) {
	q := report.Query{
		UserID:  v.Get("user"),
		Project: v.Get("project"),
	}

	var errs []error
	parse := func(name string) *time.Time {
		s := strings.TrimSpace(v.Get(name))
		if s == "" {
			return nil
		}
		t, err := time.ParseInLocation(dateLayout, s, loc)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid %s date %q, use YYYY-MM-DD", name, s))
			return nil
		}
		return &t
	}
	q.From = parse("from")
	q.To = parse("to")

	for _, a := range v["action"] {
		if a = strings.TrimSpace(a); a != "" {
			q.Actions = append(q.Actions, a)
		}
	}
	return q, errors.Join(errs...)
}

// encodeQuery is the inverse of parseQuery.
func encodeQuery(q report.Query, loc *time.Location) url.Values {
	v := url.Values{}
	if q.UserID != "" {
		v.Set("user", q.UserID)
	}
	if q.Project != "" {
		v.Set("project", q.Project)
	}
	if q.From != nil {
		v.Set("from", q.From.In(loc).Format(dateLayout))
	}
	if q.To != nil {
		v.Set("to", q.To.In(loc).Format(dateLayout))
	}
	for _, a := range q.Actions {
		v.Add("action", a)
	}
	return v
}

// view is one evaluation of the dashboard pipeline for a request.
type view struct {
	report.Dashboard
	Snapshot *store.Snapshot
	QueryErr error
}

func (h *Handler) buildView(r *http.Request, sess *auth.Session) view {
	q, qerr := parseQuery(r.URL.Query(), h.loc)
	snap := sess.Snapshot(r.Context(), h.loader)
	return view{
		Dashboard: report.Build(snap.Reports, q, h.now(), h.loc),
		Snapshot:  snap,
		QueryErr:  qerr,
	}
}
