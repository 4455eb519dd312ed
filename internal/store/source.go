package store

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/oauth2"

	"github.com/charlie0129/timetocode-dashboard/internal/models"
)

// Source reads the whole report collection from a document store.
// tok carries the signed-in administrator's credentials; backends that do not
// need them ignore it and it may be nil.
type Source interface {
	Name() string
	Fetch(ctx context.Context, tok *oauth2.Token) (*Result, error)
}

// Result is one full read of the collection.
type Result struct {
	Reports  []models.Report
	Rejected []Rejection
}

// Rejection is a document that did not match the report shape.
type Rejection struct {
	ID  string
	Err error
}

func (r Rejection) Error() string {
	return fmt.Sprintf("document %s: %v", r.ID, r.Err)
}

// Accept validates report and appends it to the result, or records it as
// rejected. Rejections are logged, never silently coerced.
func (r *Result) Accept(id string, report models.Report, decodeErr error) {
	err := decodeErr
	if err == nil {
		err = report.Validate()
	}
	if err != nil {
		rej := Rejection{ID: id, Err: err}
		slog.Warn("rejected malformed report document", "id", id, "error", err)
		r.Rejected = append(r.Rejected, rej)
		return
	}
	r.Reports = append(r.Reports, report)
}
