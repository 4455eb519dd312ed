package store

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/oauth2"

	"github.com/charlie0129/timetocode-dashboard/internal/models"
)

// Snapshot is one immutable read of the report collection. Views derive
// everything from it and never modify it.
type Snapshot struct {
	Reports    []models.Report
	Rejected   []Rejection
	FetchedAt  time.Time
	Generation uint64
	Source     string
	Err        error // fetch failure; Reports is empty when set
}

// Loader fetches snapshots from a Source and tracks when they go stale.
type Loader struct {
	source     Source
	generation atomic.Uint64
	now        func() time.Time
}

func NewLoader(source Source) *Loader {
	return &Loader{source: source, now: time.Now}
}

func (l *Loader) Source() Source {
	return l.source
}

// Load performs one full fetch. A failed fetch yields an empty snapshot
// carrying the error; nothing is retried.
func (l *Loader) Load(ctx context.Context, tok *oauth2.Token) *Snapshot {
	gen := l.generation.Load()
	snap := &Snapshot{
		FetchedAt:  l.now(),
		Generation: gen,
		Source:     l.source.Name(),
	}

	res, err := l.source.Fetch(ctx, tok)
	if err != nil {
		return l.fail(snap, err)
	}

	snap.Reports = res.Reports
	if snap.Reports == nil {
		snap.Reports = []models.Report{}
	}
	snap.Rejected = res.Rejected
	slog.Info("loaded report snapshot",
		"source", snap.Source, "reports", len(snap.Reports),
		"rejected", len(snap.Rejected), "generation", gen)
	return snap
}

// Fail returns the empty snapshot of a fetch that could not be attempted.
func (l *Loader) Fail(err error) *Snapshot {
	return l.fail(&Snapshot{
		FetchedAt:  l.now(),
		Generation: l.generation.Load(),
		Source:     l.source.Name(),
	}, err)
}

func (l *Loader) fail(snap *Snapshot, err error) *Snapshot {
	slog.Error("failed to fetch reports", "source", l.source.Name(), "error", err)
	snap.Err = err
	snap.Reports = []models.Report{}
	return snap
}

// Invalidate marks every snapshot loaded so far as stale.
func (l *Loader) Invalidate(reason string) {
	gen := l.generation.Add(1)
	slog.Info("report snapshots invalidated", "reason", reason, "generation", gen)
}

// Stale reports whether snap predates the latest invalidation.
func (l *Loader) Stale(snap *Snapshot) bool {
	return snap == nil || snap.Generation < l.generation.Load()
}

// Generation is the current invalidation count.
func (l *Loader) Generation() uint64 {
	return l.generation.Load()
}
