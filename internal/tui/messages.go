package tui

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/oauth2"

	"github.com/charlie0129/timetocode-dashboard/internal/models"
	"github.com/charlie0129/timetocode-dashboard/internal/report"
	"github.com/charlie0129/timetocode-dashboard/internal/store"
)

type (
	// snapshotLoadedMsg carries a finished fetch
	snapshotLoadedMsg struct {
		Snapshot *store.Snapshot
	}

	// exportDoneMsg reports the outcome of writing the export file
	exportDoneMsg struct {
		Path  string
		Count int
		Err   error
	}
)

// loadSnapshotCmd fetches the report collection asynchronously
func loadSnapshotCmd(ctx context.Context, loader *store.Loader, ts oauth2.TokenSource) tea.Cmd {
	return func() tea.Msg {
		var tok *oauth2.Token
		if ts != nil {
			var err error
			if tok, err = ts.Token(); err != nil {
				return snapshotLoadedMsg{Snapshot: loader.Fail(err)}
			}
		}
		return snapshotLoadedMsg{Snapshot: loader.Load(ctx, tok)}
	}
}

// exportCmd writes reports to path in the export format
func exportCmd(path string, reports []models.Report) tea.Cmd {
	return func() tea.Msg {
		return exportDoneMsg{Path: path, Count: len(reports), Err: WriteExport(path, reports)}
	}
}

// WriteExport writes the export file, leaving any existing file untouched if
// encoding fails.
func WriteExport(path string, reports []models.Report) error {
	data, err := report.MarshalExport(reports)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
