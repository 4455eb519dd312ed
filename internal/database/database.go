package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/oauth2"
	_ "modernc.org/sqlite"

	"github.com/charlie0129/timetocode-dashboard/internal/models"
	"github.com/charlie0129/timetocode-dashboard/internal/store"
)

// DB is a local document store holding report documents as JSON, for working
// offline from an export of the remote collection.
type DB struct {
	*sql.DB
}

func New(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, err
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	d := &DB{db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	slog.Info("database initialized", "path", path)
	return d, nil
}

func (db *DB) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS reports (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			timestamp TEXT NOT NULL,
			doc TEXT NOT NULL,
			imported_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reports_user ON reports(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_reports_timestamp ON reports(timestamp)`,

		// Import log table (track what has been loaded)
		`CREATE TABLE IF NOT EXISTS import_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			source TEXT NOT NULL,
			imported_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			count INTEGER NOT NULL
		)`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}

	return nil
}

func (db *DB) Name() string {
	return "sqlite"
}

// Fetch reads every stored document in insertion order. The token is unused.
func (db *DB) Fetch(ctx context.Context, _ *oauth2.Token) (*store.Result, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, doc FROM reports ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := &store.Result{}
	for rows.Next() {
		var id, doc string
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, err
		}
		var r models.Report
		var decodeErr error
		if err := json.Unmarshal([]byte(doc), &r); err != nil {
			decodeErr = fmt.Errorf("decoding document: %w", err)
		}
		res.Accept(id, r, decodeErr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// DocumentID derives a stable id for a report: one document per user and
// session timestamp, matching how sessions are recorded.
func DocumentID(r models.Report) string {
	return r.UserID + "|" + r.Timestamp
}

// ImportReports upserts reports in one transaction and records the import.
func (db *DB) ImportReports(ctx context.Context, source string, reports []models.Report) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO reports (id, user_id, timestamp, doc, imported_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET doc = excluded.doc, imported_at = excluded.imported_at
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	for _, r := range reports {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("report %s: %w", DocumentID(r), err)
		}
		doc, err := json.Marshal(r)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, DocumentID(r), r.UserID, r.Timestamp, string(doc), now); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO import_log (source, imported_at, count) VALUES (?, ?, ?)`,
		source, now, len(reports),
	); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Info("imported reports", "source", source, "count", len(reports))
	return nil
}

func (db *DB) CountReports(ctx context.Context) (int, error) {
	var count int
	err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM reports").Scan(&count)
	return count, err
}
