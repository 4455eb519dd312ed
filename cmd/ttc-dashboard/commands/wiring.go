package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/charlie0129/timetocode-dashboard/internal/auth"
	"github.com/charlie0129/timetocode-dashboard/internal/config"
	"github.com/charlie0129/timetocode-dashboard/internal/database"
	"github.com/charlie0129/timetocode-dashboard/internal/firestore"
	"github.com/charlie0129/timetocode-dashboard/internal/report"
	"github.com/charlie0129/timetocode-dashboard/internal/store"
)

// newSource opens the configured document store backend along with a func
// releasing it.
func newSource(cfg *config.Config) (store.Source, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Store.Backend {
	case "firestore":
		return firestore.NewClient(firestore.Options{
			ProjectID:  cfg.Store.ProjectID,
			Database:   cfg.Store.Database,
			Collection: cfg.Store.Collection,
			APIKey:     cfg.Store.APIKey,
			BaseURL:    cfg.Store.BaseURL,
			ProxyURL:   cfg.Store.ProxyURL,
		}), noop, nil
	case "sqlite":
		db, err := database.New(cfg.Store.DatabasePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		return db, db.Close, nil
	case "file":
		return store.NewFileSource(cfg.Store.FilePath), noop, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

func newProvider(cfg *config.Config) (auth.Provider, error) {
	switch cfg.Auth.Provider {
	case "firebase":
		return auth.NewFirebase(cfg.Auth.APIKey, cfg.Auth.BaseURL), nil
	case "oauth2":
		return auth.NewPasswordGrant(cfg.Auth.ClientID, cfg.Auth.ClientSecret, cfg.Auth.TokenURL, cfg.Auth.Scopes), nil
	case "static":
		return auth.NewStatic(cfg.AdminEmail, cfg.Auth.Password), nil
	default:
		return nil, fmt.Errorf("unknown auth provider %q", cfg.Auth.Provider)
	}
}

// credentials are the sign-in flags of the offline commands.
type credentials struct {
	email    string
	password string
}

func (c *credentials) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&c.email, "email", "", "administrator email (defaults to admin_email)")
	cmd.Flags().StringVar(&c.password, "password", "", "administrator password (defaults to TTC_ADMIN_PASSWORD)")
}

// signIn authenticates the administrator when the backend needs a token.
// Local backends are read without signing in.
func (c *credentials) signIn(ctx context.Context, cfg *config.Config) (*auth.Identity, error) {
	if cfg.Store.Backend != "firestore" {
		return &auth.Identity{Email: cfg.AdminEmail}, nil
	}
	email, password := c.email, c.password
	if email == "" {
		email = cfg.AdminEmail
	}
	if password == "" {
		password = cfg.Auth.Password
	}

	provider, err := newProvider(cfg)
	if err != nil {
		return nil, err
	}
	id, err := provider.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if !(auth.Gate{AdminEmail: cfg.AdminEmail}).Allow(id) {
		return nil, fmt.Errorf("%s: %w", id.Email, auth.ErrNotAdmin)
	}
	return id, nil
}

// filterFlags mirror the dashboard filter controls.
type filterFlags struct {
	user    string
	project string
	from    string
	to      string
	actions []string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.user, "user", "", "only reports of this user id")
	cmd.Flags().StringVar(&f.project, "project", "", "only reports of this project")
	cmd.Flags().StringVar(&f.from, "from", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.to, "to", "", "end date (YYYY-MM-DD)")
	cmd.Flags().StringSliceVar(&f.actions, "action", nil, "action types to list (repeatable)")
}

func (f *filterFlags) query(loc *time.Location) (report.Query, error) {
	q := report.Query{UserID: f.user, Project: f.project, Actions: f.actions}
	for _, d := range []struct {
		name string
		val  string
		dst  **time.Time
	}{{"from", f.from, &q.From}, {"to", f.to, &q.To}} {
		if d.val == "" {
			continue
		}
		t, err := time.ParseInLocation("2006-01-02", d.val, loc)
		if err != nil {
			return q, fmt.Errorf("invalid --%s date %q, use YYYY-MM-DD", d.name, d.val)
		}
		*d.dst = &t
	}
	return q, nil
}

// loadSnapshot signs in if needed and fetches the collection once.
func loadSnapshot(ctx context.Context, cfg *config.Config, creds *credentials) (*store.Snapshot, func() error, error) {
	src, closeSrc, err := newSource(cfg)
	if err != nil {
		return nil, nil, err
	}
	id, err := creds.signIn(ctx, cfg)
	if err != nil {
		closeSrc()
		return nil, nil, err
	}
	snap := store.NewLoader(src).Load(ctx, id.Token)
	if snap.Err != nil {
		closeSrc()
		return nil, nil, snap.Err
	}
	for _, rej := range snap.Rejected {
		fmt.Fprintln(os.Stderr, "skipped:", rej.Error())
	}
	return snap, closeSrc, nil
}
