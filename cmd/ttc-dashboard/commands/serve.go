package commands

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/charlie0129/timetocode-dashboard/internal/api"
	"github.com/charlie0129/timetocode-dashboard/internal/auth"
	"github.com/charlie0129/timetocode-dashboard/internal/store"
	"github.com/charlie0129/timetocode-dashboard/internal/sync"
)

const watchDebounce = 500 * time.Millisecond

func NewServeCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the web dashboard and JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(g)
		},
	}
}

func runServe(g *globals) error {
	cfg := g.cfg

	src, closeSrc, err := newSource(cfg)
	if err != nil {
		return err
	}
	defer closeSrc()

	provider, err := newProvider(cfg)
	if err != nil {
		return err
	}

	slog.Info("local time", "time", time.Now().In(cfg.GetTimezone()).Format(time.RFC3339))

	loader := store.NewLoader(src)
	sessions := auth.NewSessions(cfg.GetSessionTTL())

	// Start background jobs: session sweep and optional refresh
	scheduler := sync.NewScheduler(cfg, sessions, loader)
	scheduler.Start()
	defer scheduler.Stop()

	if cfg.Store.Backend == "file" {
		watcher, err := store.NewWatcher(cfg.Store.FilePath, watchDebounce, func() {
			loader.Invalidate("report file changed")
		})
		if err != nil {
			slog.Warn("file watcher disabled", "path", cfg.Store.FilePath, "error", err)
		} else {
			watcher.Start()
			defer watcher.Stop()
			slog.Info("watching report file", "path", cfg.Store.FilePath)
		}
	}

	// Setup HTTP server
	handler := api.NewHandler(cfg, loader, sessions, provider)
	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      handler.Routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.ListenAddr,
		"store", src.Name(), "auth", provider.Name(), "admin", cfg.AdminEmail)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		return err
	}
	<-done
	return nil
}
