package api

import (
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/charlie0129/timetocode-dashboard/internal/auth"
	"github.com/charlie0129/timetocode-dashboard/internal/config"
	"github.com/charlie0129/timetocode-dashboard/internal/store"
)

const defaultTimeout = 30 * time.Second

type Handler struct {
	cfg      *config.Config
	loader   *store.Loader
	sessions *auth.Sessions
	provider auth.Provider
	gate     auth.Gate
	loc      *time.Location
	now      func() time.Time
	timeout  time.Duration
	pages    *template.Template
}

func NewHandler(cfg *config.Config, loader *store.Loader, sessions *auth.Sessions, provider auth.Provider) *Handler {
	h := &Handler{
		cfg:      cfg,
		loader:   loader,
		sessions: sessions,
		provider: provider,
		gate:     auth.Gate{AdminEmail: cfg.AdminEmail},
		loc:      cfg.GetTimezone(),
		now:      time.Now,
		timeout:  defaultTimeout,
	}
	h.pages = parsePages(h.loc)
	return h
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Dashboard pages
	mux.HandleFunc("GET /{$}", h.page(h.dashboardPage))
	mux.HandleFunc("GET /chart", h.page(h.chartPage))
	mux.HandleFunc("POST /reload", h.page(h.reloadPage))
	mux.HandleFunc("GET /login", h.loginForm)
	mux.HandleFunc("POST /login", h.login)
	mux.HandleFunc("POST /logout", h.logout)

	// JSON API over the same pipeline
	mux.Handle("GET /api/v1/dashboard", h.api(h.getDashboard))
	mux.Handle("GET /api/v1/reports", h.api(h.getReports))
	mux.Handle("GET /api/v1/metrics", h.api(h.getMetrics))
	mux.Handle("GET /api/v1/chart", h.api(h.getChart))
	mux.Handle("GET /api/v1/logs", h.api(h.getLogs))
	mux.Handle("POST /api/v1/reload", h.api(h.reload))
	// Export: no timeout wrapper so the download is not buffered
	mux.HandleFunc("GET /api/v1/export", h.authorize(h.export, h.unauthorized))
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})

	// Health check
	mux.HandleFunc("GET /health", h.healthCheck)

	// Anything else goes to the login page
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/login", http.StatusFound)
	})
}

// Routes returns the complete HTTP handler with middleware applied.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	return logRequests(corsMiddleware(mux))
}

// --- Response helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"source":     h.loader.Source().Name(),
		"provider":   h.provider.Name(),
		"sessions":   h.sessions.Len(),
		"time":       h.now().In(h.loc).Format(time.RFC3339),
		"timezone":   h.loc.String(),
		"generation": h.loader.Generation(),
	})
}
