package api

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/charlie0129/timetocode-dashboard/internal/auth"
	"github.com/charlie0129/timetocode-dashboard/internal/report"
)

//go:embed templates/*.html
var templateFS embed.FS

const loginFailedMessage = "Erro ao fazer login"

func parsePages(loc *time.Location) *template.Template {
	funcs := template.FuncMap{
		"duration": report.FormatMillis,
		"logTime": func(t time.Time) string {
			return report.FormatLogTime(t, loc)
		},
		"percent": func(f float64) string {
			return fmt.Sprintf("%.1f", f)
		},
		"date": func(t *time.Time) string {
			if t == nil {
				return ""
			}
			return t.In(loc).Format(dateLayout)
		},
	}
	return template.Must(template.New("pages").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))
}

type dashboardData struct {
	view
	Email     string
	Banner    string
	Status    int
	ChartURL  template.URL
	ExportURL template.URL
	ReloadURL template.URL
}

type loginData struct {
	Email string
	Error string
}

// render executes a page into a buffer so a failed render never leaves a
// partial response.
func (h *Handler) render(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := h.pages.ExecuteTemplate(&buf, name, data); err != nil {
		slog.Error("failed to render page", "page", name, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (h *Handler) dashboardPage(w http.ResponseWriter, r *http.Request, sess *auth.Session) {
	v := h.buildView(r, sess)
	qs := encodeQuery(v.Query, h.loc).Encode()

	data := dashboardData{
		view:      v,
		Email:     sess.Identity.Email,
		Status:    http.StatusOK,
		ChartURL:  template.URL("/chart?" + qs),
		ExportURL: template.URL("/api/v1/export?" + qs),
		ReloadURL: template.URL("/reload?" + qs),
	}
	switch {
	case v.QueryErr != nil:
		data.Status = http.StatusBadRequest
		data.Banner = v.QueryErr.Error()
	case v.Snapshot.Err != nil:
		data.Banner = "Falha ao carregar os relatórios: " + v.Snapshot.Err.Error()
	}
	h.render(w, data.Status, "dashboard.html", data)
}

// reloadPage re-fetches the snapshot and returns to the same filter state.
func (h *Handler) reloadPage(w http.ResponseWriter, r *http.Request, sess *auth.Session) {
	sess.Reload(r.Context(), h.loader)
	target := "/"
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (h *Handler) loginForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "login.html", loginData{})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, http.StatusBadRequest, "login.html", loginData{Error: loginFailedMessage})
		return
	}
	email := r.PostForm.Get("email")
	password := r.PostForm.Get("password")

	id, err := h.provider.SignIn(r.Context(), email, password)
	if err != nil {
		if !errors.Is(err, auth.ErrSignInFailed) {
			err = fmt.Errorf("%w: %v", auth.ErrSignInFailed, err)
		}
		slog.Warn("login failed", "provider", h.provider.Name(), "email", email, "error", err)
		h.render(w, http.StatusUnauthorized, "login.html", loginData{Email: email, Error: loginFailedMessage})
		return
	}

	if !h.gate.Allow(id) {
		// valid credentials but not the administrator: back to the login view
		slog.Warn("login rejected", "email", id.Email, "error", auth.ErrNotAdmin)
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	sess := h.sessions.Create(id)
	h.setSessionCookie(w, r, sess)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookie); err == nil {
		h.sessions.SignOut(c.Value)
	}
	clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
