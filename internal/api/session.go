package api

import (
	"log/slog"
	"net/http"

	"github.com/charlie0129/timetocode-dashboard/internal/auth"
)

const sessionCookie = "ttc_session"

type sessionHandler func(w http.ResponseWriter, r *http.Request, sess *auth.Session)

// currentSession returns the caller's session when it belongs to the admin.
func (h *Handler) currentSession(r *http.Request) (*auth.Session, bool) {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return nil, false
	}
	sess, ok := h.sessions.Get(c.Value)
	if !ok {
		return nil, false
	}
	if !h.gate.Allow(sess.Identity) {
		slog.Warn("session identity is not the administrator", "email", sess.Identity.Email)
		return nil, false
	}
	return sess, true
}

func (h *Handler) authorize(next sessionHandler, deny http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := h.currentSession(r)
		if !ok {
			deny(w, r)
			return
		}
		next(w, r, sess)
	}
}

// page gates an HTML route, sending anyone else to the login view.
func (h *Handler) page(next sessionHandler) http.HandlerFunc {
	return h.authorize(next, func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/login", http.StatusFound)
	})
}

// api gates a JSON route.
func (h *Handler) api(next sessionHandler) http.Handler {
	return h.withTimeout(h.authorize(next, h.unauthorized))
}

func (h *Handler) unauthorized(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusUnauthorized, "authentication required")
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, r *http.Request, sess *auth.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sess.ID,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
