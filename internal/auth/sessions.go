package auth

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/charlie0129/timetocode-dashboard/internal/store"
)

// Session is one signed-in dashboard visit. It holds the report snapshot
// fetched for it; filter changes reuse that snapshot.
type Session struct {
	ID        string
	Identity  *Identity
	CreatedAt time.Time
	ExpiresAt time.Time

	mu       sync.Mutex
	snapshot *store.Snapshot
}

// Snapshot returns the session's snapshot, fetching it on first use or after
// the loader has been invalidated. Concurrent callers share one fetch.
func (s *Session) Snapshot(ctx context.Context, loader *store.Loader) *store.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !loader.Stale(s.snapshot) {
		return s.snapshot
	}
	return s.fetch(ctx, loader)
}

// Reload discards the held snapshot and fetches a new one.
func (s *Session) Reload(ctx context.Context, loader *store.Loader) *store.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = nil
	return s.fetch(ctx, loader)
}

// fetch loads a snapshot and holds it, unless the fetch was abandoned by the
// caller or the token could not be renewed. Those are tried again on the
// next request. s.mu must be held.
func (s *Session) fetch(ctx context.Context, loader *store.Loader) *store.Snapshot {
	tok, err := s.Identity.CurrentToken()
	if err != nil {
		return loader.Fail(err)
	}
	snap := loader.Load(ctx, tok)
	if snap.Err != nil && abandoned(ctx, snap.Err) {
		return snap
	}
	s.snapshot = snap
	return snap
}

func abandoned(ctx context.Context, err error) bool {
	return ctx.Err() != nil ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// Sessions is an in-memory session store safe for concurrent use.
type Sessions struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

func NewSessions(ttl time.Duration) *Sessions {
	return &Sessions{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create starts a session lasting the configured TTL. When the identity's
// token cannot be renewed, the session ends with the token instead.
func (s *Sessions) Create(id *Identity) *Session {
	now := s.now()
	sess := &Session{
		ID:        uuid.NewString(),
		Identity:  id,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if tok := id.Token; tok != nil && !tok.Expiry.IsZero() &&
		(id.Source == nil || tok.RefreshToken == "") && tok.Expiry.Before(sess.ExpiresAt) {
		sess.ExpiresAt = tok.Expiry
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	slog.Info("session created", "email", id.Email, "expires_at", sess.ExpiresAt)
	return sess
}

// Get returns a live session. Expired sessions are removed.
func (s *Sessions) Get(id string) (*Session, bool) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, false
	}

	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !s.now().Before(sess.ExpiresAt) {
		s.SignOut(id)
		return nil, false
	}
	return sess, true
}

// SignOut ends the session. Unknown ids are ignored.
func (s *Sessions) SignOut(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Sweep removes expired sessions and returns how many were removed.
func (s *Sessions) Sweep() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if !now.Before(sess.ExpiresAt) {
			delete(s.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		slog.Info("swept expired sessions", "removed", removed, "remaining", len(s.sessions))
	}
	return removed
}

func (s *Sessions) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
