package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/charlie0129/timetocode-dashboard/internal/models"
	"github.com/charlie0129/timetocode-dashboard/internal/store"
)

type countingSource struct {
	mu    sync.Mutex
	calls int
	toks  []*oauth2.Token
	err   error
}

func (c *countingSource) Name() string { return "counting" }

func (c *countingSource) Fetch(ctx context.Context, tok *oauth2.Token) (*store.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	c.toks = append(c.toks, tok)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.err != nil {
		return nil, c.err
	}
	return &store.Result{Reports: []models.Report{{UserID: "alice"}}}, nil
}

func TestSessions_Lifecycle(t *testing.T) {
	now := time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)
	s := NewSessions(time.Hour)
	s.now = func() time.Time { return now }

	sess := s.Create(&Identity{Email: "admin@admin.com"})
	assert.Equal(t, now.Add(time.Hour), sess.ExpiresAt)
	assert.Equal(t, 1, s.Len())

	got, ok := s.Get(sess.ID)
	require.True(t, ok)
	assert.Same(t, sess, got)

	_, ok = s.Get("not-a-uuid")
	assert.False(t, ok)

	s.SignOut(sess.ID)
	_, ok = s.Get(sess.ID)
	assert.False(t, ok)
	s.SignOut(sess.ID)
}

func TestSessions_Expiry(t *testing.T) {
	now := time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)
	s := NewSessions(time.Hour)
	s.now = func() time.Time { return now }

	old := s.Create(&Identity{Email: "admin@admin.com"})
	now = now.Add(30 * time.Minute)
	young := s.Create(&Identity{Email: "admin@admin.com"})

	now = now.Add(45 * time.Minute)
	_, ok := s.Get(old.ID)
	assert.False(t, ok)
	_, ok = s.Get(young.ID)
	assert.True(t, ok)

	now = now.Add(time.Hour)
	assert.Equal(t, 1, s.Sweep())
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 0, s.Sweep())
}

func TestSession_SnapshotIsFetchedOnce(t *testing.T) {
	src := &countingSource{}
	loader := store.NewLoader(src)
	tok := &oauth2.Token{AccessToken: "t"}
	sess := NewSessions(time.Hour).Create(&Identity{Email: "admin@admin.com", Token: tok})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sess.Snapshot(context.Background(), loader)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, src.calls)
	assert.Same(t, tok, src.toks[0])

	first := sess.Snapshot(context.Background(), loader)
	loader.Invalidate("test")
	second := sess.Snapshot(context.Background(), loader)
	assert.NotSame(t, first, second)
	assert.Equal(t, 2, src.calls)

	sess.Reload(context.Background(), loader)
	assert.Equal(t, 3, src.calls)
}

func TestSession_FetchErrorIsHeld(t *testing.T) {
	src := &countingSource{err: errors.New("permission denied")}
	loader := store.NewLoader(src)
	sess := NewSessions(time.Hour).Create(&Identity{Email: "admin@admin.com"})

	snap := sess.Snapshot(context.Background(), loader)
	require.Error(t, snap.Err)
	assert.Empty(t, snap.Reports)

	// no automatic retry within the session
	sess.Snapshot(context.Background(), loader)
	assert.Equal(t, 1, src.calls)
}

func TestSession_AbandonedFetchIsNotHeld(t *testing.T) {
	src := &countingSource{}
	loader := store.NewLoader(src)
	sess := NewSessions(time.Hour).Create(&Identity{Email: "admin@admin.com"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	snap := sess.Snapshot(ctx, loader)
	require.ErrorIs(t, snap.Err, context.Canceled)

	snap = sess.Snapshot(context.Background(), loader)
	require.NoError(t, snap.Err)
	assert.Len(t, snap.Reports, 1)
	assert.Equal(t, 2, src.calls)

	// an abandoned reload drops the old snapshot too
	ctx, cancel = context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()
	snap = sess.Reload(ctx, loader)
	require.ErrorIs(t, snap.Err, context.DeadlineExceeded)

	snap = sess.Snapshot(context.Background(), loader)
	require.NoError(t, snap.Err)
	assert.Equal(t, 4, src.calls)
}

type sequenceTokens struct {
	toks []*oauth2.Token
	err  error
}

func (s *sequenceTokens) Token() (*oauth2.Token, error) {
	if s.err != nil {
		return nil, s.err
	}
	tok := s.toks[0]
	if len(s.toks) > 1 {
		s.toks = s.toks[1:]
	}
	return tok, nil
}

func TestSession_UsesRenewedToken(t *testing.T) {
	src := &countingSource{}
	loader := store.NewLoader(src)
	first := &oauth2.Token{AccessToken: "first"}
	renewed := &oauth2.Token{AccessToken: "renewed"}
	sess := NewSessions(time.Hour).Create(&Identity{
		Email:  "admin@admin.com",
		Token:  first,
		Source: &sequenceTokens{toks: []*oauth2.Token{first, renewed}},
	})

	sess.Snapshot(context.Background(), loader)
	sess.Reload(context.Background(), loader)
	require.Len(t, src.toks, 2)
	assert.Same(t, first, src.toks[0])
	assert.Same(t, renewed, src.toks[1])
}

func TestSession_RenewalFailureIsNotHeld(t *testing.T) {
	src := &countingSource{}
	loader := store.NewLoader(src)
	tokens := &sequenceTokens{err: errors.New("TOKEN_EXPIRED")}
	sess := NewSessions(time.Hour).Create(&Identity{Email: "admin@admin.com", Source: tokens})

	snap := sess.Snapshot(context.Background(), loader)
	require.Error(t, snap.Err)
	assert.Contains(t, snap.Err.Error(), "TOKEN_EXPIRED")
	assert.Empty(t, snap.Reports)
	assert.Zero(t, src.calls)

	tokens.err = nil
	tokens.toks = []*oauth2.Token{{AccessToken: "t"}}
	snap = sess.Snapshot(context.Background(), loader)
	require.NoError(t, snap.Err)
	assert.Equal(t, 1, src.calls)
}

func TestSessions_EndWithUnrenewableToken(t *testing.T) {
	now := time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)
	s := NewSessions(12 * time.Hour)
	s.now = func() time.Time { return now }

	expiring := &oauth2.Token{AccessToken: "id-token", Expiry: now.Add(time.Hour)}
	fixed := s.Create(&Identity{Email: "admin@admin.com", Token: expiring})
	assert.Equal(t, now.Add(time.Hour), fixed.ExpiresAt)

	renewable := &oauth2.Token{AccessToken: "id-token", RefreshToken: "r", Expiry: now.Add(time.Hour)}
	refreshing := s.Create(&Identity{
		Email:  "admin@admin.com",
		Token:  renewable,
		Source: oauth2.StaticTokenSource(renewable),
	})
	assert.Equal(t, now.Add(12*time.Hour), refreshing.ExpiresAt)

	noExpiry := s.Create(&Identity{Email: "admin@admin.com", Token: &oauth2.Token{AccessToken: "t"}})
	assert.Equal(t, now.Add(12*time.Hour), noExpiry.ExpiresAt)

	now = now.Add(time.Hour + time.Minute)
	_, ok := s.Get(fixed.ID)
	assert.False(t, ok)
	_, ok = s.Get(refreshing.ID)
	assert.True(t, ok)
}
