package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
)

var (
	// ErrSignInFailed is the only failure shown to the user; the cause is logged.
	ErrSignInFailed = errors.New("sign-in failed")
	// ErrNotAdmin means the credentials were valid but belong to another user.
	ErrNotAdmin = errors.New("not an administrator")
)

// Identity is the signed-in user. Token authorizes document store reads and
// may be nil for providers that issue none. Source, when set, renews Token
// after it expires.
type Identity struct {
	Email  string
	Token  *oauth2.Token
	Source oauth2.TokenSource
}

// CurrentToken returns a token valid for the next read, refreshing it through
// Source when one is available.
func (id *Identity) CurrentToken() (*oauth2.Token, error) {
	if id.Source == nil {
		return id.Token, nil
	}
	tok, err := id.Source.Token()
	if err != nil {
		return nil, fmt.Errorf("refreshing token for %s: %w", id.Email, err)
	}
	return tok, nil
}

// Provider verifies an email and password with an external service.
type Provider interface {
	Name() string
	SignIn(ctx context.Context, email, password string) (*Identity, error)
}

// Gate admits only the configured administrator.
type Gate struct {
	AdminEmail string
}

// Allow reports whether id may see the dashboard. A nil identity, meaning
// nobody is signed in yet, is never allowed.
func (g Gate) Allow(id *Identity) bool {
	if id == nil || g.AdminEmail == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(id.Email), strings.TrimSpace(g.AdminEmail))
}
