package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"
)

// Static accepts a single configured email and password. It issues no token,
// so it only suits local store backends.
type Static struct {
	email    string
	password string
}

func NewStatic(email, password string) *Static {
	return &Static{email: email, password: password}
}

func (s *Static) Name() string {
	return "static"
}

func (s *Static) SignIn(_ context.Context, email, password string) (*Identity, error) {
	if s.password == "" {
		return nil, fmt.Errorf("%w: no password configured", ErrSignInFailed)
	}
	emailOK := strings.EqualFold(strings.TrimSpace(email), s.email)
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.password)) == 1
	if !emailOK || !passOK {
		return nil, fmt.Errorf("%w: invalid credentials", ErrSignInFailed)
	}
	return &Identity{Email: s.email}, nil
}
