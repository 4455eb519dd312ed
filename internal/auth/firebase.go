package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"
)

const (
	IdentityToolkitURL = "https://identitytoolkit.googleapis.com"
	SecureTokenURL     = "https://securetoken.googleapis.com"
)

// Firebase signs in through the Identity Toolkit email/password endpoint. The
// returned ID token is used as the bearer token for Firestore reads and is
// renewed through the Secure Token endpoint once it expires.
type Firebase struct {
	apiKey     string
	baseURL    string
	refreshURL string
	httpClient *http.Client
	now        func() time.Time
}

// NewFirebase uses the public Google endpoints when baseURL is empty. A custom
// baseURL serves both sign-in and token refresh.
func NewFirebase(apiKey, baseURL string) *Firebase {
	refreshURL := baseURL
	if baseURL == "" {
		baseURL = IdentityToolkitURL
		refreshURL = SecureTokenURL
	}
	return &Firebase{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		refreshURL: strings.TrimRight(refreshURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		now:        time.Now,
	}
}

func (f *Firebase) Name() string {
	return "firebase"
}

func (f *Firebase) SignIn(ctx context.Context, email, password string) (*Identity, error) {
	body, err := json.Marshal(map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	})
	if err != nil {
		return nil, err
	}

	u := f.baseURL + "/v1/accounts:signInWithPassword?key=" + url.QueryEscape(f.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSignInFailed, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrSignInFailed, err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := gjson.GetBytes(data, "error.message").String()
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: identity toolkit %d: %s", ErrSignInFailed, resp.StatusCode, msg)
	}

	res := gjson.ParseBytes(data)
	idToken := res.Get("idToken").String()
	if idToken == "" {
		return nil, fmt.Errorf("%w: response has no idToken", ErrSignInFailed)
	}

	tok := &oauth2.Token{
		AccessToken:  idToken,
		TokenType:    "Bearer",
		RefreshToken: res.Get("refreshToken").String(),
	}
	tok.Expiry = f.expiry(res.Get("expiresIn").String())

	signedIn := res.Get("email").String()
	if signedIn == "" {
		signedIn = email
	}
	id := &Identity{Email: signedIn, Token: tok}
	if tok.RefreshToken != "" {
		id.Source = oauth2.ReuseTokenSource(tok, &firebaseRefresher{f: f, refreshToken: tok.RefreshToken})
	}
	return id, nil
}

// expiry converts a decimal string of seconds into an absolute time. Unknown
// lifetimes yield the zero time, meaning the token never expires.
func (f *Firebase) expiry(expiresIn string) time.Time {
	secs, err := strconv.Atoi(expiresIn)
	if err != nil || secs <= 0 {
		return time.Time{}
	}
	return f.now().Add(time.Duration(secs) * time.Second)
}

// Refresh exchanges a refresh token for a new ID token.
func (f *Firebase) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}
	u := f.refreshURL + "/v1/token?key=" + url.QueryEscape(f.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading refresh response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := gjson.GetBytes(data, "error.message").String()
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, fmt.Errorf("secure token %d: %s", resp.StatusCode, msg)
	}

	res := gjson.ParseBytes(data)
	idToken := res.Get("id_token").String()
	if idToken == "" {
		return nil, fmt.Errorf("refresh response has no id_token")
	}
	tok := &oauth2.Token{
		AccessToken:  idToken,
		TokenType:    "Bearer",
		RefreshToken: res.Get("refresh_token").String(),
		Expiry:       f.expiry(res.Get("expires_in").String()),
	}
	if tok.RefreshToken == "" {
		tok.RefreshToken = refreshToken
	}
	return tok, nil
}

// firebaseRefresher is an oauth2.TokenSource over the Secure Token endpoint.
// It is wrapped in ReuseTokenSource, which serializes calls to Token.
type firebaseRefresher struct {
	f            *Firebase
	refreshToken string
}

func (r *firebaseRefresher) Token() (*oauth2.Token, error) {
	tok, err := r.f.Refresh(context.Background(), r.refreshToken)
	if err != nil {
		return nil, err
	}
	r.refreshToken = tok.RefreshToken
	return tok, nil
}
