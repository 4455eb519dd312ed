package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/charlie0129/timetocode-dashboard/internal/auth"
	"github.com/charlie0129/timetocode-dashboard/internal/config"
	"github.com/charlie0129/timetocode-dashboard/internal/models"
	"github.com/charlie0129/timetocode-dashboard/internal/report"
	"github.com/charlie0129/timetocode-dashboard/internal/store"
)

var testNow = time.Date(2025, 5, 10, 15, 0, 0, 0, time.UTC)

func testReports() []models.Report {
	return []models.Report{
		{
			FileDurations:      map[string]int64{"/src/main.go": 60000, "/src/util.go": 30000},
			InactivityDuration: 30000,
			Timestamp:          "2025-05-10T10:00:00Z",
			UserID:             "alice",
			Projeto:            "api",
			ActivityLog: []models.LogEntry{
				{Time: "2025-05-10T10:00:00Z", Action: "save", File: "/src/main.go"},
				{Time: "2025-05-10T10:05:00Z", Action: "open", File: "/src/util.go", Duration: "00:00:30"},
			},
		},
		{
			FileDurations: map[string]int64{"/web/index.ts": 120000},
			Timestamp:     "2025-05-09T09:00:00Z",
			UserID:        "bob",
			Projeto:       "web",
			ActivityLog: []models.LogEntry{
				{Time: "2025-05-09T09:00:00Z", Action: "save", File: "/web/index.ts"},
			},
		},
		{
			FileDurations: map[string]int64{"/README.md": 6000},
			Timestamp:     "2025-05-10T12:00:00Z",
			UserID:        "alice",
			ActivityLog:   []models.LogEntry{},
		},
	}
}

type testEnv struct {
	h        *Handler
	handler  http.Handler
	sessions *auth.Sessions
	loader   *store.Loader
	path     string
}

type setupOption func(*setupConfig)

type setupConfig struct {
	source   store.Source
	provider auth.Provider
}

func withSource(s store.Source) setupOption {
	return func(c *setupConfig) { c.source = s }
}

func withProvider(p auth.Provider) setupOption {
	return func(c *setupConfig) { c.provider = p }
}

func writeReports(t *testing.T, path string, reports []models.Report) {
	t.Helper()
	data, err := report.MarshalExport(reports)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))
}

func setup(t *testing.T, opts ...setupOption) *testEnv {
	t.Helper()
	path := filepath.Join(t.TempDir(), "relatorio.json")
	writeReports(t, path, testReports())

	sc := setupConfig{
		source:   store.NewFileSource(path),
		provider: auth.NewStatic("admin@admin.com", "hunter2"),
	}
	for _, opt := range opts {
		opt(&sc)
	}

	cfg := &config.Config{Timezone: "UTC", AdminEmail: "admin@admin.com"}
	loader := store.NewLoader(sc.source)
	sessions := auth.NewSessions(time.Hour)
	h := NewHandler(cfg, loader, sessions, sc.provider)
	h.now = func() time.Time { return testNow }

	return &testEnv{h: h, handler: h.Routes(), sessions: sessions, loader: loader, path: path}
}

func (e *testEnv) do(t *testing.T, method, target string, body url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(body.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func (e *testEnv) login(t *testing.T) *http.Cookie {
	t.Helper()
	w := e.do(t, http.MethodPost, "/login", url.Values{
		"email":    {"admin@admin.com"},
		"password": {"hunter2"},
	}, nil)
	require.Equal(t, http.StatusSeeOther, w.Code)
	require.Equal(t, "/", w.Header().Get("Location"))

	for _, c := range w.Result().Cookies() {
		if c.Name == sessionCookie {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.Equal(t, "application/json", w.Header().Get("Content-Type"))
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func TestRoutes_Unauthenticated(t *testing.T) {
	env := setup(t)

	tests := []struct {
		method   string
		path     string
		status   int
		location string
	}{
		{http.MethodGet, "/", http.StatusFound, "/login"},
		{http.MethodGet, "/chart", http.StatusFound, "/login"},
		{http.MethodGet, "/somewhere/else", http.StatusFound, "/login"},
		{http.MethodGet, "/api/v1/dashboard", http.StatusUnauthorized, ""},
		{http.MethodGet, "/api/v1/export", http.StatusUnauthorized, ""},
		{http.MethodPost, "/api/v1/reload", http.StatusUnauthorized, ""},
		{http.MethodGet, "/api/v1/unknown", http.StatusNotFound, ""},
		{http.MethodGet, "/login", http.StatusOK, ""},
		{http.MethodGet, "/health", http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := env.do(t, tt.method, tt.path, nil, nil)
			assert.Equal(t, tt.status, w.Code)
			if tt.location != "" {
				assert.Equal(t, tt.location, w.Header().Get("Location"))
			}
		})
	}
}

func TestLogin_Failure(t *testing.T) {
	env := setup(t)

	w := env.do(t, http.MethodPost, "/login", url.Values{
		"email":    {"admin@admin.com"},
		"password": {"wrong"},
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Erro ao fazer login")
	assert.Contains(t, w.Body.String(), "Acessar o Painel")
	assert.Empty(t, w.Result().Cookies())
	assert.Equal(t, 0, env.sessions.Len())
}

type fixedProvider struct {
	email string
}

func (p fixedProvider) Name() string { return "fixed" }

func (p fixedProvider) SignIn(context.Context, string, string) (*auth.Identity, error) {
	return &auth.Identity{Email: p.email, Token: &oauth2.Token{AccessToken: "t"}}, nil
}

func TestLogin_NonAdminIsRedirected(t *testing.T) {
	env := setup(t, withProvider(fixedProvider{email: "dev@example.com"}))

	w := env.do(t, http.MethodPost, "/login", url.Values{"email": {"dev@example.com"}, "password": {"x"}}, nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
	assert.Equal(t, 0, env.sessions.Len())
}

func TestLoginAndLogout(t *testing.T) {
	env := setup(t)
	cookie := env.login(t)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, 1, env.sessions.Len())

	w := env.do(t, http.MethodGet, "/", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, "/logout", nil, cookie)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
	assert.Equal(t, 0, env.sessions.Len())

	w = env.do(t, http.MethodGet, "/", nil, cookie)
	assert.Equal(t, http.StatusFound, w.Code)
}

func TestDashboardPage(t *testing.T) {
	env := setup(t)
	cookie := env.login(t)

	w := env.do(t, http.MethodGet, "/", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()

	assert.Contains(t, body, "Painel de relatórios")
	assert.Contains(t, body, "Tempo Produtivo")
	assert.Contains(t, body, "00:01:36") // 60s + 30s + 6s today
	assert.Contains(t, body, "00:00:30")
	assert.Contains(t, body, "76.2% produtivo nesta data")
	assert.Contains(t, body, "Atividades Recentes")
	assert.Contains(t, body, "10/05/2025 10:05:00")
	assert.Contains(t, body, "<i>util.go</i> (00:00:30)")
	assert.Contains(t, body, "Total: 2 registros exibidos")
	assert.Contains(t, body, `<option value="sem-projeto">`)
	assert.NotContains(t, body, `role="alert"`)
}

func TestDashboardPage_InvalidDate(t *testing.T) {
	env := setup(t)
	cookie := env.login(t)

	w := env.do(t, http.MethodGet, "/?from=10-05-2025", nil, cookie)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid from date")
	assert.Contains(t, w.Body.String(), "Painel de relatórios")
}

func TestDashboardPage_FetchError(t *testing.T) {
	env := setup(t, withSource(store.NewFileSource(filepath.Join(t.TempDir(), "missing.json"))))
	cookie := env.login(t)

	w := env.do(t, http.MethodGet, "/", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Falha ao carregar os relatórios")
	assert.Contains(t, w.Body.String(), "Total: 0 registros exibidos")

	w = env.do(t, http.MethodGet, "/api/v1/dashboard", nil, cookie)
	var resp struct {
		Snapshot snapshotInfo `json:"snapshot"`
	}
	decode(t, w, &resp)
	assert.NotEmpty(t, resp.Snapshot.FetchError)
	assert.Equal(t, 0, resp.Snapshot.Reports)
}

func TestAPIDashboard(t *testing.T) {
	env := setup(t)
	cookie := env.login(t)

	w := env.do(t, http.MethodGet, "/api/v1/dashboard?from=2025-05-09", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Catalog report.Catalog `json:"catalog"`
		Metrics struct {
			TotalProductiveMs    int64   `json:"total_productive_ms"`
			DistinctFilesEdited  int     `json:"distinct_files_edited"`
			TotalActions         int     `json:"total_actions"`
			ProductivePercentage float64 `json:"productive_percentage"`
			Productive           string  `json:"productive"`
		} `json:"metrics"`
		Chart struct {
			Name      string   `json:"name"`
			Labels    []string `json:"labels"`
			Formatted []string `json:"formatted"`
		} `json:"chart"`
		ActionTypes []string          `json:"action_types"`
		Activities  []report.Activity `json:"activities"`
		Range       rangeResponse     `json:"range"`
		Snapshot    snapshotInfo      `json:"snapshot"`
	}
	decode(t, w, &resp)

	assert.Equal(t, []string{"alice", "bob"}, resp.Catalog.Users)
	assert.Equal(t, []string{"api", "web", "sem-projeto"}, resp.Catalog.Projects)
	assert.Equal(t, int64(216000), resp.Metrics.TotalProductiveMs)
	assert.Equal(t, "00:03:36", resp.Metrics.Productive)
	assert.Equal(t, 4, resp.Metrics.DistinctFilesEdited)
	assert.Equal(t, 3, resp.Metrics.TotalActions)
	assert.Equal(t, report.SeriesName, resp.Chart.Name)
	assert.Equal(t, []string{"main.go", "util.go", "index.ts", "README.md"}, resp.Chart.Labels)
	assert.Equal(t, []string{"00:01:00", "00:00:30", "00:02:00", "00:00:06"}, resp.Chart.Formatted)
	assert.Equal(t, []string{"save", "open"}, resp.ActionTypes)
	assert.Len(t, resp.Activities, 3)
	assert.Equal(t, time.Date(2025, 5, 9, 0, 0, 0, 0, time.UTC), resp.Range.Start)
	assert.Equal(t, 3, resp.Snapshot.Reports)
	assert.Equal(t, "file", resp.Snapshot.Source)
}

func TestAPIReports_Filters(t *testing.T) {
	env := setup(t)
	cookie := env.login(t)

	tests := []struct {
		query string
		users []string
	}{
		{"", []string{"alice", "alice"}},
		{"?user=bob&from=2025-05-01", []string{"bob"}},
		{"?project=api", []string{"alice"}},
		{"?project=sem-projeto", nil},
		{"?from=2025-05-09&to=2025-05-09", []string{"bob"}},
		{"?user=carol", nil},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := env.do(t, http.MethodGet, "/api/v1/reports"+tt.query, nil, cookie)
			require.Equal(t, http.StatusOK, w.Code)

			var resp struct {
				Data  []models.Report `json:"data"`
				Count int             `json:"count"`
			}
			decode(t, w, &resp)

			var users []string
			for _, r := range resp.Data {
				users = append(users, r.UserID)
			}
			assert.Equal(t, tt.users, users)
			assert.Equal(t, len(tt.users), resp.Count)
		})
	}
}

func TestAPI_InvalidDate(t *testing.T) {
	env := setup(t)
	cookie := env.login(t)

	for _, path := range []string{"/api/v1/dashboard", "/api/v1/metrics", "/api/v1/logs", "/api/v1/export"} {
		w := env.do(t, http.MethodGet, path+"?to=tomorrow", nil, cookie)
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
		assert.Contains(t, w.Body.String(), "invalid to date", path)
	}
}

func TestAPILogs_ActionFilter(t *testing.T) {
	env := setup(t)
	cookie := env.login(t)

	w := env.do(t, http.MethodGet, "/api/v1/logs?action=SAVE", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data        []report.Activity `json:"data"`
		ActionTypes []string          `json:"action_types"`
		Total       int               `json:"total"`
	}
	decode(t, w, &resp)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "alice-2025-05-10T10:00:00Z-0", resp.Data[0].Key)
	assert.Equal(t, "main.go", resp.Data[0].FileName)
	assert.Equal(t, []string{"save", "open"}, resp.ActionTypes)
	assert.Equal(t, 1, resp.Total)
}

func TestAPIMetrics_Empty(t *testing.T) {
	env := setup(t)
	cookie := env.login(t)

	w := env.do(t, http.MethodGet, "/api/v1/metrics?user=nobody", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data metricsResponse `json:"data"`
	}
	decode(t, w, &resp)
	assert.Zero(t, resp.Data.ProductivePercentage)
	assert.Zero(t, resp.Data.InactivePercentage)
	assert.Equal(t, "00:00:00", resp.Data.Productive)
}

func TestExport(t *testing.T) {
	env := setup(t)
	cookie := env.login(t)

	w := env.do(t, http.MethodGet, "/api/v1/export?user=alice", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="relatorio.json"`, w.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "[\n  {"))

	got, err := report.ParseExport(w.Body.Bytes())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, testReports()[0], got[0])
}

func TestExport_EmptySelection(t *testing.T) {
	env := setup(t)
	cookie := env.login(t)

	w := env.do(t, http.MethodGet, "/api/v1/export?user=nobody", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())
}

func TestReload(t *testing.T) {
	env := setup(t)
	cookie := env.login(t)

	w := env.do(t, http.MethodGet, "/api/v1/reports?from=2025-05-01", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)

	writeReports(t, env.path, testReports()[:1])

	// the session keeps its snapshot until reloaded
	w = env.do(t, http.MethodGet, "/api/v1/reports?from=2025-05-01", nil, cookie)
	var before struct {
		Count int `json:"count"`
	}
	decode(t, w, &before)
	assert.Equal(t, 3, before.Count)

	w = env.do(t, http.MethodPost, "/api/v1/reload", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	var reloaded struct {
		Data snapshotInfo `json:"data"`
	}
	decode(t, w, &reloaded)
	assert.Equal(t, 1, reloaded.Data.Reports)

	w = env.do(t, http.MethodPost, "/reload?user=alice", nil, cookie)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/?user=alice", w.Header().Get("Location"))
}

func TestStaleSnapshotIsRefetched(t *testing.T) {
	env := setup(t)
	cookie := env.login(t)

	env.do(t, http.MethodGet, "/", nil, cookie)
	writeReports(t, env.path, nil)
	env.loader.Invalidate("test")

	w := env.do(t, http.MethodGet, "/api/v1/reports?from=2025-05-01", nil, cookie)
	var resp struct {
		Count int `json:"count"`
	}
	decode(t, w, &resp)
	assert.Equal(t, 0, resp.Count)
}

func TestChartPage(t *testing.T) {
	env := setup(t)
	cookie := env.login(t)

	w := env.do(t, http.MethodGet, "/chart", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "echarts")
	assert.Contains(t, w.Body.String(), "main.go")
}

type blockingSource struct{}

func (blockingSource) Name() string { return "blocking" }

func (blockingSource) Fetch(ctx context.Context, _ *oauth2.Token) (*store.Result, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestAPI_Timeout(t *testing.T) {
	env := setup(t, withSource(blockingSource{}))
	env.h.timeout = 20 * time.Millisecond
	env.handler = env.h.Routes()
	cookie := env.login(t)

	w := env.do(t, http.MethodGet, "/api/v1/metrics", nil, cookie)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "request timed out")
}

func TestParseQuery(t *testing.T) {
	v := url.Values{
		"user":    {"alice"},
		"project": {" api "},
		"from":    {"2025-05-01"},
		"to":      {"2025-05-10"},
		"action":  {"save", " ", "open "},
	}
	q, err := parseQuery(v, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "alice", q.UserID)
	assert.Equal(t, " api ", q.Project)
	assert.Equal(t, time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), *q.From)
	assert.Equal(t, time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC), *q.To)
	assert.Equal(t, []string{"save", "open"}, q.Actions)

	back := encodeQuery(q, time.UTC)
	assert.Equal(t, "2025-05-01", back.Get("from"))
	assert.Equal(t, []string{"save", "open"}, back["action"])

	q, err = parseQuery(url.Values{"from": {"2025-13-01"}, "to": {"x"}, "user": {"bob"}}, time.UTC)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "from")
	assert.Contains(t, err.Error(), "to")
	assert.Nil(t, q.From)
	assert.Nil(t, q.To)
	assert.Equal(t, "bob", q.UserID)
}
