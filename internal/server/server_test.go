package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/jonathan/trustcheck/internal/config"
	"github.com/jonathan/trustcheck/internal/history"
	"github.com/jonathan/trustcheck/internal/pipeline"
	"github.com/jonathan/trustcheck/internal/schemas"
	"github.com/jonathan/trustcheck/internal/server/ratelimit"
	"github.com/jonathan/trustcheck/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAdminPassword = "correct-horse-battery"

var testNow = time.Date(2026, 5, 20, 12, 0, 0, 0, time.UTC)

type testServer struct {
	*Server
	handler http.Handler
	store   *history.MemoryStore
}

type serverOption func(*Config)

func withRateLimit(rl *ratelimit.Config) serverOption {
	return func(c *Config) { c.RateLimit = rl }
}

func withoutAdmin() serverOption {
	return func(c *Config) {
		c.JWT = nil
		c.AdminPasswordHash = ""
	}
}

func withEngine(v Verifier) serverOption {
	return func(c *Config) { c.Engine = v }
}

// newTestServer wires an offline engine and an in-memory history store.
func newTestServer(t *testing.T, opts ...serverOption) *testServer {
	t.Helper()
	store := history.NewMemoryStore()
	engine, err := pipeline.NewEngine(pipeline.Deps{History: store}, pipeline.Options{
		Now: func() time.Time { return testNow },
	})
	require.NoError(t, err)

	jwtConfig, err := config.NewJWTConfig(testJWTSecret, 1)
	require.NoError(t, err)
	passwords, err := config.NewPasswordConfig(10, "")
	require.NoError(t, err)
	hash, err := passwords.HashPassword(testAdminPassword)
	require.NoError(t, err)

	cfg := Config{
		Engine:            engine,
		History:           store,
		JWT:               jwtConfig,
		Password:          passwords,
		AdminPasswordHash: hash,
		RateLimit:         &ratelimit.Config{Enabled: false},
		ValidateResponses: true,
		Now:               func() time.Time { return testNow },
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	s, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(s.rateLimiter.Stop)
	return &testServer{Server: s, handler: s.Handler(), store: store}
}

func (ts *testServer) do(t *testing.T, method, path string, body any, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = "192.0.2.10:5555"
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)
	return w
}

func (ts *testServer) login(t *testing.T) string {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/admin/login", types.AdminLoginRequest{Password: testAdminPassword}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp types.AdminLoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Token
}

func textRequest(content string) types.VerificationRequest {
	return types.VerificationRequest{Content: content, ContentType: types.ContentTypeText}
}

func TestNew_RequiresEngine(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodGet, "/health", nil, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestVerifyEndpoint(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodPost, "/verify", textRequest("The Nile is the longest river in Africa."), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result types.VerificationResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.NotEmpty(t, result.ID)
	assert.GreaterOrEqual(t, result.TrustScore, 0)
	assert.LessOrEqual(t, result.TrustScore, 100)
	assert.Equal(t, "The Nile is the longest river in Africa.", result.ContentPreview)
	assert.True(t, pipeline.CheckIntegrity(result, "The Nile is the longest river in Africa."))
	assert.NoError(t, schemas.ValidateResult(result))

	stored, err := ts.store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, result.ID, stored[0].ID)
}

func TestVerifyEndpoint_BadRequests(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name string
		body any
	}{
		{name: "malformed JSON", body: `{"content":`},
		{name: "missing content", body: types.VerificationRequest{ContentType: types.ContentTypeText}},
		{name: "blank content", body: textRequest("   ")},
		{name: "unknown content type", body: types.VerificationRequest{Content: "x", ContentType: "pdf"}},
		{name: "bad URL", body: types.VerificationRequest{Content: "not a url", ContentType: types.ContentTypeURL}},
		{name: "unknown region", body: types.VerificationRequest{Content: "x", ContentType: types.ContentTypeText, FocusRegion: "mars"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(t, http.MethodPost, "/verify", tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)

			var resp map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp["error"])
		})
	}
}

func TestVerifyEndpoint_MethodNotAllowed(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodGet, "/verify", nil, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

type abortingVerifier struct{}

func (abortingVerifier) VerifyWithProgress(ctx context.Context, _ types.VerificationRequest, _ pipeline.ProgressCallback) (*types.VerificationResult, error) {
	return nil, context.Canceled
}

func TestVerifyEndpoint_EngineError(t *testing.T) {
	ts := newTestServer(t, withEngine(abortingVerifier{}))
	w := ts.do(t, http.MethodPost, "/verify", textRequest("anything"), nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

// readSSE parses an event stream into (event, data) pairs.
func readSSE(t *testing.T, body string) [][2]string {
	t.Helper()
	var events [][2]string
	var name string
	scanner := bufio.NewScanner(strings.NewReader(body))
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			events = append(events, [2]string{name, strings.TrimPrefix(line, "data: ")})
		}
	}
	require.NoError(t, scanner.Err())
	return events
}

func TestVerifyStreamEndpoint(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodPost, "/verify/stream", textRequest("Nigeria experienced heavy snow this week"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	events := readSSE(t, w.Body.String())
	require.NotEmpty(t, events)

	last := events[len(events)-1]
	require.Equal(t, "complete", last[0])
	var result types.VerificationResult
	require.NoError(t, json.Unmarshal([]byte(last[1]), &result))
	assert.Equal(t, "Low Trust", result.TrustLevel)

	var steps []string
	for _, e := range events[:len(events)-1] {
		require.Equal(t, "step", e[0])
		var event pipeline.ProgressEvent
		require.NoError(t, json.Unmarshal([]byte(e[1]), &event))
		assert.Equal(t, result.ID, event.VerificationID)
		steps = append(steps, event.Step)
	}
	assert.Equal(t, "ingest", steps[0])
	assert.Equal(t, "history", steps[len(steps)-1])
}

func TestVerifyStreamEndpoint_Error(t *testing.T) {
	ts := newTestServer(t, withEngine(abortingVerifier{}))
	w := ts.do(t, http.MethodPost, "/verify/stream", textRequest("anything"), nil)

	events := readSSE(t, w.Body.String())
	require.Len(t, events, 1)
	assert.Equal(t, "error", events[0][0])
}

func TestVerifyStreamEndpoint_InvalidRequestIsNotStreamed(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodPost, "/verify/stream", textRequest(""), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
}

func seedHistory(t *testing.T, store history.Store, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, store.Append(context.Background(), types.VerificationResult{
			ID:             "result-" + strconv.Itoa(i),
			TrustScore:     10 * (i % 10),
			ProcessingTime: 100,
			Timestamp:      testNow.Format(time.RFC3339),
			ContentPreview: "claim number " + strconv.Itoa(i),
		}))
	}
}

func TestHistoryList(t *testing.T) {
	ts := newTestServer(t)
	seedHistory(t, ts.store, 25)

	tests := []struct {
		name      string
		query     string
		wantCode  int
		wantItems int
		wantTotal int
		wantPages int
	}{
		{name: "first page", query: "", wantCode: http.StatusOK, wantItems: 10, wantTotal: 25, wantPages: 3},
		{name: "last page", query: "?page=3", wantCode: http.StatusOK, wantItems: 5, wantTotal: 25, wantPages: 3},
		{name: "past the end", query: "?page=9", wantCode: http.StatusOK, wantItems: 0, wantTotal: 25, wantPages: 3},
		{name: "search", query: "?q=NUMBER%202", wantCode: http.StatusOK, wantItems: 6, wantTotal: 6, wantPages: 1},
		{name: "bad page", query: "?page=zero", wantCode: http.StatusBadRequest},
		{name: "negative page", query: "?page=-1", wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(t, http.MethodGet, "/history"+tt.query, nil, nil)
			require.Equal(t, tt.wantCode, w.Code)
			if tt.wantCode != http.StatusOK {
				return
			}

			var page HistoryPage
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
			assert.Len(t, page.Verifications, tt.wantItems)
			assert.Equal(t, tt.wantTotal, page.Total)
			assert.Equal(t, tt.wantPages, page.TotalPages)
		})
	}
}

func TestHistoryStats(t *testing.T) {
	ts := newTestServer(t)
	seedHistory(t, ts.store, 4)

	w := ts.do(t, http.MethodGet, "/history/stats", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var stats history.Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, history.Stats{
		TotalVerifications:  4,
		TodayCount:          4,
		AverageTrustScore:   15,
		AverageResponseTime: 100,
	}, stats)
}

func TestHistoryExport(t *testing.T) {
	ts := newTestServer(t)
	seedHistory(t, ts.store, 2)

	w := ts.do(t, http.MethodGet, "/history/export", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="verification-history-2026-05-20.json"`, w.Header().Get("Content-Disposition"))

	var doc history.ExportDocument
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Len(t, doc.Verifications, 2)
	assert.Equal(t, 2, doc.Stats.TotalVerifications)
	assert.NotEmpty(t, doc.ExportDate)
}

func TestAdminLogin(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name     string
		body     any
		wantCode int
	}{
		{name: "correct password", body: types.AdminLoginRequest{Password: testAdminPassword}, wantCode: http.StatusOK},
		{name: "wrong password", body: types.AdminLoginRequest{Password: "wrong-password"}, wantCode: http.StatusUnauthorized},
		{name: "short password", body: types.AdminLoginRequest{Password: "short"}, wantCode: http.StatusBadRequest},
		{name: "malformed body", body: `{"password":`, wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(t, http.MethodPost, "/admin/login", tt.body, nil)
			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
		})
	}
}

func TestAdminLogin_ReturnsUsableToken(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t)

	claims, err := ts.jwtService.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, claims.GetRole())
}

func TestAdminLogin_Disabled(t *testing.T) {
	ts := newTestServer(t, withoutAdmin())
	w := ts.do(t, http.MethodPost, "/admin/login", types.AdminLoginRequest{Password: testAdminPassword}, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = ts.do(t, http.MethodDelete, "/history", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestClearHistory(t *testing.T) {
	ts := newTestServer(t)
	seedHistory(t, ts.store, 3)

	w := ts.do(t, http.MethodDelete, "/history", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(t, http.MethodDelete, "/history", nil, http.Header{"Authorization": {"Bearer not-a-token"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	stored, err := ts.store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, stored, 3)

	token := ts.login(t)
	w = ts.do(t, http.MethodDelete, "/history", nil, http.Header{"Authorization": {"Bearer " + token}})
	assert.Equal(t, http.StatusNoContent, w.Code)

	stored, err = ts.store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, stored)
}

type failingStore struct {
	*history.MemoryStore
}

func (failingStore) List(context.Context) ([]types.VerificationResult, error) {
	return nil, errors.New("connection refused")
}

func TestHistory_StoreFailure(t *testing.T) {
	ts := newTestServer(t)
	ts.history = failingStore{MemoryStore: history.NewMemoryStore()}
	handler := ts.Handler()

	for _, path := range []string{"/history", "/history/stats", "/history/export"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusInternalServerError, w.Code, path)
	}
}

func TestCORS(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodOptions, "/verify", nil, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "DELETE")
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}

func TestRateLimiting(t *testing.T) {
	ts := newTestServer(t, withRateLimit(&ratelimit.Config{
		Enabled:       true,
		DefaultLimit:  1000,
		DefaultWindow: time.Minute,
		EndpointConfigs: []ratelimit.EndpointConfig{
			{Path: "/history/", Method: "GET", Limit: 2, Window: time.Hour, Burst: 2},
		},
	}))

	for i := 0; i < 2; i++ {
		w := ts.do(t, http.MethodGet, "/history/stats", nil, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	}

	w := ts.do(t, http.MethodGet, "/history/stats", nil, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "rate_limit_exceeded", resp["error"])

	// health stays reachable
	w = ts.do(t, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestExtractClientID(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.7:4321"
	assert.Equal(t, "203.0.113.7", ts.extractClientID(req))

	req.RemoteAddr = "unix-socket"
	assert.Equal(t, "unix-socket", ts.extractClientID(req))
}
