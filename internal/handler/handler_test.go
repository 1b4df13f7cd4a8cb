package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"tokenagg/internal/models"
	"tokenagg/internal/service"
)

type stubTokenService struct {
	tokens  []models.Token
	err     error
	queries []string
}

func (s *stubTokenService) Aggregate(_ context.Context, query string) ([]models.Token, error) {
	s.queries = append(s.queries, query)
	return s.tokens, s.err
}

func (s *stubTokenService) FindToken(_ context.Context, address string) (*models.Token, error) {
	for _, t := range s.tokens {
		if t.Address == address {
			tok := t
			return &tok, nil
		}
	}
	return nil, service.ErrTokenNotFound
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

type stubCounter int

func (c stubCounter) ConnectedClientCount() int { return int(c) }

type stubStates []models.SourceState

func (s stubStates) SourceStates(context.Context) ([]models.SourceState, error) { return s, nil }

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    map[string]any  `json:"meta"`
}

func newEngine(register ...func(gin.IRouter)) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	for _, fn := range register {
		fn(r)
	}
	return r
}

func get(t *testing.T, r http.Handler, path string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func sampleTokens() []models.Token {
	return []models.Token{
		{Address: "a", VolumeNative: 500, Protocol: "raydium", PriceChange24h: models.Float(1)},
		{Address: "b", VolumeNative: 1000, Protocol: "orca"},
		{Address: "c", VolumeNative: 750, Protocol: "raydium", PriceChange24h: models.Float(-2)},
	}
}

func TestListTokensSortsAndPaginates(t *testing.T) {
	svc := &stubTokenService{tokens: sampleTokens()}
	r := newEngine((&TokensHandler{Service: svc}).Register)

	w, env := get(t, r, "/api/tokens?q=bonk&limit=2")
	require.Equal(t, http.StatusOK, w.Code)
	var page []models.Token
	require.NoError(t, json.Unmarshal(env.Data, &page))
	require.Len(t, page, 2)
	assert.Equal(t, "b", page[0].Address)
	assert.Equal(t, "c", page[1].Address)
	assert.Equal(t, float64(3), env.Meta["total"])
	next, ok := env.Meta["next_cursor"].(string)
	require.True(t, ok)
	assert.Equal(t, []string{"bonk"}, svc.queries)

	w, env = get(t, r, "/api/tokens?q=bonk&limit=2&cursor="+next)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &page))
	require.Len(t, page, 1)
	assert.Equal(t, "a", page[0].Address)
	assert.Nil(t, env.Meta["next_cursor"])
}

func TestListTokensFilters(t *testing.T) {
	r := newEngine((&TokensHandler{Service: &stubTokenService{tokens: sampleTokens()}}).Register)

	_, env := get(t, r, "/api/tokens?protocol=raydium&timePeriod=24h&minVolume=600&sortOrder=asc")
	var page []models.Token
	require.NoError(t, json.Unmarshal(env.Data, &page))
	require.Len(t, page, 1)
	assert.Equal(t, "c", page[0].Address)
}

func TestListTokensClampsLimit(t *testing.T) {
	r := newEngine((&TokensHandler{Service: &stubTokenService{tokens: sampleTokens()}, MaxLimit: 2}).Register)

	_, env := get(t, r, "/api/tokens?limit=500")
	assert.Equal(t, float64(2), env.Meta["limit"])
	_, env = get(t, r, "/api/tokens?limit=0")
	assert.Equal(t, float64(1), env.Meta["limit"])
}

func TestListTokensRejectsBadParams(t *testing.T) {
	r := newEngine((&TokensHandler{Service: &stubTokenService{}}).Register)

	for _, path := range []string{
		"/api/tokens?sortField=price",
		"/api/tokens?sortOrder=sideways",
		"/api/tokens?timePeriod=5m",
	} {
		w, _ := get(t, r, path)
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
	}
}

func TestListTokensServiceError(t *testing.T) {
	r := newEngine((&TokensHandler{Service: &stubTokenService{err: errors.New("boom")}}).Register)
	w, env := get(t, r, "/api/tokens")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, http.StatusInternalServerError, env.Code)
}

func TestGetToken(t *testing.T) {
	r := newEngine((&TokensHandler{Service: &stubTokenService{tokens: sampleTokens()}}).Register)

	w, env := get(t, r, "/api/tokens/b")
	require.Equal(t, http.StatusOK, w.Code)
	var tok models.Token
	require.NoError(t, json.Unmarshal(env.Data, &tok))
	assert.Equal(t, 1000.0, tok.VolumeNative)

	w, _ = get(t, r, "/api/tokens/zzz")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthReportsCacheAndWebsocket(t *testing.T) {
	ok := newEngine((&HealthHandler{Cache: stubPinger{}, Stream: stubCounter(3)}).Register)
	w := httptest.NewRecorder()
	ok.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Status   string `json:"status"`
		Services struct {
			Cache     string `json:"cache"`
			Websocket struct {
				Connected int    `json:"connected"`
				Status    string `json:"status"`
			} `json:"websocket"`
		} `json:"services"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "connected", body.Services.Cache)
	assert.Equal(t, 3, body.Services.Websocket.Connected)
	assert.Equal(t, "running", body.Services.Websocket.Status)

	down := newEngine((&HealthHandler{Cache: stubPinger{err: errors.New("dial tcp")}}).Register)
	w = httptest.NewRecorder()
	down.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = httptest.NewRecorder()
	down.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = httptest.NewRecorder()
	down.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListSources(t *testing.T) {
	now := time.Now()
	r := newEngine((&SourcesHandler{Service: stubStates{{Source: "jupiter", LastCount: 4, LastAttemptAt: &now}}}).Register)
	w, env := get(t, r, "/api/sources")
	require.Equal(t, http.StatusOK, w.Code)
	var states []models.SourceState
	require.NoError(t, json.Unmarshal(env.Data, &states))
	require.Len(t, states, 1)
	assert.Equal(t, 4, states[0].LastCount)
}

func TestRateLimiterMiddleware(t *testing.T) {
	limiter := NewRateLimiter(2)
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return fixed }

	r := newEngine(func(r gin.IRouter) {
		r.Use(limiter.Middleware())
		r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
	})
	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)

	fixed = fixed.Add(time.Minute)
	assert.True(t, limiter.Allow("192.0.2.1"))
}

func TestCORSPreflight(t *testing.T) {
	r := newEngine(func(r gin.IRouter) {
		r.Use(CORSMiddleware())
		r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/x", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestAccessLogLevelFollowsStatus(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := newEngine(func(r gin.IRouter) {
		r.Use(AccessLogMiddleware(zap.New(core)))
		r.GET("/api/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
		r.GET("/api/boom", func(c *gin.Context) { c.Status(http.StatusBadGateway) })
		r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	})
	for _, path := range []string{"/api/ok", "/api/boom", "/healthz"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, "/api/boom", entries[1].ContextMap()["path"])
	assert.EqualValues(t, http.StatusBadGateway, entries[1].ContextMap()["status"])
}
