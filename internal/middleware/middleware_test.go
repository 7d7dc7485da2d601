package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/safewalk-backend/internal/apperrors"
	"github.com/jengzang/safewalk-backend/internal/auth"
	"github.com/jengzang/safewalk-backend/internal/models"
	"github.com/jengzang/safewalk-backend/internal/observability"
	"github.com/jengzang/safewalk-backend/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, method, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	req.RemoteAddr = "10.0.0.1:1234"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorKind(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	return body.Error.Kind
}

func TestRateLimit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	clock := clockwork.NewFakeClock()
	limiter := NewRateLimiter(ctx, 2, time.Minute, clock)

	r := gin.New()
	r.Use(RateLimit(limiter))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/ping", nil).Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/ping", nil).Code)

	w := serve(r, http.MethodGet, "/ping", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "RateLimited", errorKind(t, w))

	clock.Advance(time.Minute)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/ping", nil).Code)
}

func TestRateLimiterSweep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	clock := clockwork.NewFakeClock()
	limiter := NewRateLimiter(ctx, 5, time.Minute, clock)

	assert.True(t, limiter.Allow("a"))
	assert.True(t, limiter.Allow("b"))
	assert.Equal(t, 2, trackedClients(limiter))

	clock.Advance(2 * time.Minute)
	limiter.sweep()
	assert.Zero(t, trackedClients(limiter))
}

// trackedClients counts the client IPs the limiter still holds history for.
func trackedClients(rl *RateLimiter) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.requests)
}

func TestRequireAuth(t *testing.T) {
	jwt := auth.NewJWTManager("secret", time.Hour, nil)
	token, err := jwt.Generate(&models.Identity{UUID: "u-1", Account: "alice"})
	require.NoError(t, err)

	r := gin.New()
	r.GET("/me", RequireAuth(jwt), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"uuid": IdentityID(c), "account": Account(c)})
	})

	w := serve(r, http.MethodGet, "/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Unauthenticated", errorKind(t, w))

	w = serve(r, http.MethodGet, "/me", http.Header{"Authorization": {"Token " + token}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(r, http.MethodGet, "/me", http.Header{"Authorization": {"Bearer garbage"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(r, http.MethodGet, "/me", http.Header{"Authorization": {"Bearer " + token}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"uuid":"u-1","account":"alice"}`, w.Body.String())
}

func TestAuthorizeOwner(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.NoError(t, AuthorizeOwner(c, "anyone"))

	c.Set(IdentityIDKey, "u-1")
	assert.NoError(t, AuthorizeOwner(c, "u-1"))
	assert.True(t, apperrors.Is(AuthorizeOwner(c, "u-2"), apperrors.KindPermissionDenied))
}

func TestLoggerAndMetrics(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	m := observability.NewMetricsForTesting()

	r := gin.New()
	r.Use(Logger(logger), Metrics(m))
	r.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	serve(r, http.MethodGet, "/items/7?x=1", nil)
	serve(r, http.MethodGet, "/missing", nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/items/:id", "204")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "unmatched", "404")))
	assert.Contains(t, buf.String(), `"path":"/items/7?x=1"`)
	assert.Contains(t, buf.String(), `"status":404`)
}
