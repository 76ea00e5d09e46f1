package httpapp

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	httprouters "mintyfresh/internal/transport/http"

	"github.com/stretchr/testify/assert"
)

type healthFunc func(ctx context.Context) error

func (f healthFunc) HealthCheck(ctx context.Context) error {
	return f(ctx)
}

func newTestServer(redisErr error) *Server {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	routers := httprouters.NewRouter(log, nil, nil, nil, nil, nil)

	s := New(log, "secret", "", "0", routers, map[string]HealthChecker{
		"postgres": healthFunc(func(context.Context) error { return nil }),
		"redis":    healthFunc(func(context.Context) error { return redisErr }),
	})
	s.BuildRouters()

	return s
}

func TestHealth(t *testing.T) {
	t.Run("all up", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newTestServer(nil).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"postgres":"ok","redis":"ok"}`, rec.Body.String())
	})

	t.Run("redis down", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newTestServer(errors.New("connection refused")).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), "connection refused")
	})
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}
