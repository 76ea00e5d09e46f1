package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"mintyfresh/internal/metrics"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPrometheusMetrics(t *testing.T) {
	e := echo.New()
	e.Use(PrometheusMetrics)
	e.GET("/api/v1/viewers/:id", func(c echo.Context) error {
		return c.NoContent(http.StatusNotFound)
	})

	counter := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/api/v1/viewers/:id", "404")
	before := testutil.ToFloat64(counter)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/viewers/abc", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(counter), "route template is used as the path label")
}
