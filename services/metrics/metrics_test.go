package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_ObserveBackend(t *testing.T) {
	mtr := New()
	mtr.ObserveBackend("MyTasks", http.StatusOK, 10*time.Millisecond)
	mtr.ObserveBackend("MyTasks", http.StatusOK, 20*time.Millisecond)
	mtr.ObserveBackend("MyTasks", 0, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(mtr.backendRequests.WithLabelValues("MyTasks", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(mtr.backendRequests.WithLabelValues("MyTasks", "error")))

	var nilMetrics *Metrics
	assert.NotPanics(t, func() { nilMetrics.ObserveBackend("MyTasks", 200, 0) })
}

func TestMetrics_Middleware(t *testing.T) {
	mtr := New()
	e := echo.New()
	e.Use(mtr.Middleware())
	e.GET("/healthz", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/metrics", echo.WrapHandler(mtr.Handler()))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `classboard_http_requests_total{method="GET",route="/healthz",status="200"} 1`))
}
