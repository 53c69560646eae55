package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestHealthz(t *testing.T) {
	healthy := Handler(func(context.Context) error { return nil })
	rec := httptest.NewRecorder()
	healthy.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	sick := Handler(func(context.Context) error { return errors.New("pg down") })
	rec = httptest.NewRecorder()
	sick.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "pg down")
}

func TestIngestMetricsRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewIngestMetrics(reg)

	m.Runs.WithLabelValues("complete").Inc()
	m.Outcomes.WithLabelValues("inserted").Add(3)
	m.Errors.WithLabelValues("fetch").Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("complete")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Outcomes.WithLabelValues("inserted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Errors.WithLabelValues("fetch")))

	assert.Panics(t, func() { NewIngestMetrics(reg) }, "duplicate registration")
}
