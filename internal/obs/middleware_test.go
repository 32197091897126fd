package obs_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/basket-pricing/internal/obs"
)

func TestHTTPMetricsLabels(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := obs.NewMetrics("pricing", []float64{1, 10}, registry)
	handler := obs.HTTPObs{Metrics: metrics}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/quotes", nil)
	req = req.WithContext(obs.WithRoutePattern(req.Context(), "/api/v1/quotes"))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusNoContent, rr.Code)
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.ReqTotal.WithLabelValues(http.MethodPost, "/api/v1/quotes", "204")))
	require.NotZero(t, testutil.CollectAndCount(metrics.ReqDur))
	require.Equal(t, 0.0, testutil.ToFloat64(metrics.InFlight))
}

func TestNewMetricsReusesRegisteredCollectors(t *testing.T) {
	registry := prometheus.NewRegistry()
	first := obs.NewMetrics("pricing", nil, registry)
	second := obs.NewMetrics("pricing", nil, registry)

	second.ObserveQuote("ok", time.Millisecond)
	require.Equal(t, 1.0, testutil.ToFloat64(first.QuoteTotal.WithLabelValues("ok")))
}

func TestDomainMetrics(t *testing.T) {
	metrics := obs.NewMetrics("pricing", nil, prometheus.NewRegistry())
	metrics.ObserveDiscount("Coke", 0.4)
	metrics.ObserveDiscount("Coke", 0.4)
	metrics.ObserveCache("hit")

	require.Equal(t, 2.0, testutil.ToFloat64(metrics.DiscountApplied.WithLabelValues("Coke")))
	require.InDelta(t, 0.8, testutil.ToFloat64(metrics.SavingsTotal), 1e-9)
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.QuoteCache.WithLabelValues("hit")))

	metrics.ObserveBreaker("quote_cache", "closed", "open", 1)
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.BreakerState.WithLabelValues("quote_cache")))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.BreakerTransitions.WithLabelValues("quote_cache", "closed", "open")))

	var nilMetrics *obs.Metrics
	require.NotPanics(t, func() {
		nilMetrics.ObserveQuote("ok", time.Second)
		nilMetrics.ObserveCache("miss")
		nilMetrics.ObserveBreaker("quote_cache", "open", "closed", 0)
	})
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := obs.NewLoggerTo(&buf, "json", "debug")
	handler := obs.RequestLogger{Logger: logger}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req.WithContext(obs.WithRoutePattern(context.Background(), "/health/live")))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "http_request", entry["message"])
	require.Equal(t, "/health/live", entry["route"])
	require.Equal(t, float64(http.StatusTeapot), entry["status"])
	require.Equal(t, float64(len("short and stout")), entry["bytes"])
}

func TestParseBucketsCSV(t *testing.T) {
	require.Nil(t, obs.ParseBucketsCSV(" "))
	require.Equal(t, []float64{5, 50}, obs.ParseBucketsCSV("5, x, -1, 50"))
}
