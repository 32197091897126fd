package obs

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the Prometheus collectors exported by the pricing service.
type Metrics struct {
	ReqTotal *prometheus.CounterVec
	ReqDur   *prometheus.HistogramVec
	InFlight prometheus.Gauge

	QuoteTotal      *prometheus.CounterVec
	QuoteDur        prometheus.Histogram
	DiscountApplied *prometheus.CounterVec
	SavingsTotal    prometheus.Counter
	QuoteCache      *prometheus.CounterVec

	BreakerState       *prometheus.GaugeVec
	BreakerTransitions *prometheus.CounterVec
}

// NewMetrics registers and returns the service collectors. Collectors that are
// already registered on reg are reused.
func NewMetrics(namespace string, buckets []float64, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if len(buckets) == 0 {
		buckets = []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500}
	} else {
		sort.Float64s(buckets)
	}
	return &Metrics{
		ReqTotal: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests handled by the server.",
		}, []string{"method", "route", "status"})),
		ReqDur: register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency distribution in milliseconds.",
			Buckets:   buckets,
		}, []string{"method", "route"})),
		InFlight: register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_in_flight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		})),
		QuoteTotal: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quote_total",
			Help:      "Count of basket quotes by outcome.",
		}, []string{"result"})),
		QuoteDur: register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "quote_duration_ms",
			Help:      "Time spent pricing a basket in milliseconds.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 25, 50},
		})),
		DiscountApplied: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quote_discount_applied_total",
			Help:      "Count of discount rules that produced a saving.",
		}, []string{"rule"})),
		SavingsTotal: register(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quote_savings_total",
			Help:      "Sum of rounded savings handed out across all quotes.",
		})),
		QuoteCache: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quote_cache_total",
			Help:      "Quote cache lookups by result.",
		}, []string{"result"})),
		BreakerState: register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "breaker_state",
			Help:      "Current breaker state: 0=closed,1=open,2=half-open",
		}, []string{"target"})),
		BreakerTransitions: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "breaker_transition_total",
			Help:      "Count of breaker state transitions.",
		}, []string{"target", "from", "to"})),
	}
}

// ObserveQuote records a pricing outcome and its latency.
func (m *Metrics) ObserveQuote(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.QuoteTotal.WithLabelValues(result).Inc()
	m.QuoteDur.Observe(DurationMillis(d))
}

// ObserveDiscount records one applied rule and the amount it saved.
func (m *Metrics) ObserveDiscount(rule string, saving float64) {
	if m == nil {
		return
	}
	m.DiscountApplied.WithLabelValues(rule).Inc()
	if saving > 0 {
		m.SavingsTotal.Add(saving)
	}
}

// ObserveCache records a cache lookup result: hit, miss, error or bypass.
func (m *Metrics) ObserveCache(result string) {
	if m == nil {
		return
	}
	m.QuoteCache.WithLabelValues(result).Inc()
}

// ObserveBreaker records a breaker moving from one state to another. state is
// the gauge value of the new state.
func (m *Metrics) ObserveBreaker(target, from, to string, state float64) {
	if m == nil {
		return
	}
	m.BreakerState.WithLabelValues(target).Set(state)
	m.BreakerTransitions.WithLabelValues(target, from, to).Inc()
}

// ParseBucketsCSV converts a comma-separated list of bucket boundaries (milliseconds) into floats.
func ParseBucketsCSV(csv string) []float64 {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]float64, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil || v <= 0 {
			continue
		}
		out = append(out, v)
	}
	return out
}

// DurationMillis converts a duration to milliseconds for metric observation.
func DurationMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
		panic(fmt.Errorf("register collector: %w", err))
	}
	return c
}
