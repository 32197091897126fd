package resilience_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/basket-pricing/internal/resilience"
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

type transition struct{ from, to resilience.State }

func newBreaker(c *clock, seen *[]transition) *resilience.Breaker {
	return resilience.NewBreaker(resilience.Config{
		Target:       "quote_cache",
		MinRequests:  2,
		FailureRatio: 0.5,
		OpenFor:      time.Second,
		Now:          c.Now,
		OnTransition: func(target string, from, to resilience.State) {
			*seen = append(*seen, transition{from, to})
		},
	})
}

func TestBreakerTransitions(t *testing.T) {
	c := &clock{now: time.Unix(1_700_000_000, 0)}
	var seen []transition
	breaker := newBreaker(c, &seen)
	ctx := context.Background()

	require.True(t, breaker.Allow(ctx))
	breaker.Report(ctx, false)
	require.True(t, breaker.Allow(ctx))
	breaker.Report(ctx, false)
	require.Equal(t, resilience.Open, breaker.State())
	require.False(t, breaker.Allow(ctx), "breaker should reject while open")

	c.now = c.now.Add(time.Second)
	require.True(t, breaker.Allow(ctx), "breaker should admit a probe after cool off")
	require.False(t, breaker.Allow(ctx), "only one probe while half-open")
	breaker.Report(ctx, true)
	require.Equal(t, resilience.Closed, breaker.State())

	require.Equal(t, []transition{
		{resilience.Closed, resilience.Open},
		{resilience.Open, resilience.HalfOpen},
		{resilience.HalfOpen, resilience.Closed},
	}, seen)
}

func TestBreakerFailedProbeReopens(t *testing.T) {
	c := &clock{now: time.Unix(1_700_000_000, 0)}
	var seen []transition
	breaker := newBreaker(c, &seen)
	ctx := context.Background()

	breaker.Report(ctx, false)
	breaker.Report(ctx, false)
	c.now = c.now.Add(2 * time.Second)
	require.True(t, breaker.Allow(ctx))
	breaker.Report(ctx, false)
	require.Equal(t, resilience.Open, breaker.State())
	require.False(t, breaker.Allow(ctx))
}

func TestBreakerDo(t *testing.T) {
	c := &clock{now: time.Unix(1_700_000_000, 0)}
	var seen []transition
	breaker := newBreaker(c, &seen)
	ctx := context.Background()
	errMiss := errors.New("miss")
	errDown := errors.New("down")
	isMiss := func(err error) bool { return errors.Is(err, errMiss) }

	for i := 0; i < 4; i++ {
		err := breaker.Do(ctx, func(context.Context) error { return errMiss }, isMiss)
		require.ErrorIs(t, err, errMiss)
	}
	require.Equal(t, resilience.Closed, breaker.State())

	for i := 0; i < 4; i++ {
		_ = breaker.Do(ctx, func(context.Context) error { return errDown }, isMiss)
	}
	require.Equal(t, resilience.Open, breaker.State())

	called := false
	err := breaker.Do(ctx, func(context.Context) error { called = true; return nil }, nil)
	require.ErrorIs(t, err, resilience.ErrOpenCircuit)
	require.False(t, called)
}

func TestNilBreakerAllows(t *testing.T) {
	var breaker *resilience.Breaker
	require.True(t, breaker.Allow(context.Background()))
	require.NoError(t, breaker.Do(context.Background(), func(context.Context) error { return nil }, nil))
}

func TestStateGauge(t *testing.T) {
	require.Equal(t, 0.0, resilience.Closed.Gauge())
	require.Equal(t, 1.0, resilience.Open.Gauge())
	require.Equal(t, 2.0, resilience.HalfOpen.Gauge())
	require.Equal(t, "half_open", resilience.HalfOpen.String())
}
