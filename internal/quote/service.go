package quote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/basket-pricing/internal/common"
	"github.com/noah-isme/basket-pricing/internal/obs"
	"github.com/noah-isme/basket-pricing/internal/pricing"
	"github.com/noah-isme/basket-pricing/internal/resilience"
)

// AmountDuePlaces is the precision of Quote.AmountDue.
const AmountDuePlaces = 3

// Quote is a priced basket as returned to API callers. ID and CreatedAt
// identify the request; a cached quote gets fresh values on every hit.
type Quote struct {
	ID string `json:"id"`
	pricing.Summary
	AmountDue decimal.Decimal `json:"amountDue"`
	CreatedAt time.Time       `json:"createdAt"`
	Cached    bool            `json:"cached"`
}

// Service prices baskets, caching results in Redis when configured.
type Service struct {
	calc        *pricing.Calculator
	fingerprint string
	cache       *Cache
	metrics     *obs.Metrics
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Calculator *pricing.Calculator
	Cache      *Cache
	Metrics    *obs.Metrics
	Logger     zerolog.Logger
	Now        func() time.Time
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Calculator == nil {
		return nil, errors.New("quote: calculator is required")
	}
	fingerprint, err := Fingerprint(cfg.Calculator)
	if err != nil {
		return nil, fmt.Errorf("quote: fingerprint pricing config: %w", err)
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		calc:        cfg.Calculator,
		fingerprint: fingerprint,
		cache:       cfg.Cache,
		metrics:     cfg.Metrics,
		logger:      cfg.Logger.With().Str("component", "quote").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/basket-pricing/internal/quote"),
		now:         now,
	}, nil
}

// Calculator exposes the underlying calculator for read-only listings.
func (s *Service) Calculator() *pricing.Calculator {
	return s.calc
}

// Quote prices basket. Malformed entries yield a 400 AppError; cache
// failures are logged and otherwise ignored.
func (s *Service) Quote(ctx context.Context, basket []string) (Quote, error) {
	ctx, span := s.tracer.Start(ctx, "quote.Quote", trace.WithAttributes(attribute.Int("basket.entries", len(basket))))
	defer span.End()
	start := time.Now()

	if cached, ok := s.lookup(ctx, basket); ok {
		span.SetAttributes(attribute.Bool("quote.cached", true))
		s.metrics.ObserveQuote("cached", time.Since(start))
		return cached, nil
	}

	summary, err := s.calc.Quote(basket)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "price basket")
		var pe *pricing.ParseError
		if errors.As(err, &pe) {
			s.metrics.ObserveQuote("invalid_basket", time.Since(start))
			return Quote{}, common.BadRequest("INVALID_BASKET", pe.Error(), err, map[string]any{
				"index": pe.Index,
				"entry": pe.Entry,
			})
		}
		s.metrics.ObserveQuote("error", time.Since(start))
		return Quote{}, fmt.Errorf("price basket: %w", err)
	}

	q := Quote{
		ID:        uuid.NewString(),
		Summary:   summary,
		AmountDue: summary.Total.RoundBank(AmountDuePlaces),
		CreatedAt: s.now().UTC(),
	}
	for _, d := range summary.Discounts {
		saving, _ := d.Amount.Neg().Float64()
		s.metrics.ObserveDiscount(d.Rule, saving)
	}
	span.SetAttributes(
		attribute.Bool("quote.cached", false),
		attribute.Int("quote.discounts", len(summary.Discounts)),
		attribute.String("quote.amount_due", q.AmountDue.String()),
	)
	s.metrics.ObserveQuote("ok", time.Since(start))

	if err := s.cache.Put(ctx, Key(s.fingerprint, basket), q); err != nil && !errors.Is(err, resilience.ErrOpenCircuit) {
		s.logger.Warn().Err(err).Msg("store quote in cache")
	}
	s.logger.Debug().
		Str("quote_id", q.ID).
		Int("entries", len(basket)).
		Int("discounts", len(summary.Discounts)).
		Str("amount_due", q.AmountDue.String()).
		Msg("basket priced")
	return q, nil
}

func (s *Service) lookup(ctx context.Context, basket []string) (Quote, bool) {
	if !s.cache.enabled() {
		return Quote{}, false
	}
	q, ok, err := s.cache.Get(ctx, Key(s.fingerprint, basket))
	switch {
	case errors.Is(err, resilience.ErrOpenCircuit):
		s.metrics.ObserveCache("bypass")
		return Quote{}, false
	case err != nil:
		s.metrics.ObserveCache("error")
		s.logger.Warn().Err(err).Msg("read quote cache")
		return Quote{}, false
	case !ok:
		s.metrics.ObserveCache("miss")
		return Quote{}, false
	}
	s.metrics.ObserveCache("hit")
	q.ID = uuid.NewString()
	q.CreatedAt = s.now().UTC()
	q.Cached = true
	return q, true
}
