package quote

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/basket-pricing/internal/common"
	"github.com/noah-isme/basket-pricing/internal/pricing"
	"github.com/noah-isme/basket-pricing/internal/resilience"
)

const keyPrefix = "quote:"

// Cache stores computed quotes in Redis under keys built by Key.
type Cache struct {
	client  *redis.Client
	ttl     time.Duration
	breaker *resilience.Breaker
}

// NewCache constructs a cache helper. A nil client or non-positive ttl
// disables caching.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) enabled() bool {
	return c != nil && c.client != nil && c.ttl > 0
}

// WithBreaker guards Redis calls with b. While b is open Get and Put return
// resilience.ErrOpenCircuit without touching Redis.
func (c *Cache) WithBreaker(b *resilience.Breaker) *Cache {
	if c != nil {
		c.breaker = b
	}
	return c
}

// Fingerprint digests the catalog and rules calc prices with. Quotes computed
// under different products, prices or offers never share a cache entry.
func Fingerprint(calc *pricing.Calculator) (string, error) {
	data, err := json.Marshal(struct {
		Products any `json:"products"`
		Rules    any `json:"rules"`
	}{calc.Catalog().Products(), calc.Rules()})
	if err != nil {
		return "", err
	}
	return common.Sha256Hex(string(data)), nil
}

// Key returns the Redis key for basket priced under fingerprint. Entry order
// is significant.
func Key(fingerprint string, basket []string) string {
	return keyPrefix + fingerprint + ":" + common.HashLines(basket)
}

// Get loads the quote stored under key. It reports whether the key existed.
func (c *Cache) Get(ctx context.Context, key string) (Quote, bool, error) {
	if !c.enabled() {
		return Quote{}, false, nil
	}
	var data []byte
	err := c.breaker.Do(ctx, func(ctx context.Context) error {
		var err error
		data, err = c.client.Get(ctx, key).Bytes()
		return err
	}, isMiss)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Quote{}, false, nil
		}
		return Quote{}, false, err
	}
	var q Quote
	if err := json.Unmarshal(data, &q); err != nil {
		return Quote{}, false, err
	}
	return q, true, nil
}

// Put serialises q as JSON and stores it under key with the configured TTL.
func (c *Cache) Put(ctx context.Context, key string, q Quote) error {
	if !c.enabled() {
		return nil
	}
	data, err := json.Marshal(q)
	if err != nil {
		return err
	}
	return c.breaker.Do(ctx, func(ctx context.Context) error {
		return c.client.Set(ctx, key, data, c.ttl).Err()
	}, nil)
}

func isMiss(err error) bool {
	return errors.Is(err, redis.Nil)
}
