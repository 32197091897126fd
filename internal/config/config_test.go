package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/basket-pricing/internal/pricing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"PORT":                 "",
		"REDIS_URL":            "",
		"QUOTE_CACHE_TTL":      "",
		"QUOTE_RATE_LIMIT_MAX": "",
		"OBS_ENABLE_TRACING":   "",
	})
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Empty(t, cfg.RedisURL)
	require.Equal(t, 10*time.Minute, cfg.QuoteCacheTTL)
	require.Equal(t, 120, cfg.QuoteRateLimitMax)
	require.False(t, cfg.TracingEnabled)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"PORT":                    ":9090",
		"REDIS_URL":               "redis://localhost:6379/0",
		"QUOTE_CACHE_TTL":         "30s",
		"QUOTE_RATE_LIMIT_WINDOW": "bogus",
		"CORS_ALLOWED_ORIGINS":    "https://a.example, https://b.example,,",
		"OBS_ENABLE_PROMETHEUS":   "off",
	})
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTPAddr())
	require.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	require.Equal(t, 30*time.Second, cfg.QuoteCacheTTL)
	require.Equal(t, time.Minute, cfg.QuoteRateWindow)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	require.False(t, cfg.MetricsEnabled)
}

func TestLoadRejectsNegativeRateLimit(t *testing.T) {
	_, err := LoadForTests(map[string]string{"QUOTE_RATE_LIMIT_MAX": "-1"})
	require.Error(t, err)
}

func TestDefaultStoreBuildsCalculator(t *testing.T) {
	calc, err := DefaultStore().Calculator()
	require.NoError(t, err)
	require.Equal(t, 7, calc.Catalog().Len())
	require.Len(t, calc.Rules(), 3)

	total, err := calc.Calculate([]string{"Beans:1", "Oranges:1", "Beans:1", "Beans:0.5", "Coke:1", "Coke:1"})
	require.NoError(t, err)
	require.Equal(t, "3.99", total.String())
}

func TestLoadStoreFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	body := `{
		"products": [
			{"name": "Tea", "price": "1.20"},
			{"name": "Rice", "price": 3.5, "unit": "kg"}
		],
		"offers": [
			{"name": "Tea", "threshold": 2, "amount": 1, "rule": "ITEM"},
			{"name": "Staples", "threshold": 2, "amount": "3.00", "rule": "price", "products": ["Tea", "Rice"]}
		]
	}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	store, err := LoadStore(path)
	require.NoError(t, err)
	rules := store.Rules()
	require.Equal(t, pricing.KindItem, rules[0].Kind)
	require.True(t, rules[1].IsGroup())

	calc, err := store.Calculator()
	require.NoError(t, err)
	total, err := calc.Calculate([]string{"Tea:1", "Tea:1", "Rice:2"})
	require.NoError(t, err)
	// subtotal 9.40; tea saves 1.20; staples counts 3 lines at an average of 1.9667, one pair saves 0.93
	require.Equal(t, "7.27", total.String())
}

func TestLoadStoreErrors(t *testing.T) {
	_, err := LoadStore(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"products": []}`), 0o600))
	_, err = LoadStore(path)
	require.Error(t, err)

	bad := Store{
		Products: []ProductDef{{Name: "Tea", Unit: "litre"}},
	}
	_, err = bad.Calculator()
	require.Error(t, err)

	orphan := DefaultStore()
	orphan.Offers = append(orphan.Offers, OfferDef{Name: "Milk", Threshold: 2, Rule: "price"})
	_, err = orphan.Calculator()
	require.True(t, errors.Is(err, pricing.ErrInvalidRule) || errors.Is(err, pricing.ErrUnknownProduct))
}
