package pricing_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/basket-pricing/internal/catalog"
	"github.com/noah-isme/basket-pricing/internal/pricing"
)

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func demoCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New([]catalog.Product{
		{Name: "Beans", Price: dec("0.50")},
		{Name: "Coke", Price: dec("0.70")},
		{Name: "Oranges", Price: dec("1.99"), Unit: catalog.UnitWeight},
		{Name: "Ale1", Price: dec("2.50")},
		{Name: "Ale2", Price: dec("2.50")},
		{Name: "Ale3", Price: dec("2.50")},
		{Name: "Ale4", Price: dec("2.50")},
	})
	require.NoError(t, err)
	return c
}

func demoRules() []pricing.Rule {
	return []pricing.Rule{
		{Name: "Beans", Threshold: 3, Amount: dec("2"), Kind: pricing.KindItem},
		{Name: "Coke", Threshold: 2, Amount: dec("1"), Kind: pricing.KindPrice},
		{Name: "Ale", Threshold: 3, Amount: dec("6"), Kind: pricing.KindPrice, Products: []string{"Ale1", "Ale2", "Ale3"}},
	}
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, dec(want).Equal(got), "expected %s, got %s", want, got)
}
