package pricing_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/basket-pricing/internal/pricing"
)

func TestRuleSavingSingleProduct(t *testing.T) {
	cat := demoCatalog(t)
	beans := pricing.Rule{Name: "Beans", Threshold: 3, Amount: dec("2"), Kind: pricing.KindItem}
	coke := pricing.Rule{Name: "Coke", Threshold: 2, Amount: dec("1"), Kind: pricing.KindPrice}

	cases := []struct {
		name  string
		rule  pricing.Rule
		count int
		want  string
	}{
		{"item below threshold", beans, 2, "0"},
		{"item at threshold", beans, 3, "0.5"},
		{"item two groups", beans, 7, "1"},
		{"price below threshold", coke, 1, "0"},
		{"price at threshold", coke, 2, "0.4"},
		{"price two groups", coke, 5, "0.8"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.rule.Saving(cat, pricing.Counts{tc.rule.Name: tc.count})
			requireDecimal(t, tc.want, got)
		})
	}
}

func TestRuleSavingGroup(t *testing.T) {
	cat := demoCatalog(t)
	ale := demoRules()[2]

	requireDecimal(t, "0", ale.Saving(cat, pricing.Counts{}))
	requireDecimal(t, "0", ale.Saving(cat, pricing.Counts{"Ale1": 2}))
	requireDecimal(t, "1.5", ale.Saving(cat, pricing.Counts{"Ale1": 1, "Ale2": 1, "Ale3": 1}))
	requireDecimal(t, "1.5", ale.Saving(cat, pricing.Counts{"Ale1": 2, "Ale2": 1, "Ale3": 1}))
	// Ale4 is not covered.
	requireDecimal(t, "0", ale.Saving(cat, pricing.Counts{"Ale1": 1, "Ale4": 2}))
}

func TestRuleSavingGroupUsesBlendedAverage(t *testing.T) {
	cat := demoCatalog(t)
	mixed := pricing.Rule{Name: "Mix", Threshold: 2, Amount: dec("1"), Kind: pricing.KindItem, Products: []string{"Beans", "Coke"}}

	// average of 0.50 and 0.70 is 0.60; one free unit per pair
	requireDecimal(t, "0.6", mixed.Saving(cat, pricing.Counts{"Beans": 1, "Coke": 1}))
}

func TestRuleUnsupportedKindSavesNothing(t *testing.T) {
	cat := demoCatalog(t)
	rule := pricing.Rule{Name: "Beans", Threshold: 1, Amount: dec("1"), Kind: pricing.ParseKind("percent")}
	require.False(t, rule.Kind.Supported())
	require.NoError(t, rule.Validate(cat))
	requireDecimal(t, "0", rule.Saving(cat, pricing.Counts{"Beans": 10}))
}

func TestRuleLabel(t *testing.T) {
	rules := demoRules()
	require.Equal(t, "Beans 3 for 2", rules[0].Label())
	require.Equal(t, "Coke 2 for £1.00", rules[1].Label())
	require.Equal(t, "Ale 3 for £6.00", rules[2].Label())
}

func TestRuleValidate(t *testing.T) {
	cat := demoCatalog(t)
	for _, r := range demoRules() {
		require.NoError(t, r.Validate(cat))
	}

	cases := []struct {
		name string
		rule pricing.Rule
		want error
	}{
		{"zero threshold", pricing.Rule{Name: "Beans", Threshold: 0, Amount: dec("1"), Kind: pricing.KindItem}, pricing.ErrInvalidRule},
		{"item amount equals threshold", pricing.Rule{Name: "Beans", Threshold: 3, Amount: dec("3"), Kind: pricing.KindItem}, pricing.ErrInvalidRule},
		{"item amount negative", pricing.Rule{Name: "Beans", Threshold: 3, Amount: dec("-1"), Kind: pricing.KindItem}, pricing.ErrInvalidRule},
		{"price amount zero", pricing.Rule{Name: "Coke", Threshold: 2, Amount: dec("0"), Kind: pricing.KindPrice}, pricing.ErrInvalidRule},
		{"unknown single product", pricing.Rule{Name: "Milk", Threshold: 2, Amount: dec("1"), Kind: pricing.KindPrice}, pricing.ErrUnknownProduct},
		{"unknown covered product", pricing.Rule{Name: "Ale", Threshold: 3, Amount: dec("6"), Kind: pricing.KindPrice, Products: []string{"Ale1", "Ale9"}}, pricing.ErrUnknownProduct},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.rule.Validate(cat)
			require.Error(t, err)
			require.True(t, errors.Is(err, tc.want), "unexpected error: %v", err)
		})
	}
}
