package pricing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/basket-pricing/internal/catalog"
)

const (
	savingPlaces = 2
	totalPlaces  = 3
)

var (
	// ErrInvalidRule is returned when a rule breaks its own invariants.
	ErrInvalidRule = errors.New("pricing: invalid rule")
	// ErrUnknownProduct is returned when a rule references a product missing from the catalog.
	ErrUnknownProduct = errors.New("pricing: unknown product")
)

// Discount is one applied rule on a receipt. Amount is negative.
type Discount struct {
	Rule   string          `json:"rule"`
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
}

// Summary aggregates computed pricing components for one basket.
type Summary struct {
	Basket       []string        `json:"basket"`
	Lines        []Line          `json:"lines"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	Discounts    []Discount      `json:"discounts"`
	TotalSavings decimal.Decimal `json:"totalSavings"`
	Total        decimal.Decimal `json:"total"`
}

// Renderer receives every computed Summary, typically to print a receipt.
type Renderer interface {
	Render(Summary) error
}

// Option customises a Calculator.
type Option func(*Calculator)

// WithRenderer hands each computed Summary to r.
func WithRenderer(r Renderer) Option {
	return func(c *Calculator) {
		c.renderer = r
	}
}

// Calculator prices baskets against a fixed catalog and rule set. It holds no
// per-basket state and is safe for concurrent use.
type Calculator struct {
	catalog  *catalog.Catalog
	rules    []Rule
	renderer Renderer
}

// New validates rules against cat and returns a Calculator.
func New(cat *catalog.Catalog, rules []Rule, opts ...Option) (*Calculator, error) {
	if cat == nil {
		return nil, errors.New("pricing: catalog is required")
	}
	c := &Calculator{catalog: cat, rules: make([]Rule, 0, len(rules))}
	for _, r := range rules {
		if err := r.Validate(cat); err != nil {
			return nil, err
		}
		r.Products = append([]string(nil), r.Products...)
		c.rules = append(c.rules, r)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Catalog returns the catalog the calculator prices against.
func (c *Calculator) Catalog() *catalog.Catalog {
	return c.catalog
}

// Rules returns a copy of the configured rules in evaluation order.
func (c *Calculator) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	for i, r := range c.rules {
		r.Products = append([]string(nil), r.Products...)
		out[i] = r
	}
	return out
}

// Quote parses entries, applies every rule and returns the itemised result.
// Each rule's saving is rounded to two places before it is summed.
func (c *Calculator) Quote(entries []string) (Summary, error) {
	basket, err := ParseBasket(c.catalog, entries)
	if err != nil {
		return Summary{}, err
	}

	totalSavings := decimal.Zero
	discounts := make([]Discount, 0, len(c.rules))
	for _, r := range c.rules {
		saving := r.Saving(c.catalog, basket.Counts).RoundBank(savingPlaces)
		if !saving.IsPositive() {
			continue
		}
		totalSavings = totalSavings.Add(saving)
		discounts = append(discounts, Discount{Rule: r.Name, Label: r.Label(), Amount: saving.Neg()})
	}

	summary := Summary{
		Basket:       append([]string(nil), entries...),
		Lines:        basket.Lines,
		Subtotal:     basket.Subtotal,
		Discounts:    discounts,
		TotalSavings: totalSavings,
		Total:        basket.Subtotal.Sub(totalSavings),
	}
	if c.renderer != nil {
		if err := c.renderer.Render(summary); err != nil {
			return summary, fmt.Errorf("render receipt: %w", err)
		}
	}
	return summary, nil
}

// Calculate returns the amount to pay rounded to three places.
func (c *Calculator) Calculate(entries []string) (decimal.Decimal, error) {
	summary, err := c.Quote(entries)
	if err != nil {
		return decimal.Zero, err
	}
	return summary.Total.RoundBank(totalPlaces), nil
}
