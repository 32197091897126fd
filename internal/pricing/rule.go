package pricing

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/basket-pricing/internal/catalog"
)

// Kind selects how a rule's Amount is interpreted.
type Kind string

const (
	// KindItem means "buy Threshold, pay for Threshold-Amount units".
	KindItem Kind = "item"
	// KindPrice means "every Threshold units cost exactly Amount".
	KindPrice Kind = "price"
)

// ParseKind normalises a configured rule kind. Unrecognised values are kept
// as-is: such rules load fine and never save anything.
func ParseKind(value string) Kind {
	return Kind(strings.ToLower(strings.TrimSpace(value)))
}

// Supported reports whether the kind has a saving formula.
func (k Kind) Supported() bool {
	switch k {
	case KindItem, KindPrice:
		return true
	default:
		return false
	}
}

// Rule is a single promotional offer. A rule without Products applies to the
// catalog product called Name; a rule with Products is a group offer and Name
// is only a display label.
type Rule struct {
	Name      string          `json:"name"`
	Threshold int             `json:"threshold"`
	Amount    decimal.Decimal `json:"amount"`
	Kind      Kind            `json:"rule"`
	Products  []string        `json:"products,omitempty"`
}

// IsGroup reports whether the rule spans several products.
func (r Rule) IsGroup() bool {
	return len(r.Products) > 0
}

// Label renders the receipt caption, e.g. "Coke 2 for £1.00" or "Beans 3 for 2".
func (r Rule) Label() string {
	label := r.Name + " " + strconv.Itoa(r.Threshold) + " for "
	if r.Kind == KindPrice {
		return label + "£" + r.Amount.StringFixed(2)
	}
	return label + r.Amount.String()
}

// Validate checks the rule against its own invariants and the catalog it will
// be evaluated with.
func (r Rule) Validate(c *catalog.Catalog) error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidRule)
	}
	if r.Threshold <= 0 {
		return fmt.Errorf("%w: %s: threshold must be positive", ErrInvalidRule, r.Name)
	}
	switch r.Kind {
	case KindItem:
		if r.Amount.IsNegative() || r.Amount.GreaterThanOrEqual(decimal.NewFromInt(int64(r.Threshold))) {
			return fmt.Errorf("%w: %s: item amount must be in [0, threshold)", ErrInvalidRule, r.Name)
		}
	case KindPrice:
		if !r.Amount.IsPositive() {
			return fmt.Errorf("%w: %s: price amount must be positive", ErrInvalidRule, r.Name)
		}
	}
	if !r.IsGroup() {
		if _, ok := c.Lookup(r.Name); !ok {
			return fmt.Errorf("%w: rule %s targets %q", ErrUnknownProduct, r.Name, r.Name)
		}
		return nil
	}
	for _, name := range r.Products {
		if _, ok := c.Lookup(name); !ok {
			return fmt.Errorf("%w: rule %s covers %q", ErrUnknownProduct, r.Name, name)
		}
	}
	return nil
}

// Saving returns the unrounded amount this rule takes off the basket.
func (r Rule) Saving(c *catalog.Catalog, counts Counts) decimal.Decimal {
	if r.IsGroup() {
		return r.groupSaving(c, counts)
	}
	p, ok := c.Lookup(r.Name)
	if !ok {
		return decimal.Zero
	}
	return r.singleSaving(p.Price, counts[r.Name])
}

func (r Rule) groups(count int) int {
	if r.Threshold <= 0 || count <= 0 {
		return 0
	}
	return count / r.Threshold
}

func (r Rule) singleSaving(unitPrice decimal.Decimal, count int) decimal.Decimal {
	groups := r.groups(count)
	if groups == 0 {
		return decimal.Zero
	}
	return r.perGroup(unitPrice).Mul(decimal.NewFromInt(int64(groups)))
}

// groupSaving treats every covered unit as costing the blended average price
// of what was bought.
func (r Rule) groupSaving(c *catalog.Catalog, counts Counts) decimal.Decimal {
	count := 0
	spent := decimal.Zero
	for _, name := range r.Products {
		n := counts[name]
		if n == 0 {
			continue
		}
		p, ok := c.Lookup(name)
		if !ok {
			continue
		}
		count += n
		spent = spent.Add(p.Price.Mul(decimal.NewFromInt(int64(n))))
	}
	groups := r.groups(count)
	if groups == 0 {
		return decimal.Zero
	}
	average := spent.Div(decimal.NewFromInt(int64(count)))
	return r.perGroup(average).Mul(decimal.NewFromInt(int64(groups)))
}

func (r Rule) perGroup(unitPrice decimal.Decimal) decimal.Decimal {
	threshold := decimal.NewFromInt(int64(r.Threshold))
	switch r.Kind {
	case KindItem:
		return threshold.Sub(r.Amount).Mul(unitPrice)
	case KindPrice:
		return threshold.Mul(unitPrice).Sub(r.Amount)
	default:
		// unsupported kinds never discount
		return decimal.Zero
	}
}
