package pricing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/basket-pricing/internal/catalog"
)

// Separator splits a basket entry into product name and quantity.
const Separator = ":"

// ErrMalformedEntry matches every *ParseError via errors.Is.
var ErrMalformedEntry = errors.New("pricing: malformed basket entry")

// ParseError reports the first basket entry that could not be parsed.
type ParseError struct {
	Index  int
	Entry  string
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("basket entry %d %q: %s", e.Index, e.Entry, e.Reason)
}

// Unwrap exposes the underlying quantity parse failure, if any.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrMalformedEntry) hold for any ParseError.
func (e *ParseError) Is(target error) bool {
	return target == ErrMalformedEntry
}

// Line is one priced basket entry for a known product.
type Line struct {
	Entry    string          `json:"entry"`
	Product  catalog.Product `json:"product"`
	Quantity decimal.Decimal `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// Counts maps product name to the number of basket lines that referenced it.
// Discount thresholds are checked against these counts, not against weights.
type Counts map[string]int

// Basket is the parsed form of a list of raw entries.
type Basket struct {
	Lines    []Line
	Subtotal decimal.Decimal
	Counts   Counts
}

// ParseEntry splits "name:quantity" into its parts.
func ParseEntry(entry string) (string, decimal.Decimal, error) {
	parts := strings.Split(entry, Separator)
	if len(parts) != 2 {
		return "", decimal.Zero, &ParseError{Entry: entry, Reason: "expected name" + Separator + "quantity"}
	}
	raw := strings.TrimSpace(parts[1])
	qty, err := decimal.NewFromString(raw)
	if err != nil {
		return "", decimal.Zero, &ParseError{Entry: entry, Reason: fmt.Sprintf("invalid quantity %q", raw), Err: err}
	}
	if qty.IsNegative() {
		return "", decimal.Zero, &ParseError{Entry: entry, Reason: "quantity must not be negative"}
	}
	return strings.TrimSpace(parts[0]), qty, nil
}

// ParseBasket prices every entry against c. Entries naming products missing
// from the catalog are skipped; the first malformed entry aborts parsing.
func ParseBasket(c *catalog.Catalog, entries []string) (Basket, error) {
	b := Basket{
		Lines:    make([]Line, 0, len(entries)),
		Subtotal: decimal.Zero,
		Counts:   make(Counts),
	}
	for i, entry := range entries {
		name, qty, err := ParseEntry(entry)
		if err != nil {
			var pe *ParseError
			if errors.As(err, &pe) {
				pe.Index = i
			}
			return Basket{}, err
		}
		p, ok := c.Lookup(name)
		if !ok {
			continue
		}
		price := p.LinePrice(qty)
		b.Counts[p.Name]++
		b.Subtotal = b.Subtotal.Add(price)
		b.Lines = append(b.Lines, Line{Entry: entry, Product: p, Quantity: qty, Price: price})
	}
	return b, nil
}
