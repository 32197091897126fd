package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Unit describes how a product is billed.
type Unit string

const (
	// UnitEach bills one price per basket line regardless of quantity.
	UnitEach Unit = "each"
	// UnitWeight bills price multiplied by the line quantity (kilograms).
	UnitWeight Unit = "kg"
)

var (
	// ErrDuplicateProduct is returned when two products share a name.
	ErrDuplicateProduct = errors.New("catalog: duplicate product")
	// ErrNegativePrice is returned for products priced below zero.
	ErrNegativePrice = errors.New("catalog: negative price")
	// ErrInvalidProduct is returned for products without a name or with an unknown unit.
	ErrInvalidProduct = errors.New("catalog: invalid product")
)

// ParseUnit maps configuration values onto a Unit. Empty values default to UnitEach.
func ParseUnit(value string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "each", "unit":
		return UnitEach, nil
	case "kg", "weight":
		return UnitWeight, nil
	default:
		return "", fmt.Errorf("%w: unknown unit %q", ErrInvalidProduct, value)
	}
}

// Product is a sellable item keyed by name.
type Product struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Unit  Unit            `json:"unit"`
}

// LinePrice returns what a single basket line of this product costs.
// Weighted products scale with qty, everything else is billed once per line.
func (p Product) LinePrice(qty decimal.Decimal) decimal.Decimal {
	if p.Unit == UnitWeight {
		return p.Price.Mul(qty)
	}
	return p.Price
}

// Catalog is an immutable product lookup built once at startup.
type Catalog struct {
	byName map[string]Product
	order  []string
}

// New validates products and builds a Catalog preserving their order.
func New(products []Product) (*Catalog, error) {
	c := &Catalog{
		byName: make(map[string]Product, len(products)),
		order:  make([]string, 0, len(products)),
	}
	for _, p := range products {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name is required", ErrInvalidProduct)
		}
		if p.Price.IsNegative() {
			return nil, fmt.Errorf("%w: %s", ErrNegativePrice, name)
		}
		if _, exists := c.byName[name]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateProduct, name)
		}
		unit := p.Unit
		if unit == "" {
			unit = UnitEach
		}
		if unit != UnitEach && unit != UnitWeight {
			return nil, fmt.Errorf("%w: unknown unit %q for %s", ErrInvalidProduct, p.Unit, name)
		}
		c.byName[name] = Product{Name: name, Price: p.Price, Unit: unit}
		c.order = append(c.order, name)
	}
	return c, nil
}

// Lookup returns the product registered under name.
func (c *Catalog) Lookup(name string) (Product, bool) {
	if c == nil {
		return Product{}, false
	}
	p, ok := c.byName[name]
	return p, ok
}

// Products returns a copy of the catalog in configuration order.
func (c *Catalog) Products() []Product {
	if c == nil {
		return nil
	}
	out := make([]Product, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.byName[name])
	}
	return out
}

// Len reports the number of products.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.order)
}
