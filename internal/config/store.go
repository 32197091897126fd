package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/basket-pricing/internal/catalog"
	"github.com/noah-isme/basket-pricing/internal/pricing"
)

// ProductDef is the file representation of a catalog product.
type ProductDef struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Unit  string          `json:"unit"`
}

// OfferDef is the file representation of a discount rule.
type OfferDef struct {
	Name      string          `json:"name"`
	Threshold int             `json:"threshold"`
	Amount    decimal.Decimal `json:"amount"`
	Rule      string          `json:"rule"`
	Products  []string        `json:"products"`
}

// Store is the product and offer definition consumed once at startup.
type Store struct {
	Products []ProductDef `json:"products"`
	Offers   []OfferDef   `json:"offers"`
}

// DefaultStore returns the built-in demo shop.
func DefaultStore() Store {
	return Store{
		Products: []ProductDef{
			{Name: "Beans", Price: decimal.RequireFromString("0.50"), Unit: "each"},
			{Name: "Coke", Price: decimal.RequireFromString("0.70"), Unit: "each"},
			{Name: "Oranges", Price: decimal.RequireFromString("1.99"), Unit: "kg"},
			{Name: "Ale1", Price: decimal.RequireFromString("2.50"), Unit: "each"},
			{Name: "Ale2", Price: decimal.RequireFromString("2.50"), Unit: "each"},
			{Name: "Ale3", Price: decimal.RequireFromString("2.50"), Unit: "each"},
			{Name: "Ale4", Price: decimal.RequireFromString("2.50"), Unit: "each"},
		},
		Offers: []OfferDef{
			{Name: "Beans", Threshold: 3, Amount: decimal.NewFromInt(2), Rule: "item"},
			{Name: "Coke", Threshold: 2, Amount: decimal.NewFromInt(1), Rule: "price"},
			{Name: "Ale", Threshold: 3, Amount: decimal.NewFromInt(6), Rule: "price", Products: []string{"Ale1", "Ale2", "Ale3"}},
		},
	}
}

// LoadStore reads a JSON store definition from path. An empty path yields DefaultStore.
func LoadStore(path string) (Store, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultStore(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Store{}, fmt.Errorf("read catalog file: %w", err)
	}
	var s Store
	if err := json.Unmarshal(data, &s); err != nil {
		return Store{}, fmt.Errorf("decode catalog file: %w", err)
	}
	if len(s.Products) == 0 {
		return Store{}, fmt.Errorf("catalog file %s defines no products", path)
	}
	return s, nil
}

// Catalog converts the product definitions into a catalog.
func (s Store) Catalog() (*catalog.Catalog, error) {
	products := make([]catalog.Product, 0, len(s.Products))
	for _, def := range s.Products {
		unit, err := catalog.ParseUnit(def.Unit)
		if err != nil {
			return nil, fmt.Errorf("product %s: %w", def.Name, err)
		}
		products = append(products, catalog.Product{Name: def.Name, Price: def.Price, Unit: unit})
	}
	return catalog.New(products)
}

// Rules converts the offer definitions into pricing rules, preserving order.
func (s Store) Rules() []pricing.Rule {
	rules := make([]pricing.Rule, 0, len(s.Offers))
	for _, def := range s.Offers {
		rules = append(rules, pricing.Rule{
			Name:      strings.TrimSpace(def.Name),
			Threshold: def.Threshold,
			Amount:    def.Amount,
			Kind:      pricing.ParseKind(def.Rule),
			Products:  def.Products,
		})
	}
	return rules
}

// Calculator builds the catalog, rules and calculator in one step.
func (s Store) Calculator(opts ...pricing.Option) (*pricing.Calculator, error) {
	cat, err := s.Catalog()
	if err != nil {
		return nil, err
	}
	return pricing.New(cat, s.Rules(), opts...)
}
