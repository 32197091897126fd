// Package receipt renders priced baskets as fixed-width text.
package receipt

import (
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/basket-pricing/internal/catalog"
	"github.com/noah-isme/basket-pricing/internal/pricing"
)

const (
	labelWidth = 15
	ruleWidth  = 25
)

// Format returns the receipt text for s.
func Format(s pricing.Summary) string {
	var lines []string

	lines = append(lines, pad("Item")+"Price")
	for _, l := range s.Lines {
		qty := "1"
		if l.Product.Unit == catalog.UnitWeight {
			qty = weight(l.Quantity)
		}
		lines = append(lines, pad(fmt.Sprintf("%s (%s):", l.Product.Name, qty))+l.Price.StringFixed(2))
	}

	lines = append(lines, strings.Repeat("-", ruleWidth))
	lines = append(lines, pad("Subtotal")+s.Subtotal.StringFixed(2))
	lines = append(lines, "Savings")
	for _, d := range s.Discounts {
		lines = append(lines, "{"+pad(d.Label)+"} "+d.Amount.StringFixed(2))
	}
	lines = append(lines, pad("Total savings")+s.TotalSavings.Neg().StringFixed(2))
	lines = append(lines, pad("Total to Pay")+s.Total.StringFixed(2))

	return strings.Join(lines, "\n") + "\n"
}

// weight always shows a fractional part, so 10 kg prints as "10.0".
func weight(q decimal.Decimal) string {
	out := q.String()
	if !strings.Contains(out, ".") {
		out += ".0"
	}
	return out
}

func pad(s string) string {
	return fmt.Sprintf("%-*s", labelWidth, s)
}

// Writer prints every rendered receipt to Out.
type Writer struct {
	Out io.Writer
}

// Render implements pricing.Renderer.
func (w Writer) Render(s pricing.Summary) error {
	if w.Out == nil {
		return nil
	}
	_, err := io.WriteString(w.Out, Format(s))
	return err
}
