package shop

import "fmt"

// DefaultShippingCents is the flat shipping fee (5.99).
const DefaultShippingCents int64 = 599

type Summary struct {
	ItemCount     int   `json:"item_count"`
	SubtotalCents int64 `json:"subtotal_cents"`
	ShippingCents int64 `json:"shipping_cents"`
	TotalCents    int64 `json:"total_cents"`
}

// Summarize derives display totals from a cart snapshot. Shipping is charged only
// on a non-zero subtotal; ItemCount sums quantities, not distinct lines.
func Summarize(c Cart, shippingCents int64) Summary {
	s := Summary{SubtotalCents: c.TotalCents}
	for _, it := range c.Items {
		s.ItemCount += it.Quantity
	}
	if s.SubtotalCents > 0 {
		s.ShippingCents = shippingCents
	}
	s.TotalCents = s.SubtotalCents + s.ShippingCents
	return s
}

// FormatCents renders minor units as "12.34".
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
