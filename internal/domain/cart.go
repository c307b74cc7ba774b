package domain

import (
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

// lineKeySep separates product and variant in the string form of a LineKey.
const lineKeySep = "~"

// LineKey identifies a cart line. A cart holds at most one line per key.
type LineKey struct {
	ProductID ID
	VariantID ID
}

func (k LineKey) String() string {
	if k.VariantID.IsZero() {
		return string(k.ProductID)
	}
	return string(k.ProductID) + lineKeySep + string(k.VariantID)
}

// ParseLineKey accepts the output of LineKey.String, optionally path-escaped.
func ParseLineKey(raw string) (LineKey, error) {
	if unescaped, err := url.PathUnescape(raw); err == nil {
		raw = unescaped
	}
	raw = strings.TrimSpace(raw)
	product, variant, _ := strings.Cut(raw, lineKeySep)
	key := LineKey{ProductID: ID(strings.TrimSpace(product)), VariantID: ID(strings.TrimSpace(variant))}
	if key.ProductID.IsZero() {
		return LineKey{}, ErrInvalidLineKey
	}
	return key, nil
}

type CartLine struct {
	LineID              ID               `json:"lineId,omitempty"`
	ProductID           ID               `json:"productId"`
	VariantID           ID               `json:"variantId,omitempty"`
	Quantity            int              `json:"quantity"`
	Name                string           `json:"name,omitempty"`
	Image               string           `json:"image,omitempty"`
	UnitPrice           *decimal.Decimal `json:"unitPrice,omitempty"`
	DiscountedUnitPrice *decimal.Decimal `json:"discountedUnitPrice,omitempty"`
}

func (l CartLine) Key() LineKey {
	return LineKey{ProductID: l.ProductID, VariantID: l.VariantID}
}

// EffectivePrice is the discounted unit price when present, else the unit
// price. Missing and negative prices count as zero.
func (l CartLine) EffectivePrice() decimal.Decimal {
	price := decimal.Zero
	switch {
	case l.DiscountedUnitPrice != nil:
		price = *l.DiscountedUnitPrice
	case l.UnitPrice != nil:
		price = *l.UnitPrice
	}
	if price.IsNegative() {
		return decimal.Zero
	}
	return price
}

// Subtotal is EffectivePrice times quantity, zero for non-positive quantities.
func (l CartLine) Subtotal() decimal.Decimal {
	if l.Quantity <= 0 {
		return decimal.Zero
	}
	return l.EffectivePrice().Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is an ordered list of lines in insertion order.
type Cart struct {
	Lines []CartLine `json:"lines"`
}

func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.Lines {
		total = total.Add(line.Subtotal())
	}
	return total
}

func (c Cart) Count() int {
	count := 0
	for _, line := range c.Lines {
		if line.Quantity > 0 {
			count += line.Quantity
		}
	}
	return count
}

// Index returns the position of the line with the given key, or -1.
func (c Cart) Index(key LineKey) int {
	for i, line := range c.Lines {
		if line.Key() == key {
			return i
		}
	}
	return -1
}

func (c Cart) Clone() Cart {
	if c.Lines == nil {
		return Cart{}
	}
	lines := make([]CartLine, len(c.Lines))
	copy(lines, c.Lines)
	return Cart{Lines: lines}
}
