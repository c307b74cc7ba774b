package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry as served by the shop API.
type Product struct {
	ID            ID               `json:"id"`
	Name          string           `json:"name"`
	Brand         string           `json:"brand,omitempty"`
	Description   string           `json:"description,omitempty"`
	Image         string           `json:"image,omitempty"`
	Price         decimal.Decimal  `json:"price"`
	DiscountPrice *decimal.Decimal `json:"discount_price,omitempty"`
	Variants      []Variant        `json:"variants,omitempty"`
	CreatedAt     time.Time        `json:"createdAt"`
}

// Variant is a color/storage combination of a product.
type Variant struct {
	ID            ID               `json:"id"`
	Color         string           `json:"color,omitempty"`
	Storage       string           `json:"storage,omitempty"`
	Image         string           `json:"image,omitempty"`
	Price         *decimal.Decimal `json:"price,omitempty"`
	DiscountPrice *decimal.Decimal `json:"discount_price,omitempty"`
	Stock         int              `json:"stock"`
}

func (p Product) Variant(id ID) (Variant, bool) {
	for _, v := range p.Variants {
		if v.ID == id {
			return v, true
		}
	}
	return Variant{}, false
}

// EffectivePrice mirrors CartLine.EffectivePrice for catalog filtering.
func (p Product) EffectivePrice() decimal.Decimal {
	if p.DiscountPrice != nil {
		return *p.DiscountPrice
	}
	return p.Price
}
