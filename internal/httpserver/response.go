package httpserver

import (
	"storefront/internal/domain"
	"storefront/internal/service/cart"

	"github.com/shopspring/decimal"
)

type cartResponse struct {
	State string         `json:"state"`
	Lines []lineResponse `json:"lines"`
	Total string         `json:"total"`
	Count int            `json:"count"`
}

type lineResponse struct {
	Key                 string           `json:"key"`
	LineID              domain.ID        `json:"lineId,omitempty"`
	ProductID           domain.ID        `json:"productId"`
	VariantID           domain.ID        `json:"variantId,omitempty"`
	Quantity            int              `json:"quantity"`
	Name                string           `json:"name,omitempty"`
	Image               string           `json:"image,omitempty"`
	UnitPrice           *decimal.Decimal `json:"unitPrice,omitempty"`
	DiscountedUnitPrice *decimal.Decimal `json:"discountedUnitPrice,omitempty"`
	Subtotal            string           `json:"subtotal"`
}

func toCartResponse(v cart.View) cartResponse {
	lines := make([]lineResponse, 0, len(v.Lines))
	for _, l := range v.Lines {
		lines = append(lines, lineResponse{
			Key:                 l.Key().String(),
			LineID:              l.LineID,
			ProductID:           l.ProductID,
			VariantID:           l.VariantID,
			Quantity:            l.Quantity,
			Name:                l.Name,
			Image:               l.Image,
			UnitPrice:           l.UnitPrice,
			DiscountedUnitPrice: l.DiscountedUnitPrice,
			Subtotal:            l.Subtotal().StringFixed(2),
		})
	}
	return cartResponse{
		State: v.State.String(),
		Lines: lines,
		Total: v.Total.StringFixed(2),
		Count: v.Count,
	}
}

type userResponse struct {
	User domain.User `json:"user"`
}
