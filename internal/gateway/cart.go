package gateway

import (
	"context"
	"net/http"
	"net/url"

	"storefront/internal/domain"

	"github.com/shopspring/decimal"
)

// CartGateway is the remote cart of one authenticated session.
type CartGateway struct {
	client *Client
	creds  Credentials
}

func (c *Client) Cart(creds Credentials) *CartGateway {
	return &CartGateway{client: c, creds: creds}
}

type AddItem struct {
	ProductID domain.ID `json:"productId"`
	VariantID domain.ID `json:"variantId,omitempty"`
	Quantity  int       `json:"quantity"`
}

type cartItemDTO struct {
	ID            domain.ID        `json:"id"`
	ProductID     domain.ID        `json:"productId"`
	VariantID     domain.ID        `json:"variantId"`
	Quantity      int              `json:"quantity"`
	Name          string           `json:"name"`
	Image         string           `json:"image"`
	Price         *decimal.Decimal `json:"price"`
	DiscountPrice *decimal.Decimal `json:"discount_price"`
	Product       *struct {
		Name  string `json:"name"`
		Image string `json:"image"`
	} `json:"Product"`
}

type cartDTO struct {
	CartItems []cartItemDTO `json:"CartItems"`
}

func (d cartItemDTO) line() domain.CartLine {
	line := domain.CartLine{
		LineID:    d.ID,
		ProductID: d.ProductID,
		VariantID: d.VariantID,
		Quantity:  d.Quantity,
		Name:      d.Name,
		Image:     d.Image,
		UnitPrice: d.Price,
	}
	if d.Product != nil {
		if line.Name == "" {
			line.Name = d.Product.Name
		}
		if line.Image == "" {
			line.Image = d.Product.Image
		}
	}
	// The shop API sends 0 for "no discount".
	if d.DiscountPrice != nil && d.DiscountPrice.IsPositive() {
		line.DiscountedUnitPrice = d.DiscountPrice
	}
	return line
}

// Fetch returns the server-held cart with server-computed prices.
func (g *CartGateway) Fetch(ctx context.Context) ([]domain.CartLine, error) {
	var out cartDTO
	if err := g.client.do(ctx, g.creds, http.MethodGet, "/cart", nil, &out); err != nil {
		return nil, err
	}
	lines := make([]domain.CartLine, 0, len(out.CartItems))
	for _, item := range out.CartItems {
		lines = append(lines, item.line())
	}
	return lines, nil
}

func (g *CartGateway) Add(ctx context.Context, item AddItem) error {
	return g.client.do(ctx, g.creds, http.MethodPost, "/cart/add", item, nil)
}

func (g *CartGateway) Update(ctx context.Context, lineID domain.ID, quantity int) error {
	body := struct {
		Quantity int `json:"quantity"`
	}{quantity}
	return g.client.do(ctx, g.creds, http.MethodPut, "/cart/items/"+url.PathEscape(lineID.String()), body, nil)
}

func (g *CartGateway) Remove(ctx context.Context, lineID domain.ID) error {
	return g.client.do(ctx, g.creds, http.MethodDelete, "/cart/items/"+url.PathEscape(lineID.String()), nil, nil)
}

func (g *CartGateway) Clear(ctx context.Context) error {
	return g.client.do(ctx, g.creds, http.MethodDelete, "/cart/clear", nil, nil)
}
