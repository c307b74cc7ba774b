package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"storefront/internal/domain"

	"github.com/shopspring/decimal"
)

// SearchQuery holds the predicates the shop API understands.
type SearchQuery struct {
	Q        string
	Brand    string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
}

func (q SearchQuery) values() url.Values {
	v := url.Values{}
	if q.Q != "" {
		v.Set("q", q.Q)
	}
	if q.Brand != "" {
		v.Set("brand", q.Brand)
	}
	if q.MinPrice != nil {
		v.Set("minPrice", q.MinPrice.String())
	}
	if q.MaxPrice != nil {
		v.Set("maxPrice", q.MaxPrice.String())
	}
	return v
}

func (c *Client) SearchProducts(ctx context.Context, q SearchQuery) ([]domain.Product, error) {
	path := "/products/search"
	if qs := q.values().Encode(); qs != "" {
		path += "?" + qs
	}
	var raw json.RawMessage
	if err := c.do(ctx, nil, http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}
	return decodeProducts(raw)
}

func (c *Client) Product(ctx context.Context, id domain.ID) (*domain.Product, error) {
	var p domain.Product
	err := c.do(ctx, nil, http.MethodGet, "/products/"+url.PathEscape(id.String()), nil, &p)
	if err != nil {
		if StatusOf(err) == http.StatusNotFound {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// decodeProducts accepts a bare array or an object wrapping it under
// "products" or "data".
func decodeProducts(raw json.RawMessage) ([]domain.Product, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []domain.Product{}, nil
	}
	if raw[0] == '[' {
		var out []domain.Product
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("decode products: %w", err)
		}
		return out, nil
	}
	var wrapped struct {
		Products []domain.Product `json:"products"`
		Data     []domain.Product `json:"data"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	if wrapped.Products != nil {
		return wrapped.Products, nil
	}
	if wrapped.Data != nil {
		return wrapped.Data, nil
	}
	return []domain.Product{}, nil
}
