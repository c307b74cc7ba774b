package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"storefront/internal/domain"

	"github.com/shopspring/decimal"
)

// Order statuses reported by the shop API.
const (
	OrderPending    = "pending"
	OrderProcessing = "processing"
	OrderShipped    = "shipped"
	OrderDelivered  = "delivered"
	OrderCancelled  = "cancelled"
)

type OrderItem struct {
	ProductID domain.ID       `json:"productId"`
	VariantID domain.ID       `json:"variantId,omitempty"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type OrderRequest struct {
	ShippingAddress string          `json:"shippingAddress"`
	PaymentMethod   string          `json:"paymentMethod"`
	Note            string          `json:"note"`
	Items           []OrderItem     `json:"items"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
}

type Order struct {
	ID              domain.ID        `json:"id"`
	Status          string           `json:"status,omitempty"`
	PaymentMethod   string           `json:"paymentMethod,omitempty"`
	PaymentStatus   string           `json:"paymentStatus,omitempty"`
	ShippingAddress string           `json:"shippingAddress,omitempty"`
	Note            string           `json:"note,omitempty"`
	TotalAmount     *decimal.Decimal `json:"totalAmount,omitempty"`
	CreatedAt       *time.Time       `json:"createdAt,omitempty"`
	Items           []OrderLine      `json:"items,omitempty"`
}

// OrderLine is one purchased product as shown in the order history.
type OrderLine struct {
	ProductID domain.ID        `json:"productId"`
	VariantID domain.ID        `json:"variantId,omitempty"`
	Name      string           `json:"name,omitempty"`
	Image     string           `json:"image,omitempty"`
	Color     string           `json:"color,omitempty"`
	Storage   string           `json:"storage,omitempty"`
	Quantity  int              `json:"quantity"`
	Price     *decimal.Decimal `json:"price,omitempty"`
}

type orderItemDTO struct {
	ProductID domain.ID        `json:"productId"`
	VariantID domain.ID        `json:"variantId"`
	Quantity  int              `json:"quantity"`
	Price     *decimal.Decimal `json:"price"`
	Product   *struct {
		Name  string `json:"name"`
		Image string `json:"image"`
	} `json:"product"`
	ProductVariant *struct {
		ID      domain.ID `json:"id"`
		Color   string    `json:"color"`
		Storage string    `json:"storage"`
	} `json:"productVariant"`
}

type orderDTO struct {
	ID              domain.ID        `json:"id"`
	Status          string           `json:"status"`
	PaymentMethod   string           `json:"paymentMethod"`
	PaymentStatus   string           `json:"paymentStatus"`
	ShippingAddress string           `json:"shippingAddress"`
	Note            string           `json:"note"`
	TotalAmount     *decimal.Decimal `json:"totalAmount"`
	CreatedAt       *time.Time       `json:"createdAt"`
	OrderItems      []orderItemDTO   `json:"OrderItems"`
}

func (d orderDTO) order() *Order {
	o := &Order{
		ID:              d.ID,
		Status:          d.Status,
		PaymentMethod:   d.PaymentMethod,
		PaymentStatus:   d.PaymentStatus,
		ShippingAddress: d.ShippingAddress,
		Note:            d.Note,
		TotalAmount:     d.TotalAmount,
		CreatedAt:       d.CreatedAt,
	}
	for _, it := range d.OrderItems {
		line := OrderLine{ProductID: it.ProductID, VariantID: it.VariantID, Quantity: it.Quantity, Price: it.Price}
		if it.Product != nil {
			line.Name = it.Product.Name
			line.Image = it.Product.Image
		}
		if v := it.ProductVariant; v != nil {
			line.Color = v.Color
			line.Storage = v.Storage
			if line.VariantID.IsZero() {
				line.VariantID = v.ID
			}
		}
		o.Items = append(o.Items, line)
	}
	return o
}

// singleOrder accepts the order at the top level or nested under "order".
type singleOrder struct {
	orderDTO
	Nested *orderDTO `json:"order"`
}

func (s singleOrder) order() *Order {
	if s.Nested != nil {
		return s.Nested.order()
	}
	return s.orderDTO.order()
}

// CreateOrder places an order on behalf of the authenticated session.
func (c *Client) CreateOrder(ctx context.Context, creds Credentials, req OrderRequest) (*Order, error) {
	var out singleOrder
	if err := c.do(ctx, creds, http.MethodPost, "/orders", req, &out); err != nil {
		return nil, err
	}
	return out.order(), nil
}

// ListOrders returns the order history of the authenticated user.
func (c *Client) ListOrders(ctx context.Context, creds Credentials) ([]Order, error) {
	var raw json.RawMessage
	if err := c.do(ctx, creds, http.MethodGet, "/orders", nil, &raw); err != nil {
		return nil, err
	}
	dtos, err := decodeOrders(raw)
	if err != nil {
		return nil, err
	}
	orders := make([]Order, 0, len(dtos))
	for _, d := range dtos {
		orders = append(orders, *d.order())
	}
	return orders, nil
}

func (c *Client) GetOrder(ctx context.Context, creds Credentials, id domain.ID) (*Order, error) {
	var out singleOrder
	if err := c.do(ctx, creds, http.MethodGet, "/orders/"+url.PathEscape(id.String()), nil, &out); err != nil {
		if StatusOf(err) == http.StatusNotFound {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return out.order(), nil
}

func (c *Client) CancelOrder(ctx context.Context, creds Credentials, id domain.ID) error {
	err := c.do(ctx, creds, http.MethodPut, "/orders/"+url.PathEscape(id.String())+"/cancel", nil, nil)
	if StatusOf(err) == http.StatusNotFound {
		return domain.ErrNotFound
	}
	return err
}

func decodeOrders(raw json.RawMessage) ([]orderDTO, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] == '[' {
		var out []orderDTO
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("decode orders: %w", err)
		}
		return out, nil
	}
	var wrapped struct {
		Orders []orderDTO `json:"orders"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}
	return wrapped.Orders, nil
}
