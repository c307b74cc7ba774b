// Package orders places orders from a session's cart and serves the order
// history of the logged-in user.
package orders

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/domain"
	"storefront/internal/gateway"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var (
	ErrEmptyCart = errors.New("cart is empty")
	// ErrNotCancellable is returned for orders that left the pending state.
	ErrNotCancellable = errors.New("order cannot be cancelled")
)

type orderAPI interface {
	CreateOrder(ctx context.Context, creds gateway.Credentials, req gateway.OrderRequest) (*gateway.Order, error)
	ListOrders(ctx context.Context, creds gateway.Credentials) ([]gateway.Order, error)
	GetOrder(ctx context.Context, creds gateway.Credentials, id domain.ID) (*gateway.Order, error)
	CancelOrder(ctx context.Context, creds gateway.Credentials, id domain.ID) error
}

type PlaceInput struct {
	ShippingAddress string `json:"shippingAddress" validate:"required"`
	PaymentMethod   string `json:"paymentMethod" validate:"required,oneof=cod vnpay qr_sepay"`
	Note            string `json:"note"`
}

type Service struct {
	api      orderAPI
	logger   *zap.Logger
	validate *validator.Validate
}

func New(api orderAPI, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		api:      api,
		logger:   logger.Named("orders"),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Place submits lines as one order priced at their effective prices.
func (s *Service) Place(ctx context.Context, creds gateway.Credentials, in PlaceInput, lines []domain.CartLine) (*gateway.Order, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}
	cart := domain.Cart{Lines: lines}
	if cart.Count() == 0 {
		return nil, ErrEmptyCart
	}
	items := make([]gateway.OrderItem, 0, len(lines))
	for _, l := range lines {
		if l.Quantity < 1 {
			continue
		}
		items = append(items, gateway.OrderItem{
			ProductID: l.ProductID,
			VariantID: l.VariantID,
			Quantity:  l.Quantity,
			Price:     l.EffectivePrice(),
		})
	}
	order, err := s.api.CreateOrder(ctx, creds, gateway.OrderRequest{
		ShippingAddress: in.ShippingAddress,
		PaymentMethod:   in.PaymentMethod,
		Note:            in.Note,
		Items:           items,
		TotalAmount:     cart.Total(),
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	s.logger.Info("order placed", zap.String("order_id", order.ID.String()), zap.Int("items", len(items)))
	return order, nil
}

func (s *Service) List(ctx context.Context, creds gateway.Credentials) ([]gateway.Order, error) {
	return s.api.ListOrders(ctx, creds)
}

func (s *Service) Get(ctx context.Context, creds gateway.Credentials, id domain.ID) (*gateway.Order, error) {
	return s.api.GetOrder(ctx, creds, id)
}

// Cancel cancels a pending order and returns it as the shop API now reports
// it.
func (s *Service) Cancel(ctx context.Context, creds gateway.Credentials, id domain.ID) (*gateway.Order, error) {
	order, err := s.api.GetOrder(ctx, creds, id)
	if err != nil {
		return nil, err
	}
	if order.Status != gateway.OrderPending {
		return nil, fmt.Errorf("%w: status %s", ErrNotCancellable, order.Status)
	}
	if err := s.api.CancelOrder(ctx, creds, id); err != nil {
		s.logger.Warn("cancel order", zap.String("order_id", id.String()), zap.Error(err))
		return nil, err
	}
	return s.api.GetOrder(ctx, creds, id)
}
