// Package catalog serves product search and detail from the shop API.
package catalog

import (
	"context"
	"fmt"

	"storefront/internal/domain"
	"storefront/internal/gateway"
	"storefront/internal/service/cart"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type productAPI interface {
	SearchProducts(ctx context.Context, q gateway.SearchQuery) ([]domain.Product, error)
	Product(ctx context.Context, id domain.ID) (*domain.Product, error)
}

type Service struct {
	api    productAPI
	logger *zap.Logger
	group  singleflight.Group
}

func New(api productAPI, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{api: api, logger: logger.Named("catalog")}
}

// Search forwards the predicates the shop API understands, then applies the
// whole filter locally so sorting and paging do not depend on the upstream.
func (s *Service) Search(ctx context.Context, f Filter) (Page, error) {
	products, err := s.api.SearchProducts(ctx, gateway.SearchQuery{
		Q:        f.Q,
		Brand:    f.Brand,
		MinPrice: f.MinPrice,
		MaxPrice: f.MaxPrice,
	})
	if err != nil {
		s.logger.Warn("search products", zap.Error(err))
		return Page{}, fmt.Errorf("search products: %w", err)
	}
	return Apply(products, f), nil
}

// Product returns one product. Concurrent lookups of the same id share one
// upstream request.
func (s *Service) Product(ctx context.Context, id domain.ID) (*domain.Product, error) {
	// The shared lookup outlives any one caller; each caller still stops
	// waiting when its own context ends.
	ch := s.group.DoChan(id.String(), func() (any, error) {
		return s.api.Product(context.WithoutCancel(ctx), id)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		p := *res.Val.(*domain.Product)
		return &p, nil
	}
}

// Enrich fills the display fields of a guest line from the catalog. Inputs
// that already carry a name and a price are returned unchanged.
func (s *Service) Enrich(ctx context.Context, in cart.AddLineInput) (cart.AddLineInput, error) {
	if in.Name != "" && in.UnitPrice != nil {
		return in, nil
	}
	p, err := s.Product(ctx, in.ProductID)
	if err != nil {
		return in, err
	}

	in.Name = p.Name
	if in.Image == "" {
		in.Image = p.Image
	}
	price := p.Price
	in.UnitPrice = &price
	in.DiscountedUnitPrice = p.DiscountPrice

	if !in.VariantID.IsZero() {
		v, ok := p.Variant(in.VariantID)
		if !ok {
			return in, fmt.Errorf("variant %s of product %s: %w", in.VariantID, in.ProductID, domain.ErrNotFound)
		}
		if v.Price != nil {
			in.UnitPrice = v.Price
			in.DiscountedUnitPrice = v.DiscountPrice
		}
		if v.Image != "" {
			in.Image = v.Image
		}
	}
	if in.DiscountedUnitPrice != nil && !in.DiscountedUnitPrice.IsPositive() {
		in.DiscountedUnitPrice = nil
	}
	return in, nil
}
