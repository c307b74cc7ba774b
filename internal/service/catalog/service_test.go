package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"

	"storefront/internal/domain"
	"storefront/internal/gateway"
	"storefront/internal/service/cart"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAPI struct {
	products []domain.Product
	lastQ    gateway.SearchQuery
	lookups  int
	err      error
}

func (s *stubAPI) SearchProducts(_ context.Context, q gateway.SearchQuery) ([]domain.Product, error) {
	s.lastQ = q
	return s.products, s.err
}

func (s *stubAPI) Product(_ context.Context, id domain.ID) (*domain.Product, error) {
	s.lookups++
	for _, p := range s.products {
		if p.ID == id {
			clone := p
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

func TestService_SearchForwardsAndPages(t *testing.T) {
	api := &stubAPI{products: catalogFixture()}
	svc := New(api, nil)

	page, err := svc.Search(context.Background(), Filter{Brand: "Apple", MinPrice: dec(100), Sort: SortPriceDesc, Page: 1, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, "Apple", api.lastQ.Brand)
	require.NotNil(t, api.lastQ.MinPrice)
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, 2, page.Pages)
	require.Len(t, page.Results, 1)
	assert.Equal(t, domain.ID("1"), page.Results[0].ID)

	api.err = errors.New("upstream down")
	_, err = svc.Search(context.Background(), Filter{})
	assert.Error(t, err)
}

func TestService_EnrichGuestLine(t *testing.T) {
	phone := domain.Product{
		ID: "10", Name: "Phone", Image: "phone.png", Price: decimal.NewFromInt(500), DiscountPrice: dec(0),
		Variants: []domain.Variant{
			{ID: "256", Image: "phone-256.png", Price: dec(600), DiscountPrice: dec(550)},
			{ID: "128"},
		},
	}
	svc := New(&stubAPI{products: []domain.Product{phone}}, nil)
	ctx := context.Background()

	in, err := svc.Enrich(ctx, cart.AddLineInput{ProductID: "10", Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, "Phone", in.Name)
	assert.Equal(t, "phone.png", in.Image)
	assert.True(t, in.UnitPrice.Equal(decimal.NewFromInt(500)))
	assert.Nil(t, in.DiscountedUnitPrice, "zero discount means no discount")

	in, err = svc.Enrich(ctx, cart.AddLineInput{ProductID: "10", VariantID: "256", Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, "phone-256.png", in.Image)
	assert.True(t, in.UnitPrice.Equal(decimal.NewFromInt(600)))
	assert.True(t, in.DiscountedUnitPrice.Equal(decimal.NewFromInt(550)))

	in, err = svc.Enrich(ctx, cart.AddLineInput{ProductID: "10", VariantID: "128", Quantity: 1})
	require.NoError(t, err)
	assert.True(t, in.UnitPrice.Equal(decimal.NewFromInt(500)), "variant without its own price uses the product price")

	_, err = svc.Enrich(ctx, cart.AddLineInput{ProductID: "10", VariantID: "1tb", Quantity: 1})
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = svc.Enrich(ctx, cart.AddLineInput{ProductID: "99", Quantity: 1})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestService_EnrichKeepsCompleteInput(t *testing.T) {
	api := &stubAPI{}
	svc := New(api, nil)
	in := cart.AddLineInput{ProductID: "1", Quantity: 1, Name: "Given", UnitPrice: dec(5)}
	out, err := svc.Enrich(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
	assert.Zero(t, api.lookups)
}

type blockingAPI struct {
	stubAPI
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (b *blockingAPI) Product(ctx context.Context, id domain.ID) (*domain.Product, error) {
	b.once.Do(func() { close(b.entered) })
	<-b.release
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &domain.Product{ID: id, Name: "Phone"}, nil
}

func TestService_ProductSurvivesFirstCallerCancel(t *testing.T) {
	api := &blockingAPI{entered: make(chan struct{}), release: make(chan struct{})}
	svc := New(api, nil)

	first, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.Product(first, "10")
		firstErr <- err
	}()
	<-api.entered

	second := make(chan *domain.Product, 1)
	go func() {
		p, err := svc.Product(context.Background(), "10")
		assert.NoError(t, err)
		second <- p
	}()

	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)
	close(api.release)

	p := <-second
	require.NotNil(t, p)
	assert.Equal(t, "Phone", p.Name)
}
