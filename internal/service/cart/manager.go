// Package cart owns the cart of one browser session. A guest cart lives in
// the local key-value store; once an identity is authenticated the cart is
// owned by the shop API and every mutation is followed by a refetch.
package cart

import (
	"context"
	"errors"
	"sync"

	"storefront/internal/domain"
	"storefront/internal/gateway"
	"storefront/internal/repository/localcart"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

//go:generate mockgen -source=manager.go -destination=../../mock/cart/manager_mock.go -package=mock

// Gateway is the remote cart of the session's identity.
type Gateway interface {
	Fetch(ctx context.Context) ([]domain.CartLine, error)
	Add(ctx context.Context, item gateway.AddItem) error
	Update(ctx context.Context, lineID domain.ID, quantity int) error
	Remove(ctx context.Context, lineID domain.ID) error
	Clear(ctx context.Context) error
}

// LocalStore is the durable slot holding the guest cart.
type LocalStore interface {
	Load(ctx context.Context) ([]domain.CartLine, error)
	Save(ctx context.Context, lines []domain.CartLine) error
	Clear(ctx context.Context) error
}

type AddLineInput struct {
	ProductID           domain.ID        `json:"productId" validate:"required"`
	VariantID           domain.ID        `json:"variantId"`
	Quantity            int              `json:"quantity" validate:"gte=1"`
	Name                string           `json:"name"`
	Image               string           `json:"image"`
	UnitPrice           *decimal.Decimal `json:"unitPrice"`
	DiscountedUnitPrice *decimal.Decimal `json:"discountedUnitPrice"`
}

func (in AddLineInput) line() domain.CartLine {
	return domain.CartLine{
		ProductID:           in.ProductID,
		VariantID:           in.VariantID,
		Quantity:            in.Quantity,
		Name:                in.Name,
		Image:               in.Image,
		UnitPrice:           in.UnitPrice,
		DiscountedUnitPrice: in.DiscountedUnitPrice,
	}
}

// View is a consistent read of the manager at one instant.
type View struct {
	State State             `json:"state"`
	Lines []domain.CartLine `json:"lines"`
	Total decimal.Decimal   `json:"total"`
	Count int               `json:"count"`
}

type Manager struct {
	remote   Gateway
	local    LocalStore
	logger   *zap.Logger
	validate *validator.Validate

	mu        sync.Mutex
	state     State
	epoch     uint64
	mode      mode
	lines     []domain.CartLine
	loaded    bool
	lastMerge *MergeReport
}

func New(remote Gateway, local LocalStore, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{
		remote:   remote,
		local:    local,
		logger:   logger.Named("cart"),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	m.mode = newGuestMode(m, 0)
	return m
}

// Start selects the mode for the identity present at startup and loads the
// cart. A failed load leaves the mode selected with an empty snapshot.
func (m *Manager) Start(ctx context.Context, authenticated bool) error {
	m.mu.Lock()
	m.epoch++
	if authenticated {
		m.state = StateAuthenticated
		m.mode = &remoteMode{m: m, epoch: m.epoch}
	} else {
		m.state = StateGuest
		m.mode = newGuestMode(m, m.epoch)
	}
	m.lines = nil
	m.loaded = false
	m.mu.Unlock()

	return m.Refresh(ctx)
}

// LoggedIn runs the login merge. The report is kept for LastMerge.
func (m *Manager) LoggedIn(ctx context.Context) {
	if _, err := m.MergeOnLogin(ctx); err != nil {
		m.logger.Warn("merge on login", zap.Error(err))
	}
}

// LoggedOut switches to guest mode with an empty local cart.
func (m *Manager) LoggedOut(ctx context.Context) {
	m.mu.Lock()
	m.epoch++
	m.state = StateGuest
	m.mode = newGuestMode(m, m.epoch)
	m.lines = []domain.CartLine{}
	m.loaded = true
	m.lastMerge = nil
	m.mu.Unlock()

	if err := m.local.Clear(ctx); err != nil {
		m.logger.Error("reset local cart on logout", zap.Error(err))
	}
}

func (m *Manager) AddLine(ctx context.Context, in AddLineInput) error {
	if err := m.validate.Struct(in); err != nil {
		return opError("add", err)
	}
	md, err := m.active()
	if err != nil {
		return opError("add", err)
	}
	return md.add(ctx, in)
}

// RemoveLine removes the line with key. A missing line is not an error.
func (m *Manager) RemoveLine(ctx context.Context, key domain.LineKey) error {
	md, err := m.active()
	if err != nil {
		return opError("remove", err)
	}
	return md.remove(ctx, key)
}

// UpdateQuantity sets the quantity of the line with key in place. Quantities
// below one are ignored; use RemoveLine to delete a line.
func (m *Manager) UpdateQuantity(ctx context.Context, key domain.LineKey, quantity int) error {
	if quantity < 1 {
		return nil
	}
	md, err := m.active()
	if err != nil {
		return opError("update", err)
	}
	return md.update(ctx, key, quantity)
}

func (m *Manager) Clear(ctx context.Context) error {
	md, err := m.active()
	if err != nil {
		return opError("clear", err)
	}
	return md.clear(ctx, "clear")
}

// CompleteCheckout empties the cart after an order has been placed.
func (m *Manager) CompleteCheckout(ctx context.Context) error {
	md, err := m.active()
	if err != nil {
		return opError("checkout", err)
	}
	return md.clear(ctx, "checkout")
}

// Refresh reloads the snapshot from the active source. On failure the
// previous snapshot is kept.
func (m *Manager) Refresh(ctx context.Context) error {
	md, err := m.active()
	if err != nil {
		return fetchError("refresh", err)
	}
	return md.load(ctx)
}

func (m *Manager) Total() decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return domain.Cart{Lines: m.lines}.Total()
}

func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return domain.Cart{Lines: m.lines}.Count()
}

// Lines returns a copy of the snapshot in cart order.
func (m *Manager) Lines() []domain.CartLine {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneLines(m.lines)
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) Loaded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loaded
}

func (m *Manager) View() View {
	m.mu.Lock()
	defer m.mu.Unlock()
	cart := domain.Cart{Lines: cloneLines(m.lines)}
	return View{State: m.state, Lines: cart.Lines, Total: cart.Total(), Count: cart.Count()}
}

// LastMerge returns the report of the most recent login merge, if any.
func (m *Manager) LastMerge() (MergeReport, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lastMerge == nil {
		return MergeReport{}, false
	}
	return *m.lastMerge, true
}

func (m *Manager) active() (mode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateMerging || m.mode == nil {
		return nil, ErrCartBusy
	}
	return m.mode, nil
}

// commit installs lines unless the identity changed since epoch.
func (m *Manager) commit(epoch uint64, lines []domain.CartLine) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.epoch != epoch {
		return false
	}
	if lines == nil {
		lines = []domain.CartLine{}
	}
	m.lines = lines
	m.loaded = true
	return true
}

func (m *Manager) snapshot() []domain.CartLine {
	return m.Lines()
}

func cloneLines(lines []domain.CartLine) []domain.CartLine {
	if lines == nil {
		return []domain.CartLine{}
	}
	return domain.Cart{Lines: lines}.Clone().Lines
}

func isCorrupt(err error) bool {
	return errors.Is(err, localcart.ErrCorrupt)
}
