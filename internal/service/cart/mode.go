package cart

import (
	"context"
	"sync"

	"storefront/internal/domain"
	"storefront/internal/gateway"

	"go.uber.org/zap"
)

// mode is the cart source of one identity: the local store for a guest, the
// remote gateway once authenticated. Each mode instance belongs to one epoch
// and its results are dropped once the identity moves on.
type mode interface {
	add(ctx context.Context, in AddLineInput) error
	remove(ctx context.Context, key domain.LineKey) error
	update(ctx context.Context, key domain.LineKey, quantity int) error
	clear(ctx context.Context, op string) error
	load(ctx context.Context) error
}

type guestMode struct {
	m     *Manager
	epoch uint64

	// mu serializes read-modify-write cycles against the local store.
	mu sync.Mutex
}

func newGuestMode(m *Manager, epoch uint64) *guestMode {
	return &guestMode{m: m, epoch: epoch}
}

func (g *guestMode) add(ctx context.Context, in AddLineInput) error {
	return g.mutate(ctx, "add", func(c *domain.Cart) bool {
		if i := c.Index(domain.LineKey{ProductID: in.ProductID, VariantID: in.VariantID}); i >= 0 {
			c.Lines[i].Quantity += in.Quantity
			return true
		}
		c.Lines = append(c.Lines, in.line())
		return true
	})
}

func (g *guestMode) remove(ctx context.Context, key domain.LineKey) error {
	return g.mutate(ctx, "remove", func(c *domain.Cart) bool {
		i := c.Index(key)
		if i < 0 {
			return false
		}
		c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
		return true
	})
}

func (g *guestMode) update(ctx context.Context, key domain.LineKey, quantity int) error {
	return g.mutate(ctx, "update", func(c *domain.Cart) bool {
		i := c.Index(key)
		if i < 0 || c.Lines[i].Quantity == quantity {
			return false
		}
		c.Lines[i].Quantity = quantity
		return true
	})
}

func (g *guestMode) clear(ctx context.Context, op string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.m.local.Clear(ctx); err != nil {
		g.m.logger.Error("clear local cart", zap.String("op", op), zap.Error(err))
		return opError(op, err)
	}
	if !g.m.commit(g.epoch, nil) {
		return opError(op, ErrIdentityChanged)
	}
	return nil
}

func (g *guestMode) load(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	lines, err := g.m.local.Load(ctx)
	if err != nil {
		if !isCorrupt(err) {
			g.m.logger.Error("load local cart", zap.Error(err))
			return fetchError("load", err)
		}
		g.m.logger.Warn("discarding unreadable local cart", zap.Error(err))
		if err := g.m.local.Clear(ctx); err != nil {
			g.m.logger.Error("clear unreadable local cart", zap.Error(err))
		}
		lines = nil
	}
	if !g.m.commit(g.epoch, lines) {
		return fetchError("load", ErrIdentityChanged)
	}
	return nil
}

// mutate applies fn to the stored cart, persists the result and only then
// installs it as the snapshot. The base is always the slot, never the
// snapshot. A failed read or write leaves both untouched.
func (g *guestMode) mutate(ctx context.Context, op string, fn func(c *domain.Cart) bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	lines, err := g.m.local.Load(ctx)
	if err != nil {
		if !isCorrupt(err) {
			g.m.logger.Error("load local cart", zap.String("op", op), zap.Error(err))
			return opError(op, err)
		}
		g.m.logger.Warn("discarding unreadable local cart", zap.String("op", op), zap.Error(err))
		lines = nil
	}
	cart := domain.Cart{Lines: lines}
	if !fn(&cart) {
		if !g.m.commit(g.epoch, cart.Lines) {
			return opError(op, ErrIdentityChanged)
		}
		return nil
	}
	if err := g.m.local.Save(ctx, cart.Lines); err != nil {
		g.m.logger.Error("save local cart", zap.String("op", op), zap.Error(err))
		return opError(op, err)
	}
	if !g.m.commit(g.epoch, cart.Lines) {
		return opError(op, ErrIdentityChanged)
	}
	return nil
}

type remoteMode struct {
	m     *Manager
	epoch uint64
}

func (r *remoteMode) add(ctx context.Context, in AddLineInput) error {
	err := r.m.remote.Add(ctx, gateway.AddItem{ProductID: in.ProductID, VariantID: in.VariantID, Quantity: in.Quantity})
	if err != nil {
		r.m.logger.Warn("add remote line",
			zap.String("product_id", in.ProductID.String()),
			zap.Error(err),
		)
		return opError("add", err)
	}
	return r.refetch(ctx, "add")
}

func (r *remoteMode) remove(ctx context.Context, key domain.LineKey) error {
	line, ok := r.find(key)
	if !ok {
		return nil
	}
	if err := r.m.remote.Remove(ctx, line.LineID); err != nil {
		r.m.logger.Warn("remove remote line", zap.String("line_key", key.String()), zap.Error(err))
		return opError("remove", err)
	}
	return r.refetch(ctx, "remove")
}

func (r *remoteMode) update(ctx context.Context, key domain.LineKey, quantity int) error {
	line, ok := r.find(key)
	if !ok {
		return nil
	}
	if err := r.m.remote.Update(ctx, line.LineID, quantity); err != nil {
		r.m.logger.Warn("update remote line", zap.String("line_key", key.String()), zap.Error(err))
		return opError("update", err)
	}
	return r.refetch(ctx, "update")
}

func (r *remoteMode) clear(ctx context.Context, op string) error {
	if err := r.m.remote.Clear(ctx); err != nil {
		r.m.logger.Warn("clear remote cart", zap.String("op", op), zap.Error(err))
		return opError(op, err)
	}
	return r.refetch(ctx, op)
}

func (r *remoteMode) load(ctx context.Context) error {
	return r.refetch(ctx, "refresh")
}

func (r *remoteMode) refetch(ctx context.Context, op string) error {
	lines, err := r.m.remote.Fetch(ctx)
	if err != nil {
		r.m.logger.Warn("fetch remote cart", zap.String("op", op), zap.Error(err))
		return fetchError(op, err)
	}
	if !r.m.commit(r.epoch, lines) {
		return fetchError(op, ErrIdentityChanged)
	}
	return nil
}

// find looks the line up in the last fetched snapshot; the remote API
// addresses lines by its own line id.
func (r *remoteMode) find(key domain.LineKey) (domain.CartLine, bool) {
	lines := r.m.snapshot()
	i := domain.Cart{Lines: lines}.Index(key)
	if i < 0 || lines[i].LineID.IsZero() {
		return domain.CartLine{}, false
	}
	return lines[i], true
}
