// Package session keeps one cart manager and identity per browser session.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"storefront/internal/gateway"
	"storefront/internal/repository/localcart"
	tokenrepo "storefront/internal/repository/token"
	"storefront/internal/service/cart"
	"storefront/internal/service/identity"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type Session struct {
	ID       string
	Identity *identity.Identity
	Cart     *cart.Manager
}

// Deps are the shared collaborators every session is built from.
type Deps struct {
	API    *gateway.Client
	Carts  *localcart.Repository
	Tokens tokenrepo.Repository
	Logger *zap.Logger
}

// Build wires a session: the identity is restored from the store and the
// cart starts in the matching mode. A cart that cannot be loaded yet is
// logged and left empty.
func (d Deps) Build(ctx context.Context, id string) (*Session, error) {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("session_id", id))

	ident := identity.New(id, d.API, d.Tokens, logger)
	authenticated, err := ident.Restore(ctx)
	if err != nil {
		return nil, err
	}
	manager := cart.New(d.API.Cart(ident), d.Carts.Slot(id), logger)
	ident.Subscribe(manager)
	if err := manager.Start(ctx, authenticated); err != nil {
		logger.Warn("initial cart load", zap.Error(err))
	}
	return &Session{ID: id, Identity: ident, Cart: manager}, nil
}

type BuildFunc func(ctx context.Context, id string) (*Session, error)

type entry struct {
	session  *Session
	lastSeen time.Time
}

type Registry struct {
	build   BuildFunc
	idleTTL time.Duration
	logger  *zap.Logger
	now     func() time.Time

	group singleflight.Group

	mu       sync.Mutex
	sessions map[string]*entry
}

func NewRegistry(build BuildFunc, idleTTL time.Duration, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		build:    build,
		idleTTL:  idleTTL,
		logger:   logger.Named("session"),
		now:      time.Now,
		sessions: make(map[string]*entry),
	}
}

// NewID returns a fresh session id.
func (r *Registry) NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id looks like an id issued by NewID.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Get returns the live session for id, building it on first use.
func (r *Registry) Get(ctx context.Context, id string) (*Session, error) {
	if s := r.touch(id); s != nil {
		return s, nil
	}
	ch := r.group.DoChan(id, func() (any, error) {
		if s := r.touch(id); s != nil {
			return s, nil
		}
		s, err := r.build(context.WithoutCancel(ctx), id)
		if err != nil {
			return nil, fmt.Errorf("build session: %w", err)
		}
		r.mu.Lock()
		r.sessions[id] = &entry{session: s, lastSeen: r.now()}
		r.mu.Unlock()
		return s, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Session), nil
	}
}

func (r *Registry) touch(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok {
		return nil
	}
	e.lastSeen = r.now()
	return e.session
}

// Sweep drops sessions idle for longer than the idle TTL. Their carts and
// tokens stay in the store and are restored on the next request.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.idleTTL)
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, e := range r.sessions {
		if e.lastSeen.Before(cutoff) {
			delete(r.sessions, id)
			n++
		}
	}
	return n
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.logger.Debug("evicted idle sessions", zap.Int("count", n), zap.Int("live", r.Len()))
			}
		}
	}
}
