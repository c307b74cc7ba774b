// Package localcart persists a guest cart as one JSON document per browser
// session in a storage.Store slot.
package localcart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"storefront/internal/domain"
	"storefront/internal/storage"
)

// ErrCorrupt is returned by Load when the stored document cannot be decoded.
var ErrCorrupt = errors.New("local cart snapshot is corrupt")

type Repository struct {
	store     storage.Store
	namespace string
}

func New(store storage.Store, namespace string) *Repository {
	return &Repository{store: store, namespace: namespace}
}

// Slot binds the repository to one session's key.
func (r *Repository) Slot(sessionID string) *Slot {
	return &Slot{store: r.store, key: r.namespace + ":" + sessionID}
}

type Slot struct {
	store storage.Store
	key   string
}

func (s *Slot) Key() string {
	return s.key
}

// Load returns the stored lines, or an empty slice when nothing is stored.
// Lines without a product or with a quantity below one are dropped and
// repeated keys are folded into the first occurrence.
func (s *Slot) Load(ctx context.Context) ([]domain.CartLine, error) {
	raw, err := s.store.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return []domain.CartLine{}, nil
		}
		return nil, err
	}
	var lines []domain.CartLine
	if err := json.Unmarshal(raw, &lines); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return normalize(lines), nil
}

func (s *Slot) Save(ctx context.Context, lines []domain.CartLine) error {
	if lines == nil {
		lines = []domain.CartLine{}
	}
	raw, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("encode local cart: %w", err)
	}
	return s.store.Put(ctx, s.key, raw)
}

func (s *Slot) Clear(ctx context.Context) error {
	return s.store.Delete(ctx, s.key)
}

func normalize(lines []domain.CartLine) []domain.CartLine {
	cart := domain.Cart{Lines: make([]domain.CartLine, 0, len(lines))}
	for _, line := range lines {
		if line.ProductID.IsZero() || line.Quantity < 1 {
			continue
		}
		line.LineID = ""
		if idx := cart.Index(line.Key()); idx >= 0 {
			cart.Lines[idx].Quantity += line.Quantity
			continue
		}
		cart.Lines = append(cart.Lines, line)
	}
	return cart.Lines
}
