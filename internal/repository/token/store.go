package token

import (
	"context"
	"encoding/json"
	"fmt"

	"storefront/internal/storage"
)

const keyPrefix = "auth:"

type storeRepo struct {
	store storage.Store
}

// NewStore keeps tokens in the same key-value store as the local carts.
func NewStore(store storage.Store) Repository {
	return &storeRepo{store: store}
}

func (r *storeRepo) Save(ctx context.Context, sessionID string, token Token) error {
	raw, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}
	return r.store.Put(ctx, keyPrefix+sessionID, raw)
}

// Get returns domain.ErrNotFound when the session has no stored token.
func (r *storeRepo) Get(ctx context.Context, sessionID string) (*Token, error) {
	raw, err := r.store.Get(ctx, keyPrefix+sessionID)
	if err != nil {
		return nil, err
	}
	var out Token
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	return &out, nil
}

func (r *storeRepo) Delete(ctx context.Context, sessionID string) error {
	return r.store.Delete(ctx, keyPrefix+sessionID)
}
