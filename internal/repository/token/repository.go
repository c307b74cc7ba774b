package token

import (
	"context"
	"time"

	"storefront/internal/domain"
)

// Token is the access token issued by the shop API together with the user it
// was issued for.
type Token struct {
	Token     string      `json:"token"`
	User      domain.User `json:"user"`
	ExpiresAt time.Time   `json:"expiresAt"`
	CreatedAt time.Time   `json:"createdAt"`
}

type Repository interface {
	Save(ctx context.Context, sessionID string, token Token) error
	Get(ctx context.Context, sessionID string) (*Token, error)
	Delete(ctx context.Context, sessionID string) error
}
