package identity

import (
	"context"
	"errors"
	"time"

	"storefront/internal/domain"
	tokenrepo "storefront/internal/repository/token"

	"github.com/golang-jwt/jwt/v5"
)

// tokenManager persists the access token of one session and decides when it
// has expired. The shop API signs its tokens; the signature is not checked
// here, only the exp claim is read.
type tokenManager struct {
	repo        tokenrepo.Repository
	fallbackTTL time.Duration
	now         func() time.Time
}

func newTokenManager(repo tokenrepo.Repository) *tokenManager {
	return &tokenManager{
		repo:        repo,
		fallbackTTL: 48 * time.Hour,
		now:         time.Now,
	}
}

func (m *tokenManager) Issue(ctx context.Context, sessionID, token string, user domain.User) (tokenrepo.Token, error) {
	now := m.now()
	t := tokenrepo.Token{
		Token:     token,
		User:      user,
		ExpiresAt: m.expiresAt(token, now),
		CreatedAt: now,
	}
	if err := m.repo.Save(ctx, sessionID, t); err != nil {
		return tokenrepo.Token{}, err
	}
	return t, nil
}

// Validate returns the stored token when it is still valid. Expired tokens
// are deleted.
func (m *tokenManager) Validate(ctx context.Context, sessionID string) (tokenrepo.Token, bool, error) {
	t, err := m.repo.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return tokenrepo.Token{}, false, nil
		}
		return tokenrepo.Token{}, false, err
	}
	if !m.now().Before(t.ExpiresAt) {
		_ = m.repo.Delete(ctx, sessionID)
		return tokenrepo.Token{}, false, nil
	}
	return *t, true, nil
}

func (m *tokenManager) Revoke(ctx context.Context, sessionID string) error {
	return m.repo.Delete(ctx, sessionID)
}

func (m *tokenManager) expiresAt(token string, now time.Time) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			return exp.Time
		}
	}
	return now.Add(m.fallbackTTL)
}
