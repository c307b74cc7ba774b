// Package identity tracks who is logged in on one browser session and tells
// subscribers when that changes.
package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"storefront/internal/domain"
	"storefront/internal/gateway"
	tokenrepo "storefront/internal/repository/token"

	"go.uber.org/zap"
)

var (
	// ErrInvalidCredentials is returned when the shop API rejects a login.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotAuthenticated   = errors.New("not authenticated")
)

// Listener is notified after the identity changes. Callbacks run on the
// goroutine that caused the change.
type Listener interface {
	LoggedIn(ctx context.Context)
	LoggedOut(ctx context.Context)
}

type authAPI interface {
	Login(ctx context.Context, email, password string) (*gateway.LoginResult, error)
}

type Identity struct {
	sessionID string
	api       authAPI
	tokens    *tokenManager
	logger    *zap.Logger

	mu        sync.RWMutex
	current   *tokenrepo.Token
	listeners []Listener
}

func New(sessionID string, api authAPI, tokens tokenrepo.Repository, logger *zap.Logger) *Identity {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Identity{
		sessionID: sessionID,
		api:       api,
		tokens:    newTokenManager(tokens),
		logger:    logger.Named("identity").With(zap.String("session_id", sessionID)),
	}
}

func (i *Identity) Subscribe(l Listener) {
	i.mu.Lock()
	i.listeners = append(i.listeners, l)
	i.mu.Unlock()
}

// Restore loads a previously stored, unexpired token. It does not notify
// listeners; callers start in the matching mode.
func (i *Identity) Restore(ctx context.Context) (bool, error) {
	t, ok, err := i.tokens.Validate(ctx, i.sessionID)
	if err != nil {
		return false, fmt.Errorf("restore identity: %w", err)
	}
	if !ok {
		return false, nil
	}
	i.mu.Lock()
	i.current = &t
	i.mu.Unlock()
	return true, nil
}

// Login authenticates against the shop API, stores the token and notifies
// listeners with LoggedIn.
func (i *Identity) Login(ctx context.Context, email, password string) (domain.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return domain.User{}, ErrInvalidCredentials
	}
	res, err := i.api.Login(ctx, email, password)
	if err != nil {
		switch gateway.StatusOf(err) {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusNotFound:
			return domain.User{}, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
		}
		return domain.User{}, fmt.Errorf("login: %w", err)
	}
	if res.Token == "" {
		return domain.User{}, errors.New("login: empty token")
	}

	t, err := i.tokens.Issue(ctx, i.sessionID, res.Token, res.User)
	if err != nil {
		return domain.User{}, fmt.Errorf("store token: %w", err)
	}

	i.mu.Lock()
	i.current = &t
	listeners := append([]Listener(nil), i.listeners...)
	i.mu.Unlock()

	i.logger.Info("logged in", zap.String("user_id", res.User.ID.String()))
	for _, l := range listeners {
		l.LoggedIn(ctx)
	}
	return res.User, nil
}

// Logout forgets the token and notifies listeners with LoggedOut. Logging out
// a guest is a no-op.
func (i *Identity) Logout(ctx context.Context) error {
	i.mu.Lock()
	if i.current == nil {
		i.mu.Unlock()
		return nil
	}
	i.current = nil
	listeners := append([]Listener(nil), i.listeners...)
	i.mu.Unlock()

	err := i.tokens.Revoke(ctx, i.sessionID)
	if err != nil {
		i.logger.Error("revoke token", zap.Error(err))
	}
	for _, l := range listeners {
		l.LoggedOut(ctx)
	}
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// Expire is called when the shop API rejects the token.
func (i *Identity) Expire(ctx context.Context) {
	i.logger.Info("token rejected by shop api")
	_ = i.Logout(ctx)
}

// Token returns the bearer token, or "" for a guest or an expired token.
func (i *Identity) Token() string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.current == nil || !i.tokens.now().Before(i.current.ExpiresAt) {
		return ""
	}
	return i.current.Token
}

func (i *Identity) Authenticated() bool {
	return i.Token() != ""
}

func (i *Identity) User() (domain.User, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.current == nil {
		return domain.User{}, false
	}
	return i.current.User, true
}

// UpdateUser replaces the stored profile of the logged-in user, keeping the
// token.
func (i *Identity) UpdateUser(ctx context.Context, user domain.User) error {
	i.mu.Lock()
	if i.current == nil {
		i.mu.Unlock()
		return ErrNotAuthenticated
	}
	t := *i.current
	t.User = user
	i.current = &t
	i.mu.Unlock()

	if err := i.tokens.repo.Save(ctx, i.sessionID, t); err != nil {
		return fmt.Errorf("store profile: %w", err)
	}
	return nil
}

// ExpiresAt returns the expiry of the current token.
func (i *Identity) ExpiresAt() (time.Time, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.current == nil {
		return time.Time{}, false
	}
	return i.current.ExpiresAt, true
}
