package identity

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"storefront/internal/domain"
	"storefront/internal/gateway"
	tokenrepo "storefront/internal/repository/token"

	"github.com/golang-jwt/jwt/v5"
)

// memoryTokenRepo is a lightweight in-memory token repository for tests.
type memoryTokenRepo struct {
	tokens map[string]tokenrepo.Token
}

func newMemoryTokenRepo() *memoryTokenRepo {
	return &memoryTokenRepo{tokens: make(map[string]tokenrepo.Token)}
}

func (r *memoryTokenRepo) Save(_ context.Context, sessionID string, token tokenrepo.Token) error {
	r.tokens[sessionID] = token
	return nil
}

func (r *memoryTokenRepo) Get(_ context.Context, sessionID string) (*tokenrepo.Token, error) {
	t, ok := r.tokens[sessionID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := t
	return &clone, nil
}

func (r *memoryTokenRepo) Delete(_ context.Context, sessionID string) error {
	delete(r.tokens, sessionID)
	return nil
}

type stubAuth struct {
	token string
	user  domain.User
	err   error
}

func (s stubAuth) Login(_ context.Context, email, password string) (*gateway.LoginResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &gateway.LoginResult{Token: s.token, User: s.user}, nil
}

type recorder struct {
	events []string
}

func (r *recorder) LoggedIn(context.Context)  { r.events = append(r.events, "in") }
func (r *recorder) LoggedOut(context.Context) { r.events = append(r.events, "out") }

func signed(t *testing.T, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "7",
		"exp": exp.Unix(),
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return token
}

func TestLoginStoresTokenAndNotifies(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryTokenRepo()
	exp := time.Now().Add(2 * time.Hour).Truncate(time.Second)
	token := signed(t, exp)
	id := New("sess", stubAuth{token: token, user: domain.User{ID: "7", Email: "ann@example.com"}}, repo, nil)
	rec := &recorder{}
	id.Subscribe(rec)

	if id.Authenticated() {
		t.Fatalf("expected guest before login")
	}
	user, err := id.Login(ctx, " Ann@Example.com ", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if user.ID != "7" {
		t.Fatalf("unexpected user %+v", user)
	}
	if id.Token() != token || !id.Authenticated() {
		t.Fatalf("expected token to be active")
	}
	if got, _ := id.ExpiresAt(); !got.Equal(exp) {
		t.Fatalf("expected expiry from exp claim %v, got %v", exp, got)
	}
	if _, ok := repo.tokens["sess"]; !ok {
		t.Fatalf("expected token persisted under the session")
	}
	if len(rec.events) != 1 || rec.events[0] != "in" {
		t.Fatalf("expected one LoggedIn, got %v", rec.events)
	}
}

func TestLoginRejected(t *testing.T) {
	ctx := context.Background()
	id := New("sess", stubAuth{err: &gateway.APIError{Status: http.StatusBadRequest, Message: "wrong password"}}, newMemoryTokenRepo(), nil)
	rec := &recorder{}
	id.Subscribe(rec)

	_, err := id.Login(ctx, "ann@example.com", "nope")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if gateway.MessageOf(err) != "wrong password" {
		t.Fatalf("expected upstream message kept, got %v", err)
	}
	if _, err := id.Login(ctx, "", "x"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for empty email, got %v", err)
	}
	if len(rec.events) != 0 {
		t.Fatalf("expected no events, got %v", rec.events)
	}
}

func TestLoginUpstreamFailure(t *testing.T) {
	id := New("sess", stubAuth{err: &gateway.APIError{Status: http.StatusBadGateway}}, newMemoryTokenRepo(), nil)
	_, err := id.Login(context.Background(), "ann@example.com", "secret")
	if err == nil || errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestLogoutAndExpire(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryTokenRepo()
	id := New("sess", stubAuth{token: "opaque-token"}, repo, nil)
	rec := &recorder{}
	id.Subscribe(rec)

	if err := id.Logout(ctx); err != nil {
		t.Fatalf("guest Logout: %v", err)
	}
	if len(rec.events) != 0 {
		t.Fatalf("guest logout must not notify, got %v", rec.events)
	}

	if _, err := id.Login(ctx, "ann@example.com", "secret"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	id.Expire(ctx)
	if id.Authenticated() {
		t.Fatalf("expected guest after Expire")
	}
	if _, ok := repo.tokens["sess"]; ok {
		t.Fatalf("expected stored token removed")
	}
	if len(rec.events) != 2 || rec.events[1] != "out" {
		t.Fatalf("expected in,out got %v", rec.events)
	}
}

func TestUpdateUserKeepsToken(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryTokenRepo()
	id := New("sess", stubAuth{token: "opaque-token"}, repo, nil)

	if err := id.UpdateUser(ctx, domain.User{Name: "Ann"}); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated for a guest, got %v", err)
	}
	if _, err := id.Login(ctx, "ann@example.com", "secret"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := id.UpdateUser(ctx, domain.User{ID: "7", Name: "Ann B", Phone: "0123456789"}); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	user, _ := id.User()
	if user.Name != "Ann B" || user.Phone != "0123456789" {
		t.Fatalf("unexpected user %+v", user)
	}
	if id.Token() != "opaque-token" {
		t.Fatalf("token changed: %q", id.Token())
	}
	if repo.tokens["sess"].User.Name != "Ann B" {
		t.Fatalf("profile not persisted: %+v", repo.tokens["sess"])
	}
}

func TestRestore(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryTokenRepo()
	repo.tokens["live"] = tokenrepo.Token{Token: "a", User: domain.User{ID: "1"}, ExpiresAt: time.Now().Add(time.Hour)}
	repo.tokens["stale"] = tokenrepo.Token{Token: "b", ExpiresAt: time.Now().Add(-time.Minute)}

	live := New("live", stubAuth{}, repo, nil)
	ok, err := live.Restore(ctx)
	if err != nil || !ok {
		t.Fatalf("expected restore, got %v %v", ok, err)
	}
	if u, _ := live.User(); u.ID != "1" || live.Token() != "a" {
		t.Fatalf("unexpected restored identity")
	}

	stale := New("stale", stubAuth{}, repo, nil)
	ok, err = stale.Restore(ctx)
	if err != nil || ok {
		t.Fatalf("expected no restore for expired token, got %v %v", ok, err)
	}
	if _, exists := repo.tokens["stale"]; exists {
		t.Fatalf("expected expired token deleted")
	}

	none := New("none", stubAuth{}, repo, nil)
	if ok, err := none.Restore(ctx); err != nil || ok {
		t.Fatalf("expected nothing to restore, got %v %v", ok, err)
	}
}

func TestExpiresAtFallback(t *testing.T) {
	m := newTokenManager(newMemoryTokenRepo())
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if got := m.expiresAt("not-a-jwt", now); !got.Equal(now.Add(48 * time.Hour)) {
		t.Fatalf("expected fallback ttl, got %v", got)
	}
}
