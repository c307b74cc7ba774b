package httpserver

import (
	"context"
	"errors"
	"time"

	"storefront/internal/domain"
	"storefront/internal/gateway"
	"storefront/internal/service/account"
	"storefront/internal/service/cart"
	"storefront/internal/service/catalog"
	"storefront/internal/service/orders"
	"storefront/internal/service/session"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type sessionSource interface {
	NewID() string
	Get(ctx context.Context, id string) (*session.Session, error)
}

type catalogService interface {
	Search(ctx context.Context, f catalog.Filter) (catalog.Page, error)
	Product(ctx context.Context, id domain.ID) (*domain.Product, error)
	Enrich(ctx context.Context, in cart.AddLineInput) (cart.AddLineInput, error)
}

type orderService interface {
	Place(ctx context.Context, creds gateway.Credentials, in orders.PlaceInput, lines []domain.CartLine) (*gateway.Order, error)
	List(ctx context.Context, creds gateway.Credentials) ([]gateway.Order, error)
	Get(ctx context.Context, creds gateway.Credentials, id domain.ID) (*gateway.Order, error)
	Cancel(ctx context.Context, creds gateway.Credentials, id domain.ID) (*gateway.Order, error)
}

type accountService interface {
	Register(ctx context.Context, in account.RegisterInput) (domain.User, error)
	UpdateProfile(ctx context.Context, p account.Profile, in account.ProfileInput) (domain.User, error)
	ChangePassword(ctx context.Context, p account.Profile, in account.PasswordInput) error
}

// Deps groups the services the router needs.
type Deps struct {
	Sessions       sessionSource
	Catalog        catalogService
	Orders         orderService
	Accounts       accountService
	AllowedOrigins []string
	CookieSecure   bool
	AuthRatePerMin int
}

// buildRouter wires routes for the API.
func buildRouter(logger *zap.Logger, store Pinger, deps Deps) (*gin.Engine, error) {
	if deps.Sessions == nil || deps.Catalog == nil || deps.Orders == nil || deps.Accounts == nil {
		return nil, errors.New("httpserver: missing dependencies")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(zap.NewStdLog(logger.Named("http")).Writer()), gin.Recovery())
	if len(deps.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     deps.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(store))

	h := &handlers{
		catalog:  deps.Catalog,
		orders:   deps.Orders,
		accounts: deps.Accounts,
		logger:   logger.Named("http"),
	}

	api := router.Group("/api")
	api.GET("/products/search", h.searchProducts)
	api.GET("/products/:id", h.getProduct)

	withSessionMW := sessionMiddleware(deps.Sessions, deps.CookieSecure, logger)
	// Throttled logins are rejected before a session is resolved.
	throttle := newRateLimiter(deps.AuthRatePerMin).middleware()
	api.POST("/auth/login", throttle, withSessionMW, h.login)
	api.POST("/auth/register", throttle, h.register)

	withSession := api.Group("", withSessionMW)
	withSession.GET("/cart", h.getCart)
	withSession.POST("/cart/lines", h.addLine)
	withSession.PATCH("/cart/lines/:key", h.updateLine)
	withSession.DELETE("/cart/lines/:key", h.removeLine)
	withSession.DELETE("/cart", h.clearCart)
	withSession.POST("/cart/refresh", h.refreshCart)
	withSession.POST("/checkout", h.checkout)
	withSession.GET("/orders", h.listOrders)
	withSession.GET("/orders/:id", h.getOrder)
	withSession.PUT("/orders/:id/cancel", h.cancelOrder)

	auth := withSession.Group("/auth")
	auth.GET("/me", h.me)
	auth.POST("/logout", h.logout)
	auth.PUT("/profile", h.updateProfile)
	auth.PUT("/change-password", h.changePassword)

	return router, nil
}

type handlers struct {
	catalog  catalogService
	orders   orderService
	accounts accountService
	logger   *zap.Logger
}
