package httpserver

import (
	"errors"
	"net/http"

	"storefront/internal/domain"
	"storefront/internal/gateway"
	"storefront/internal/service/cart"
	"storefront/internal/service/catalog"
	"storefront/internal/service/identity"
	"storefront/internal/service/orders"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var errLoginRequired = errors.New("login required")

// writeError turns an error into a status code and a {"message": ...} body
// the UI shows as a dismissible notification.
func (h *handlers) writeError(c *gin.Context, err error) {
	status, msg := classify(err)
	if status >= http.StatusInternalServerError {
		h.logger.Warn("request failed",
			zap.String("path", c.FullPath()),
			zap.Int("status", status),
			zap.Error(err),
		)
	}
	c.JSON(status, gin.H{"message": msg})
}

func classify(err error) (int, string) {
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		return http.StatusUnprocessableEntity, verrs.Error()
	case errors.Is(err, domain.ErrInvalidLineKey), errors.Is(err, catalog.ErrInvalidFilter), errors.Is(err, orders.ErrEmptyCart):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, identity.ErrInvalidCredentials):
		return http.StatusUnauthorized, upstreamMessage(err, "invalid email or password")
	case errors.Is(err, gateway.ErrUnauthorized), errors.Is(err, identity.ErrNotAuthenticated), errors.Is(err, errLoginRequired):
		return http.StatusUnauthorized, "please log in again"
	case errors.Is(err, cart.ErrCartBusy):
		return http.StatusConflict, "cart is being updated, try again"
	case errors.Is(err, cart.ErrCartOperationFailed):
		return http.StatusConflict, upstreamMessage(err, "could not update the cart")
	case errors.Is(err, cart.ErrCartFetchFailed):
		return http.StatusBadGateway, "could not load the cart"
	case errors.Is(err, cart.ErrCartMergeFailed):
		return http.StatusBadGateway, "could not merge the cart"
	case errors.Is(err, orders.ErrNotCancellable):
		return http.StatusConflict, "only pending orders can be cancelled"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not found"
	case isClientRejection(gateway.StatusOf(err)):
		return http.StatusUnprocessableEntity, upstreamMessage(err, "request rejected by the shop")
	case gateway.StatusOf(err) != 0:
		return http.StatusBadGateway, upstreamMessage(err, "shop api request failed")
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func upstreamMessage(err error, fallback string) string {
	if msg := gateway.MessageOf(err); msg != "" {
		return msg
	}
	return fallback
}

// isClientRejection reports upstream statuses caused by the submitted data,
// such as an email that is already registered.
func isClientRejection(status int) bool {
	switch status {
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		return true
	}
	return false
}
