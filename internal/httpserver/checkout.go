package httpserver

import (
	"net/http"

	"storefront/internal/gateway"
	"storefront/internal/service/orders"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type checkoutResponse struct {
	Order *gateway.Order `json:"order"`
	Cart  cartResponse   `json:"cart"`
}

// checkout places an order for the authenticated cart and then empties it.
func (h *handlers) checkout(c *gin.Context) {
	sess := currentSession(c)
	if !sess.Identity.Authenticated() {
		h.writeError(c, errLoginRequired)
		return
	}
	var req orders.PlaceInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}

	order, err := h.orders.Place(c.Request.Context(), sess.Identity, req, sess.Cart.View().Lines)
	if err != nil {
		h.writeError(c, err)
		return
	}

	if err := sess.Cart.CompleteCheckout(c.Request.Context()); err != nil {
		h.logger.Warn("clear cart after checkout",
			zap.String("session_id", sess.ID),
			zap.String("order_id", order.ID.String()),
			zap.Error(err),
		)
	}
	c.JSON(http.StatusCreated, checkoutResponse{Order: order, Cart: toCartResponse(sess.Cart.View())})
}
