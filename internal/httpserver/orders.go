package httpserver

import (
	"net/http"

	"storefront/internal/domain"
	"storefront/internal/gateway"

	"github.com/gin-gonic/gin"
)

type ordersResponse struct {
	Orders []gateway.Order `json:"orders"`
}

func (h *handlers) listOrders(c *gin.Context) {
	sess := currentSession(c)
	if !sess.Identity.Authenticated() {
		h.writeError(c, errLoginRequired)
		return
	}
	list, err := h.orders.List(c.Request.Context(), sess.Identity)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if list == nil {
		list = []gateway.Order{}
	}
	c.JSON(http.StatusOK, ordersResponse{Orders: list})
}

func (h *handlers) getOrder(c *gin.Context) {
	sess := currentSession(c)
	if !sess.Identity.Authenticated() {
		h.writeError(c, errLoginRequired)
		return
	}
	order, err := h.orders.Get(c.Request.Context(), sess.Identity, domain.ID(c.Param("id")))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// cancelOrder cancels an order that is still pending.
func (h *handlers) cancelOrder(c *gin.Context) {
	sess := currentSession(c)
	if !sess.Identity.Authenticated() {
		h.writeError(c, errLoginRequired)
		return
	}
	order, err := h.orders.Cancel(c.Request.Context(), sess.Identity, domain.ID(c.Param("id")))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
