package httpserver

import (
	"net/http"

	"storefront/internal/domain"
	"storefront/internal/service/cart"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type addLineRequest struct {
	ProductID           domain.ID        `json:"productId" binding:"required"`
	VariantID           domain.ID        `json:"variantId"`
	Quantity            int              `json:"quantity" binding:"required,gte=1"`
	Name                string           `json:"name"`
	Image               string           `json:"image"`
	UnitPrice           *decimal.Decimal `json:"unitPrice"`
	DiscountedUnitPrice *decimal.Decimal `json:"discountedUnitPrice"`
}

type updateLineRequest struct {
	Quantity int `json:"quantity"`
}

func (h *handlers) getCart(c *gin.Context) {
	sess := currentSession(c)
	c.JSON(http.StatusOK, toCartResponse(sess.Cart.View()))
}

func (h *handlers) addLine(c *gin.Context) {
	sess := currentSession(c)
	var req addLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}
	in := cart.AddLineInput{
		ProductID:           req.ProductID,
		VariantID:           req.VariantID,
		Quantity:            req.Quantity,
		Name:                req.Name,
		Image:               req.Image,
		UnitPrice:           req.UnitPrice,
		DiscountedUnitPrice: req.DiscountedUnitPrice,
	}
	// Guest lines keep their own display data; authenticated lines are
	// priced by the shop API on refetch.
	if sess.Cart.State() == cart.StateGuest {
		enriched, err := h.catalog.Enrich(c.Request.Context(), in)
		if err != nil {
			h.writeError(c, err)
			return
		}
		in = enriched
	}
	if err := sess.Cart.AddLine(c.Request.Context(), in); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(sess.Cart.View()))
}

func (h *handlers) updateLine(c *gin.Context) {
	sess := currentSession(c)
	key, err := domain.ParseLineKey(c.Param("key"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	var req updateLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}
	if err := sess.Cart.UpdateQuantity(c.Request.Context(), key, req.Quantity); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(sess.Cart.View()))
}

func (h *handlers) removeLine(c *gin.Context) {
	sess := currentSession(c)
	key, err := domain.ParseLineKey(c.Param("key"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	if err := sess.Cart.RemoveLine(c.Request.Context(), key); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(sess.Cart.View()))
}

func (h *handlers) clearCart(c *gin.Context) {
	sess := currentSession(c)
	if err := sess.Cart.Clear(c.Request.Context()); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(sess.Cart.View()))
}

func (h *handlers) refreshCart(c *gin.Context) {
	sess := currentSession(c)
	if err := sess.Cart.Refresh(c.Request.Context()); err != nil {
		h.logger.Warn("refresh cart", zap.String("session_id", sess.ID), zap.Error(err))
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(sess.Cart.View()))
}

func (h *handlers) bindError(c *gin.Context, err error) {
	status, msg := classify(err)
	if status == http.StatusInternalServerError {
		status, msg = http.StatusBadRequest, "invalid request body"
	}
	c.JSON(status, gin.H{"message": msg})
}
