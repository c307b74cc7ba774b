package httpserver

import (
	"net/http"
	"strings"

	"storefront/internal/domain"
	"storefront/internal/service/catalog"

	"github.com/gin-gonic/gin"
)

type searchResponse struct {
	catalog.Page
	Query string `json:"query"`
}

func (h *handlers) searchProducts(c *gin.Context) {
	f, err := catalog.ParseFilter(c.Request.URL.Query())
	if err != nil {
		h.writeError(c, err)
		return
	}
	page, err := h.catalog.Search(c.Request.Context(), f)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, searchResponse{Page: page, Query: f.Values().Encode()})
}

func (h *handlers) getProduct(c *gin.Context) {
	id := domain.ID(strings.TrimSpace(c.Param("id")))
	if id.IsZero() {
		c.JSON(http.StatusBadRequest, gin.H{"message": "product id required"})
		return
	}
	p, err := h.catalog.Product(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
