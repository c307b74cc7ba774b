package httpserver

import (
	"net/http"

	"storefront/internal/service/cart"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	userResponse
	Cart  cartResponse      `json:"cart"`
	Merge *cart.MergeReport `json:"merge,omitempty"`
}

// login authenticates the session. The guest cart is merged as part of the
// login; a failed merge does not fail the login and is reported in
// merge.error.
func (h *handlers) login(c *gin.Context) {
	sess := currentSession(c)
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}
	user, err := sess.Identity.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := loginResponse{userResponse: userResponse{User: user}, Cart: toCartResponse(sess.Cart.View())}
	if report, ok := sess.Cart.LastMerge(); ok {
		resp.Merge = &report
		if report.Error != "" {
			h.logger.Warn("login merge incomplete", zap.String("session_id", sess.ID), zap.String("error", report.Error))
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handlers) logout(c *gin.Context) {
	sess := currentSession(c)
	if err := sess.Identity.Logout(c.Request.Context()); err != nil {
		h.logger.Error("logout", zap.String("session_id", sess.ID), zap.Error(err))
	}
	c.JSON(http.StatusOK, toCartResponse(sess.Cart.View()))
}

func (h *handlers) me(c *gin.Context) {
	sess := currentSession(c)
	user, ok := sess.Identity.User()
	if !ok || !sess.Identity.Authenticated() {
		h.writeError(c, errLoginRequired)
		return
	}
	c.JSON(http.StatusOK, userResponse{User: user})
}
