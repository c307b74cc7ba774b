package httpserver

import (
	"net/http"

	"storefront/internal/service/account"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// register creates an account. It does not log the session in.
func (h *handlers) register(c *gin.Context) {
	var req account.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}
	user, err := h.accounts.Register(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, userResponse{User: user})
}

func (h *handlers) updateProfile(c *gin.Context) {
	sess := currentSession(c)
	var req account.ProfileInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}
	user, err := h.accounts.UpdateProfile(c.Request.Context(), sess.Identity, req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, userResponse{User: user})
}

func (h *handlers) changePassword(c *gin.Context) {
	sess := currentSession(c)
	var req account.PasswordInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}
	if err := h.accounts.ChangePassword(c.Request.Context(), sess.Identity, req); err != nil {
		h.writeError(c, err)
		return
	}
	h.logger.Info("password changed", zap.String("session_id", sess.ID))
	c.JSON(http.StatusOK, gin.H{"message": "password changed"})
}
