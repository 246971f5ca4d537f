package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	loginmodels "io.winapps.traveljournal/internal/models/login"
)

// GetAccountDetails returns the authenticated user
func (h *AuthHandler) GetAccountDetails(c *gin.Context) {
	user, err := h.accounts.Profile(c.Request.Context(), c.GetString("uid"))
	if err != nil {
		h.respondError(c, err, "failed to fetch account")
		return
	}
	c.JSON(http.StatusOK, loginmodels.FromUser(user))
}
