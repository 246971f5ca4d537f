package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"io.winapps.traveljournal/internal/accounts"
	createmodels "io.winapps.traveljournal/internal/models/create_account"
	loginmodels "io.winapps.traveljournal/internal/models/login"
)

// CreateAccount registers a user and logs them in straight away
func (h *AuthHandler) CreateAccount(c *gin.Context) {
	var req createmodels.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name, email and password are required"})
		return
	}

	user, err := h.accounts.Register(c.Request.Context(), accounts.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.respondError(c, err, "failed to create account")
		return
	}

	if !h.startSession(c, user) {
		return
	}
	c.JSON(http.StatusCreated, loginmodels.FromUser(user))
}
