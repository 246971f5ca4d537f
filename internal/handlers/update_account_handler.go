package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"io.winapps.traveljournal/internal/accounts"
	loginmodels "io.winapps.traveljournal/internal/models/login"
	updatemodels "io.winapps.traveljournal/internal/models/update-account"
)

// UpdateAccount changes name, email or password, and optionally the profile
// picture sent as "profilePic". Empty fields are left alone.
func (h *AuthHandler) UpdateAccount(c *gin.Context) {
	var form updatemodels.UpdateAccountForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	avatar, err := readSingleUpload(c, "profilePic", h.maxUpload)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid file upload"})
		return
	}

	user, err := h.accounts.UpdateProfile(c.Request.Context(), c.GetString("uid"), accounts.ProfileUpdate{
		Name:     form.Name,
		Email:    form.Email,
		Password: form.Password,
		Avatar:   avatar,
	})
	if err != nil {
		h.respondError(c, err, "failed to update account")
		return
	}
	c.JSON(http.StatusOK, loginmodels.FromUser(user))
}
