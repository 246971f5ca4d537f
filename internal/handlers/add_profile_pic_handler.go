package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	addprofilemodels "io.winapps.traveljournal/internal/models/add_profile_pic"
)

// AddProfilePic replaces the user's avatar with the image sent as "avatar"
func (h *AuthHandler) AddProfilePic(c *gin.Context) {
	avatar, err := readSingleUpload(c, "avatar", h.maxUpload)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid file upload"})
		return
	}
	if avatar == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}

	user, err := h.accounts.UploadAvatar(c.Request.Context(), c.GetString("uid"), *avatar)
	if err != nil {
		h.respondError(c, err, "failed to upload avatar")
		return
	}

	c.JSON(http.StatusOK, addprofilemodels.AddProfilePicResponse{
		Message:    "Avatar uploaded",
		ProfilePic: user.ProfilePic,
	})
}
