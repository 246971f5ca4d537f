package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	addmediamodels "io.winapps.traveljournal/internal/models/add_media"
)

// AddMedia stores the files sent as "media" and answers with the new references only
func (h *EntryHandler) AddMedia(c *gin.Context) {
	files, err := readUploads(c, "media", h.maxUpload)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid file upload"})
		return
	}
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}

	added, err := h.entries.AttachMedia(c.Request.Context(), c.GetString("uid"), c.Param("id"), files)
	if err != nil {
		h.respondError(c, err, "failed to add media", "entry_id", c.Param("id"), "files", len(files))
		return
	}
	c.JSON(http.StatusOK, addmediamodels.AddMediaResponse(added))
}
