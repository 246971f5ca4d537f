package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	entrymodels "io.winapps.traveljournal/internal/models/entry"
	removemodels "io.winapps.traveljournal/internal/models/remove_media"
)

// RemoveMediaByID drops the reference named in the path. The file is
// removed in the background.
func (h *EntryHandler) RemoveMediaByID(c *gin.Context) {
	entry, err := h.entries.DetachMediaByID(c.Request.Context(), c.GetString("uid"), c.Param("id"), c.Param("mediaId"))
	h.respondRemoved(c, entry, err)
}

// RemoveMedia drops a reference identified by mediaId or url in the body
func (h *EntryHandler) RemoveMedia(c *gin.Context) {
	var req removemodels.RemoveMediaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	var (
		entry *entrymodels.Entry
		err   error
	)
	switch {
	case req.MediaID != "":
		entry, err = h.entries.DetachMediaByID(c.Request.Context(), c.GetString("uid"), c.Param("id"), req.MediaID)
	case req.URL != "":
		entry, err = h.entries.DetachMediaByURL(c.Request.Context(), c.GetString("uid"), c.Param("id"), req.URL)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "mediaId or url is required"})
		return
	}
	h.respondRemoved(c, entry, err)
}

func (h *EntryHandler) respondRemoved(c *gin.Context, entry *entrymodels.Entry, err error) {
	if err != nil {
		h.respondError(c, err, "failed to remove media", "entry_id", c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, removemodels.RemoveMediaResponse{
		Message: "Media deleted successfully",
		Entry:   entry,
	})
}
