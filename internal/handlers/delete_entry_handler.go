package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	updatemodels "io.winapps.traveljournal/internal/models/update_entry"
)

// DeleteEntry permanently removes an archived entry and its media files.
// Active entries answer 404.
func (h *EntryHandler) DeleteEntry(c *gin.Context) {
	if err := h.entries.PermanentlyDelete(c.Request.Context(), c.GetString("uid"), c.Param("id")); err != nil {
		h.respondError(c, err, "failed to delete entry", "entry_id", c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, updatemodels.MessageResponse{Message: "Entry permanently deleted"})
}
