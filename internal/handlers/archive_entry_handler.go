package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	updatemodels "io.winapps.traveljournal/internal/models/update_entry"
)

// ArchiveEntry moves an entry out of the default listing. Archiving twice is fine.
func (h *EntryHandler) ArchiveEntry(c *gin.Context) {
	if _, err := h.entries.Archive(c.Request.Context(), c.GetString("uid"), c.Param("id")); err != nil {
		h.respondError(c, err, "failed to archive entry", "entry_id", c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, updatemodels.MessageResponse{Message: "Entry archived"})
}

// RestoreEntry brings an archived entry back to the active listing
func (h *EntryHandler) RestoreEntry(c *gin.Context) {
	if _, err := h.entries.Restore(c.Request.Context(), c.GetString("uid"), c.Param("id")); err != nil {
		h.respondError(c, err, "failed to restore entry", "entry_id", c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, updatemodels.MessageResponse{Message: "Restored"})
}
