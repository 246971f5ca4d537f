package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"io.winapps.traveljournal/internal/entries"
	updatemodels "io.winapps.traveljournal/internal/models/update_entry"
)

// UpdateEntry applies a partial update; the entry keeps its archived state
func (h *EntryHandler) UpdateEntry(c *gin.Context) {
	var req updatemodels.UpdateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	entry, err := h.entries.Update(c.Request.Context(), c.GetString("uid"), c.Param("id"), entries.UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.LocationText(),
	})
	if err != nil {
		h.respondError(c, err, "failed to update entry", "entry_id", c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, entry)
}
