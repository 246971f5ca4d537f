package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"io.winapps.traveljournal/internal/entries"
	removelocationmodels "io.winapps.traveljournal/internal/models/remove_location"
	updatemodels "io.winapps.traveljournal/internal/models/update_entry"
	updatelocationmodels "io.winapps.traveljournal/internal/models/update_location"
)

// UpdateLocation sets the location of an entry without touching other fields
func (h *EntryHandler) UpdateLocation(c *gin.Context) {
	var req updatelocationmodels.UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	text := updatemodels.UpdateEntryRequest{Location: req.Location}.LocationText()
	if text == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Location is required"})
		return
	}

	entry, err := h.entries.Update(c.Request.Context(), c.GetString("uid"), c.Param("id"), entries.UpdateInput{Location: text})
	if err != nil {
		h.respondError(c, err, "failed to update location", "entry_id", c.Param("id"))
		return
	}

	c.JSON(http.StatusOK, updatelocationmodels.UpdateLocationResponse{
		EntryID:  entry.ID,
		Location: entry.Location,
		Message:  "Location updated successfully",
	})
}

// RemoveLocation clears the location of an entry
func (h *EntryHandler) RemoveLocation(c *gin.Context) {
	none := ""
	entry, err := h.entries.Update(c.Request.Context(), c.GetString("uid"), c.Param("id"), entries.UpdateInput{Location: &none})
	if err != nil {
		h.respondError(c, err, "failed to remove location", "entry_id", c.Param("id"))
		return
	}

	c.JSON(http.StatusOK, removelocationmodels.RemoveLocationResponse{
		EntryID: entry.ID,
		Message: "Location removed successfully",
	})
}
