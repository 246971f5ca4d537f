package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetEntry returns one of the caller's entries, active or archived
func (h *EntryHandler) GetEntry(c *gin.Context) {
	entry, err := h.entries.Get(c.Request.Context(), c.GetString("uid"), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "failed to fetch entry", "entry_id", c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, entry)
}
