package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	listmodels "io.winapps.traveljournal/internal/models/list_entries"
)

// ListActiveEntries lists the caller's active entries, newest first
func (h *EntryHandler) ListActiveEntries(c *gin.Context) {
	h.listActive(c, c.GetString("uid"))
}

// ListUserEntries lists the active entries of the user named in the path.
func (h *EntryHandler) ListUserEntries(c *gin.Context) {
	h.listActive(c, c.Param("id"))
}

// ListArchivedEntries lists the caller's archived entries, newest first
func (h *EntryHandler) ListArchivedEntries(c *gin.Context) {
	list, err := h.entries.ListArchived(c.Request.Context(), c.GetString("uid"))
	if err != nil {
		h.respondError(c, err, "failed to list archived entries")
		return
	}
	c.JSON(http.StatusOK, listmodels.ListEntriesResponse(list))
}

func (h *EntryHandler) listActive(c *gin.Context, owner string) {
	list, err := h.entries.ListActive(c.Request.Context(), owner)
	if err != nil {
		h.respondError(c, err, "failed to list entries", "owner", owner)
		return
	}
	c.JSON(http.StatusOK, listmodels.ListEntriesResponse(list))
}
