package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"io.winapps.traveljournal/internal/entries"
	createmodels "io.winapps.traveljournal/internal/models/create_entry"
)

type EntryHandler struct {
	entries   *entries.Service
	maxUpload int64
	logger    *zap.SugaredLogger
}

// NewEntryHandler creates a new entry handler
func NewEntryHandler(svc *entries.Service, maxUpload int64, logger *zap.SugaredLogger) *EntryHandler {
	return &EntryHandler{
		entries:   svc,
		maxUpload: maxUpload,
		logger:    logger,
	}
}

// CreateEntry handles multipart entry creation with optional files
func (h *EntryHandler) CreateEntry(c *gin.Context) {
	var form createmodels.CreateEntryForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	files, err := readUploads(c, "files", h.maxUpload)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid file upload"})
		return
	}

	entry, err := h.entries.Create(c.Request.Context(), c.GetString("uid"), entries.CreateInput{
		Title:       form.Title,
		Description: form.Description,
		Location:    form.Location,
		Files:       files,
	})
	if err != nil {
		h.respondError(c, err, "failed to create entry", "files", len(files))
		return
	}

	c.JSON(http.StatusCreated, createmodels.CreateEntryResponse(*entry))
}

// respondError maps service errors to status codes. Server-side failures are
// logged with request context and answered with a generic message.
func (h *EntryHandler) respondError(c *gin.Context, err error, msg string, fields ...interface{}) {
	switch {
	case errors.Is(err, entries.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, entries.ErrMediaNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Media not found"})
	case errors.Is(err, entries.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Entry not found"})
	case errors.Is(err, entries.ErrStorage):
		h.logUpstream(c, err, msg, fields...)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Media storage unavailable"})
	default:
		h.logError(c, err, msg, fields...)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
	}
}
