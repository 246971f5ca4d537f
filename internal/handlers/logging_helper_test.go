package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"io.winapps.traveljournal/internal/entries"
	entrymodels "io.winapps.traveljournal/internal/models/entry"
	"io.winapps.traveljournal/internal/repository"
	"io.winapps.traveljournal/internal/storage"
)

type downRepo struct {
	repository.EntryRepository
}

func (downRepo) Find(context.Context, repository.Filter) ([]*entrymodels.Entry, error) {
	return nil, errors.New("connection refused")
}

type downBlobs struct{}

func (downBlobs) Save(context.Context, storage.Upload) (string, error) {
	return "", errors.New("bucket unreachable")
}

func (downBlobs) Delete(context.Context, string) error { return nil }

func TestFailuresAreLoggedWithRequestContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core).Sugar()

	svc := entries.NewService(downRepo{repository.NewMemoryEntries()}, downBlobs{}, storage.NewPolicy(0), logger)
	t.Cleanup(svc.Wait)
	h := NewEntryHandler(svc, storage.DefaultMaxBytes, logger)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("request_id", "req-1")
		c.Set("uid", "alice")
	})
	r.GET("/entries/user", h.ListActiveEntries)
	r.POST("/entries", h.CreateEntry)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/entries/user", nil))
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Server error"}`, w.Body.String())

	errs := logs.FilterLevelExact(zapcore.ErrorLevel).All()
	require.Len(t, errs, 1)
	fields := errs[0].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "alice", fields["uid"])
	assert.Equal(t, "/entries/user", fields["route"])
	assert.Contains(t, fields["error"], "connection refused")

	req := multipartRequest(t, http.MethodPost, "/entries",
		map[string]string{"title": "Trip", "description": "Paris"},
		"files", filePart{name: "a.jpg", contentType: "image/jpeg", data: []byte("jpeg")})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadGateway, w.Code)

	warns := logs.FilterLevelExact(zapcore.WarnLevel).FilterMessage("failed to create entry").All()
	require.Len(t, warns, 1)
	assert.Equal(t, "alice", warns[0].ContextMap()["uid"])
}
