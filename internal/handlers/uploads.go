package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"io.winapps.traveljournal/internal/storage"
)

// readUploads reads every file sent under field. A request that is not
// multipart carries no files. Each file is read up to one byte past
// maxBytes so the acceptance policy can still see that it is too large.
func readUploads(c *gin.Context, field string, maxBytes int64) ([]storage.Upload, error) {
	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, fmt.Errorf("parse multipart form: %w", err)
	}

	headers := form.File[field]
	uploads := make([]storage.Upload, 0, len(headers))
	for _, fh := range headers {
		u, err := readUpload(fh, maxBytes)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, u)
	}
	return uploads, nil
}

// readSingleUpload returns the first file under field, or nil when there is none.
func readSingleUpload(c *gin.Context, field string, maxBytes int64) (*storage.Upload, error) {
	uploads, err := readUploads(c, field, maxBytes)
	if err != nil || len(uploads) == 0 {
		return nil, err
	}
	return &uploads[0], nil
}

func readUpload(fh *multipart.FileHeader, maxBytes int64) (storage.Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return storage.Upload{}, fmt.Errorf("open %q: %w", fh.Filename, err)
	}
	defer f.Close()

	if maxBytes <= 0 {
		maxBytes = storage.DefaultMaxBytes
	}
	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return storage.Upload{}, fmt.Errorf("read %q: %w", fh.Filename, err)
	}

	return storage.Upload{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
