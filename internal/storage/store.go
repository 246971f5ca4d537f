package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	// ErrRejected is the parent of every acceptance-policy failure.
	ErrRejected        = errors.New("upload rejected")
	ErrUnsupportedType = fmt.Errorf("%w: only images and videos are allowed", ErrRejected)
	ErrFileTooLarge    = fmt.Errorf("%w: file too large", ErrRejected)

	ErrBlobNotFound   = errors.New("blob not found")
	ErrInvalidLocator = errors.New("invalid blob locator")
)

const (
	BackendLocal = "local"
	BackendS3    = "s3"

	LocalURLPrefix = "/uploads/"
)

// Upload is one file as received from a client.
type Upload struct {
	Name        string
	ContentType string
	Data        []byte
}

func (u Upload) Size() int64 {
	return int64(len(u.Data))
}

// Store persists uploads and removes them by the URL Save returned.
type Store interface {
	Save(ctx context.Context, u Upload) (string, error)
	Delete(ctx context.Context, url string) error
}

func IsLocalURL(u string) bool {
	return strings.HasPrefix(u, LocalURLPrefix)
}

func IsRemoteURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// BackendFor names the backend a URL belongs to, or "" when it has no known shape.
func BackendFor(u string) string {
	switch {
	case IsLocalURL(u):
		return BackendLocal
	case IsRemoteURL(u):
		return BackendS3
	}
	return ""
}
