package storage

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"io.winapps.traveljournal/internal/metrics"
)

const maxNameAttempts = 3

// LocalStore keeps blobs as flat files under one root directory, served at /uploads/.
type LocalStore struct {
	root   string
	logger *zap.SugaredLogger
	now    func() time.Time
}

func NewLocalStore(root string, logger *zap.SugaredLogger) (*LocalStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve upload root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create upload root: %w", err)
	}
	return &LocalStore{root: abs, logger: logger, now: time.Now}, nil
}

func (s *LocalStore) Root() string {
	return s.root
}

func (s *LocalStore) Save(ctx context.Context, u Upload) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ext := storedExt(u)
	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		name := fmt.Sprintf("%d-%d%s", s.now().UnixMilli(), rand.IntN(1_000_000_000), ext)
		f, err := os.OpenFile(filepath.Join(s.root, name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			metrics.BlobUploads.WithLabelValues(BackendLocal, metrics.ResultError).Inc()
			return "", fmt.Errorf("create %s: %w", name, err)
		}

		_, werr := f.Write(u.Data)
		cerr := f.Close()
		if werr != nil || cerr != nil {
			_ = os.Remove(f.Name())
			metrics.BlobUploads.WithLabelValues(BackendLocal, metrics.ResultError).Inc()
			return "", fmt.Errorf("write %s: %w", name, errors.Join(werr, cerr))
		}

		metrics.BlobUploads.WithLabelValues(BackendLocal, metrics.ResultOK).Inc()
		s.logger.Debugw("blob stored", "backend", BackendLocal, "name", name, "bytes", u.Size())
		return LocalURLPrefix + name, nil
	}

	metrics.BlobUploads.WithLabelValues(BackendLocal, metrics.ResultError).Inc()
	return "", errors.New("could not allocate a unique file name")
}

// Delete removes the file behind a /uploads/ URL. Locators outside the
// prefix, or that escape the root once cleaned, are rejected without
// touching the filesystem.
func (s *LocalStore) Delete(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := s.resolve(url)
	if err != nil {
		metrics.BlobDeletes.WithLabelValues(BackendLocal, metrics.ResultRejected).Inc()
		return err
	}

	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			metrics.BlobDeletes.WithLabelValues(BackendLocal, metrics.ResultNotFound).Inc()
			return ErrBlobNotFound
		}
		metrics.BlobDeletes.WithLabelValues(BackendLocal, metrics.ResultError).Inc()
		return fmt.Errorf("remove %s: %w", url, err)
	}

	metrics.BlobDeletes.WithLabelValues(BackendLocal, metrics.ResultOK).Inc()
	return nil
}

func (s *LocalStore) resolve(url string) (string, error) {
	if !IsLocalURL(url) {
		return "", fmt.Errorf("%w: %q is not under %s", ErrInvalidLocator, url, LocalURLPrefix)
	}
	rel := strings.TrimPrefix(url, LocalURLPrefix)
	if rel == "" {
		return "", fmt.Errorf("%w: empty name", ErrInvalidLocator)
	}

	full := filepath.Join(s.root, filepath.FromSlash(rel))
	r, err := filepath.Rel(s.root, full)
	if err != nil || r == "." || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q escapes the upload root", ErrInvalidLocator, url)
	}
	return full, nil
}
