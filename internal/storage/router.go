package storage

import (
	"context"
	"fmt"
)

// Router saves to the primary backend and sends each delete to the backend
// that owns the URL's shape, so references written under an earlier
// configuration stay removable.
type Router struct {
	primary Store
	local   Store
	remote  Store
}

// NewRouter wires the backends. local and remote may be nil when not configured;
// primary must be one of them.
func NewRouter(primary, local, remote Store) *Router {
	return &Router{primary: primary, local: local, remote: remote}
}

func (r *Router) Save(ctx context.Context, u Upload) (string, error) {
	return r.primary.Save(ctx, u)
}

func (r *Router) Delete(ctx context.Context, url string) error {
	switch BackendFor(url) {
	case BackendLocal:
		if r.local == nil {
			return fmt.Errorf("%w: no local backend for %q", ErrInvalidLocator, url)
		}
		return r.local.Delete(ctx, url)
	case BackendS3:
		if r.remote == nil {
			return fmt.Errorf("%w: no remote backend for %q", ErrInvalidLocator, url)
		}
		return r.remote.Delete(ctx, url)
	}
	return fmt.Errorf("%w: %q", ErrInvalidLocator, url)
}
