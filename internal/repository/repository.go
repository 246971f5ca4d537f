package repository

import (
	"context"
	"errors"
	"time"

	accountmodels "io.winapps.traveljournal/internal/models/account"
	entrymodels "io.winapps.traveljournal/internal/models/entry"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate")
)

// Filter is the lookup predicate for entries. Zero fields do not constrain.
// Every lookup of a single entry is expected to carry both ID and Owner.
type Filter struct {
	ID             string
	Owner          string
	Archived       *bool
	ArchivedBefore *time.Time
}

func Bool(b bool) *bool {
	return &b
}

func (f Filter) Matches(e *entrymodels.Entry) bool {
	if e == nil {
		return false
	}
	if f.ID != "" && e.ID != f.ID {
		return false
	}
	if f.Owner != "" && e.Owner != f.Owner {
		return false
	}
	if f.Archived != nil && e.Archived != *f.Archived {
		return false
	}
	if f.ArchivedBefore != nil && (e.ArchivedAt == nil || !e.ArchivedAt.Before(*f.ArchivedBefore)) {
		return false
	}
	return true
}

// EntryRepository persists entries. Each method is a single-document
// operation; there is no multi-entry transaction.
type EntryRepository interface {
	// Create assigns ID, CreatedAt and UpdatedAt.
	Create(ctx context.Context, e *entrymodels.Entry) (*entrymodels.Entry, error)
	FindOne(ctx context.Context, f Filter) (*entrymodels.Entry, error)
	// Find returns matches newest first.
	Find(ctx context.Context, f Filter) ([]*entrymodels.Entry, error)
	// Save replaces the entry matching e.ID and e.Owner and bumps UpdatedAt.
	Save(ctx context.Context, e *entrymodels.Entry) (*entrymodels.Entry, error)
	DeleteOne(ctx context.Context, f Filter) error
}

type UserRepository interface {
	Create(ctx context.Context, u *accountmodels.User) (*accountmodels.User, error)
	FindByID(ctx context.Context, id string) (*accountmodels.User, error)
	FindByEmail(ctx context.Context, email string) (*accountmodels.User, error)
	Save(ctx context.Context, u *accountmodels.User) (*accountmodels.User, error)
}
