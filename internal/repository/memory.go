package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	accountmodels "io.winapps.traveljournal/internal/models/account"
	entrymodels "io.winapps.traveljournal/internal/models/entry"
)

type memoryEntry struct {
	seq   int64
	entry *entrymodels.Entry
}

// MemoryEntries keeps entries in process memory. Values are cloned on the
// way in and out so callers never share state with the store.
type MemoryEntries struct {
	mu      sync.RWMutex
	seq     int64
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryEntries() *MemoryEntries {
	return &MemoryEntries{entries: map[string]memoryEntry{}, now: time.Now}
}

func (r *MemoryEntries) Create(ctx context.Context, e *entrymodels.Entry) (*entrymodels.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := e.Clone()
	stored.ID = uuid.NewString()
	now := r.now().UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	if stored.Media == nil {
		stored.Media = []entrymodels.Media{}
	}

	r.seq++
	r.entries[stored.ID] = memoryEntry{seq: r.seq, entry: stored}
	return stored.Clone(), nil
}

func (r *MemoryEntries) FindOne(ctx context.Context, f Filter) (*entrymodels.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	if f.ID != "" {
		me, ok := r.entries[f.ID]
		if !ok || !f.Matches(me.entry) {
			return nil, ErrNotFound
		}
		return me.entry.Clone(), nil
	}
	for _, me := range r.sorted() {
		if f.Matches(me.entry) {
			return me.entry.Clone(), nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryEntries) Find(ctx context.Context, f Filter) ([]*entrymodels.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*entrymodels.Entry{}
	for _, me := range r.sorted() {
		if f.Matches(me.entry) {
			out = append(out, me.entry.Clone())
		}
	}
	return out, nil
}

func (r *MemoryEntries) Save(ctx context.Context, e *entrymodels.Entry) (*entrymodels.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	me, ok := r.entries[e.ID]
	if !ok || me.entry.Owner != e.Owner {
		return nil, ErrNotFound
	}
	stored := e.Clone()
	stored.CreatedAt = me.entry.CreatedAt
	stored.UpdatedAt = r.now().UTC()
	if !stored.UpdatedAt.After(me.entry.UpdatedAt) {
		stored.UpdatedAt = me.entry.UpdatedAt.Add(time.Microsecond)
	}
	r.entries[e.ID] = memoryEntry{seq: me.seq, entry: stored}
	return stored.Clone(), nil
}

func (r *MemoryEntries) DeleteOne(ctx context.Context, f Filter) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	me, ok := r.entries[f.ID]
	if !ok || !f.Matches(me.entry) {
		return ErrNotFound
	}
	delete(r.entries, f.ID)
	return nil
}

// sorted returns entries newest first; insertion order breaks timestamp ties.
func (r *MemoryEntries) sorted() []memoryEntry {
	out := make([]memoryEntry, 0, len(r.entries))
	for _, me := range r.entries {
		out = append(out, me)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].entry, out[j].entry
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return out[i].seq > out[j].seq
	})
	return out
}

type MemoryUsers struct {
	mu    sync.RWMutex
	users map[string]*accountmodels.User
	now   func() time.Time
}

func NewMemoryUsers() *MemoryUsers {
	return &MemoryUsers{users: map[string]*accountmodels.User{}, now: time.Now}
}

func (r *MemoryUsers) Create(ctx context.Context, u *accountmodels.User) (*accountmodels.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.byEmail(u.Email) != nil {
		return nil, ErrDuplicate
	}
	stored := *u
	stored.ID = uuid.NewString()
	now := r.now().UTC()
	stored.CreatedAt, stored.UpdatedAt = now, now
	r.users[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (r *MemoryUsers) FindByID(ctx context.Context, id string) (*accountmodels.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *u
	return &out, nil
}

func (r *MemoryUsers) FindByEmail(ctx context.Context, email string) (*accountmodels.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	u := r.byEmail(email)
	if u == nil {
		return nil, ErrNotFound
	}
	out := *u
	return &out, nil
}

func (r *MemoryUsers) Save(ctx context.Context, u *accountmodels.User) (*accountmodels.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.users[u.ID]
	if !ok {
		return nil, ErrNotFound
	}
	if other := r.byEmail(u.Email); other != nil && other.ID != u.ID {
		return nil, ErrDuplicate
	}
	stored := *u
	stored.CreatedAt = existing.CreatedAt
	stored.UpdatedAt = r.now().UTC()
	r.users[u.ID] = &stored
	out := stored
	return &out, nil
}

func (r *MemoryUsers) byEmail(email string) *accountmodels.User {
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return u
		}
	}
	return nil
}
