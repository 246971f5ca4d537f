package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	accountmodels "io.winapps.traveljournal/internal/models/account"
	entrymodels "io.winapps.traveljournal/internal/models/entry"
)

func TestFilterMatches(t *testing.T) {
	archivedAt := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	e := &entrymodels.Entry{ID: "e1", Owner: "alice", Archived: true, ArchivedAt: &archivedAt}

	assert.True(t, Filter{}.Matches(e))
	assert.True(t, Filter{ID: "e1", Owner: "alice", Archived: Bool(true)}.Matches(e))
	assert.False(t, Filter{ID: "e1", Owner: "bob"}.Matches(e))
	assert.False(t, Filter{ID: "e1", Archived: Bool(false)}.Matches(e))

	cutoff := archivedAt.Add(time.Hour)
	assert.True(t, Filter{ArchivedBefore: &cutoff}.Matches(e))
	early := archivedAt.Add(-time.Hour)
	assert.False(t, Filter{ArchivedBefore: &early}.Matches(e))
	assert.False(t, Filter{ArchivedBefore: &cutoff}.Matches(&entrymodels.Entry{Archived: true}))
	assert.False(t, Filter{}.Matches(nil))
}

func TestMemoryEntries_CreateFindSave(t *testing.T) {
	repo := NewMemoryEntries()
	ctx := context.Background()

	created, err := repo.Create(ctx, &entrymodels.Entry{Owner: "alice", Title: "Trip", Description: "Paris"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)
	assert.NotNil(t, created.Media)

	_, err = repo.FindOne(ctx, Filter{ID: created.ID, Owner: "bob"})
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := repo.FindOne(ctx, Filter{ID: created.ID, Owner: "alice"})
	require.NoError(t, err)
	got.Title = "mutated outside"

	again, err := repo.FindOne(ctx, Filter{ID: created.ID, Owner: "alice"})
	require.NoError(t, err)
	assert.Equal(t, "Trip", again.Title, "store must not share state with callers")

	again.Title = "Trip 2"
	saved, err := repo.Save(ctx, again)
	require.NoError(t, err)
	assert.Equal(t, "Trip 2", saved.Title)
	assert.True(t, saved.UpdatedAt.After(created.UpdatedAt))
	assert.Equal(t, created.CreatedAt, saved.CreatedAt)

	foreign := saved.Clone()
	foreign.Owner = "mallory"
	_, err = repo.Save(ctx, foreign)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryEntries_FindNewestFirst(t *testing.T) {
	repo := NewMemoryEntries()
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	var ids []string
	for i := 0; i < 3; i++ {
		ts := base.Add(time.Duration(i) * time.Minute)
		repo.now = func() time.Time { return ts }
		e, err := repo.Create(ctx, &entrymodels.Entry{Owner: "alice", Title: "t", Description: "d"})
		require.NoError(t, err)
		ids = append(ids, e.ID)
	}
	_, err := repo.Create(ctx, &entrymodels.Entry{Owner: "bob", Title: "t", Description: "d"})
	require.NoError(t, err)

	got, err := repo.Find(ctx, Filter{Owner: "alice"})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{ids[2], ids[1], ids[0]}, []string{got[0].ID, got[1].ID, got[2].ID})
}

func TestMemoryEntries_DeleteOneHonoursFilter(t *testing.T) {
	repo := NewMemoryEntries()
	ctx := context.Background()

	e, err := repo.Create(ctx, &entrymodels.Entry{Owner: "alice", Title: "t", Description: "d"})
	require.NoError(t, err)

	err = repo.DeleteOne(ctx, Filter{ID: e.ID, Owner: "alice", Archived: Bool(true)})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.DeleteOne(ctx, Filter{ID: e.ID, Owner: "alice", Archived: Bool(false)}))
	_, err = repo.FindOne(ctx, Filter{ID: e.ID, Owner: "alice"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryUsers(t *testing.T) {
	repo := NewMemoryUsers()
	ctx := context.Background()

	u, err := repo.Create(ctx, &accountmodels.User{Name: "Ana", Email: "ana@example.com", PasswordHash: "h"})
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)

	_, err = repo.Create(ctx, &accountmodels.User{Name: "Ana 2", Email: "ANA@example.com"})
	assert.ErrorIs(t, err, ErrDuplicate)

	byEmail, err := repo.FindByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	byEmail.Name = "Ana Maria"
	saved, err := repo.Save(ctx, byEmail)
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", saved.Name)

	_, err = repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
