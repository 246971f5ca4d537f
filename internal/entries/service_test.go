package entries

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"io.winapps.traveljournal/internal/metrics"
	entrymodels "io.winapps.traveljournal/internal/models/entry"
	"io.winapps.traveljournal/internal/repository"
	"io.winapps.traveljournal/internal/storage"
)

type fakeBlobs struct {
	mu        sync.Mutex
	n         int
	objects   map[string][]byte
	deleted   []string
	saveCalls int
	failSave  int // 1-based call that fails; 0 never
	deleteErr error
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{objects: map[string][]byte{}}
}

func (f *fakeBlobs) Save(_ context.Context, u storage.Upload) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saveCalls++
	if f.failSave == f.saveCalls {
		return "", errors.New("bucket unreachable")
	}
	f.n++
	url := fmt.Sprintf("/uploads/%d%s", f.n, storage.Ext(u.Name))
	f.objects[url] = u.Data
	return url, nil
}

func (f *fakeBlobs) Delete(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, url)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.objects[url]; !ok {
		return storage.ErrBlobNotFound
	}
	delete(f.objects, url)
	return nil
}

func (f *fakeBlobs) has(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[url]
	return ok
}

func (f *fakeBlobs) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

func newTestService(t *testing.T) (*Service, *fakeBlobs, *repository.MemoryEntries) {
	t.Helper()
	repo := repository.NewMemoryEntries()
	blobs := newFakeBlobs()
	svc := NewService(repo, blobs, storage.NewPolicy(0), zap.NewNop().Sugar())
	t.Cleanup(svc.Wait)
	return svc, blobs, repo
}

func images(names ...string) []storage.Upload {
	out := make([]storage.Upload, 0, len(names))
	for _, n := range names {
		out = append(out, storage.Upload{Name: n, ContentType: "image/jpeg", Data: []byte(n)})
	}
	return out
}

func ptr(s string) *string { return &s }

func createTrip(t *testing.T, svc *Service, owner string, files ...storage.Upload) *entrymodels.Entry {
	t.Helper()
	e, err := svc.Create(context.Background(), owner, CreateInput{Title: "Trip", Description: "Paris", Files: files})
	require.NoError(t, err)
	return e
}

func TestCreate_TripWithTwoImages(t *testing.T) {
	svc, blobs, _ := newTestService(t)

	e, err := svc.Create(context.Background(), "alice", CreateInput{
		Title:       "Trip",
		Description: "Paris",
		Location:    `{"lat":48.8566,"lng":2.3522}`,
		Files:       images("eiffel.jpg", "louvre.jpg"),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "alice", e.Owner)
	assert.False(t, e.Archived)
	require.Len(t, e.Media, 2)
	for _, m := range e.Media {
		assert.Equal(t, entrymodels.MediaImage, m.Kind)
		assert.True(t, blobs.has(m.URL))
	}
	assert.NotEqual(t, e.Media[0].URL, e.Media[1].URL)
	assert.Equal(t, &entrymodels.Location{Lat: 48.8566, Lng: 2.3522}, e.Location)
}

func TestCreate_Validation(t *testing.T) {
	svc, blobs, repo := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   CreateInput
	}{
		{"missing title", CreateInput{Description: "Paris"}},
		{"blank description", CreateInput{Title: "Trip", Description: "   "}},
		{"malformed location", CreateInput{Title: "Trip", Description: "Paris", Location: "Paris"}},
		{"exe upload", CreateInput{Title: "Trip", Description: "Paris", Files: []storage.Upload{{Name: "setup.exe"}}}},
		{"oversized upload", CreateInput{Title: "Trip", Description: "Paris", Files: []storage.Upload{{Name: "a.png", Data: make([]byte, storage.DefaultMaxBytes+1)}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, "alice", tt.in)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	assert.Zero(t, blobs.count())
	all, err := repo.Find(ctx, repository.Filter{Owner: "alice"})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCreate_StorageFailureReleasesStoredBlobs(t *testing.T) {
	svc, blobs, repo := newTestService(t)
	blobs.failSave = 2

	_, err := svc.Create(context.Background(), "alice", CreateInput{Title: "Trip", Description: "Paris", Files: images("a.jpg", "b.jpg")})
	assert.ErrorIs(t, err, ErrStorage)
	assert.Zero(t, blobs.count())
	assert.Equal(t, []string{"/uploads/1.jpg"}, blobs.deleted)

	all, err := repo.Find(context.Background(), repository.Filter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestArchiveThenRestore_OnlyArchivedAndUpdatedAtDiffer(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	e := createTrip(t, svc, "alice", images("a.jpg")...)

	archived, err := svc.Archive(ctx, "alice", e.ID)
	require.NoError(t, err)
	assert.True(t, archived.Archived)
	require.NotNil(t, archived.ArchivedAt)

	again, err := svc.Archive(ctx, "alice", e.ID)
	require.NoError(t, err)
	assert.Equal(t, archived, again, "archive is idempotent")

	restored, err := svc.Restore(ctx, "alice", e.ID)
	require.NoError(t, err)
	assert.False(t, restored.Archived)
	assert.Nil(t, restored.ArchivedAt)
	assert.True(t, restored.UpdatedAt.After(e.UpdatedAt))

	restoredAgain, err := svc.Restore(ctx, "alice", e.ID)
	require.NoError(t, err)
	assert.Equal(t, restored, restoredAgain, "restore is idempotent")

	want := *e
	want.UpdatedAt = restored.UpdatedAt
	assert.Equal(t, &want, restored)
}

func TestUpdate_ArchivedEntryStaysArchived(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	e := createTrip(t, svc, "alice")

	_, err := svc.Archive(ctx, "alice", e.ID)
	require.NoError(t, err)

	updated, err := svc.Update(ctx, "alice", e.ID, UpdateInput{Title: ptr("Trip to Paris")})
	require.NoError(t, err)
	assert.Equal(t, "Trip to Paris", updated.Title)
	assert.Equal(t, "Paris", updated.Description)
	assert.True(t, updated.Archived)

	archived, err := svc.ListArchived(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, archived, 1)
	assert.Equal(t, "Trip to Paris", archived[0].Title)
}

func TestUpdate_Location(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	e := createTrip(t, svc, "alice")

	updated, err := svc.Update(ctx, "alice", e.ID, UpdateInput{Location: ptr(`{"lat":1,"lng":2}`)})
	require.NoError(t, err)
	assert.Equal(t, &entrymodels.Location{Lat: 1, Lng: 2}, updated.Location)

	updated, err = svc.Update(ctx, "alice", e.ID, UpdateInput{Location: ptr("Montmartre, Paris")})
	require.NoError(t, err)
	require.NotNil(t, updated.Location)
	assert.Equal(t, "Montmartre, Paris", updated.Location.Raw)

	updated, err = svc.Update(ctx, "alice", e.ID, UpdateInput{Location: ptr("")})
	require.NoError(t, err)
	assert.Nil(t, updated.Location)
}

func TestUpdate_RejectsEmptyFieldsAndForeignOwner(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	e := createTrip(t, svc, "alice")

	_, err := svc.Update(ctx, "alice", e.ID, UpdateInput{Title: ptr("")})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Update(ctx, "bob", e.ID, UpdateInput{Title: ptr("mine now")})
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := svc.Get(ctx, "alice", e.ID)
	require.NoError(t, err)
	assert.Equal(t, "Trip", got.Title)
}

func TestPermanentlyDelete_ActiveEntryIsNotFound(t *testing.T) {
	svc, blobs, _ := newTestService(t)
	ctx := context.Background()
	e := createTrip(t, svc, "alice", images("a.jpg")...)

	err := svc.PermanentlyDelete(ctx, "alice", e.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	active, err := svc.ListActive(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, e.ID, active[0].ID)
	assert.True(t, blobs.has(e.Media[0].URL))
}

func TestPermanentlyDelete_ArchivedEntryCascades(t *testing.T) {
	svc, blobs, _ := newTestService(t)
	ctx := context.Background()
	e := createTrip(t, svc, "alice", images("a.jpg", "b.jpg")...)

	_, err := svc.Archive(ctx, "alice", e.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.PermanentlyDelete(ctx, "bob", e.ID), ErrNotFound)
	require.NoError(t, svc.PermanentlyDelete(ctx, "alice", e.ID))

	_, err = svc.Get(ctx, "alice", e.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, blobs.count())
	assert.ErrorIs(t, svc.PermanentlyDelete(ctx, "alice", e.ID), ErrNotFound)
}

func TestPermanentlyDelete_BlobFailureDoesNotBlock(t *testing.T) {
	svc, blobs, _ := newTestService(t)
	ctx := context.Background()
	e := createTrip(t, svc, "alice", images("a.jpg")...)
	_, err := svc.Archive(ctx, "alice", e.ID)
	require.NoError(t, err)

	blobs.deleteErr = errors.New("disk gone")
	before := testutil.ToFloat64(metrics.OrphanedBlobs)

	require.NoError(t, svc.PermanentlyDelete(ctx, "alice", e.ID))
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.OrphanedBlobs))
	assert.True(t, blobs.has(e.Media[0].URL), "orphan stays behind")
}

func TestAttachMedia(t *testing.T) {
	svc, blobs, _ := newTestService(t)
	ctx := context.Background()
	e := createTrip(t, svc, "alice", images("a.jpg")...)

	added, err := svc.AttachMedia(ctx, "alice", e.ID, []storage.Upload{
		{Name: "clip.mp4", ContentType: "video/mp4"},
		{Name: "b.png"},
	})
	require.NoError(t, err)
	require.Len(t, added, 2)
	assert.Equal(t, entrymodels.MediaVideo, added[0].Kind)
	assert.Equal(t, entrymodels.MediaImage, added[1].Kind)

	got, err := svc.Get(ctx, "alice", e.ID)
	require.NoError(t, err)
	require.Len(t, got.Media, 3)
	assert.Equal(t, e.Media[0], got.Media[0])
	assert.Equal(t, added, got.Media[1:])
	assert.Equal(t, 3, blobs.count())
}

func TestAttachMedia_RejectsExeWithoutChange(t *testing.T) {
	svc, blobs, _ := newTestService(t)
	ctx := context.Background()
	e := createTrip(t, svc, "alice", images("a.jpg")...)

	_, err := svc.AttachMedia(ctx, "alice", e.ID, []storage.Upload{{Name: "b.png"}, {Name: "virus.exe"}})
	assert.ErrorIs(t, err, ErrValidation)
	assert.ErrorIs(t, err, storage.ErrUnsupportedType)

	got, err := svc.Get(ctx, "alice", e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.Media, got.Media)
	assert.Equal(t, 1, blobs.count())
}

func TestAttachMedia_StorageFailureAbortsAll(t *testing.T) {
	svc, blobs, _ := newTestService(t)
	ctx := context.Background()
	e := createTrip(t, svc, "alice")
	blobs.failSave = 2

	_, err := svc.AttachMedia(ctx, "alice", e.ID, images("a.jpg", "b.jpg"))
	assert.ErrorIs(t, err, ErrStorage)

	got, err := svc.Get(ctx, "alice", e.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Media)
	assert.Zero(t, blobs.count())
}

func TestAttachMedia_ForeignEntry(t *testing.T) {
	svc, blobs, _ := newTestService(t)
	e := createTrip(t, svc, "alice")

	_, err := svc.AttachMedia(context.Background(), "bob", e.ID, images("a.jpg"))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, blobs.count())

	_, err = svc.AttachMedia(context.Background(), "alice", e.ID, nil)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDetachMediaByID_RemovesExactlyOneInOrder(t *testing.T) {
	svc, blobs, _ := newTestService(t)
	ctx := context.Background()
	e := createTrip(t, svc, "alice", images("a.jpg", "b.jpg", "c.jpg")...)

	updated, err := svc.DetachMediaByID(ctx, "alice", e.ID, e.Media[1].ID)
	require.NoError(t, err)
	assert.Equal(t, []entrymodels.Media{e.Media[0], e.Media[2]}, updated.Media)

	svc.Wait()
	assert.False(t, blobs.has(e.Media[1].URL))
	assert.True(t, blobs.has(e.Media[0].URL))
	assert.True(t, blobs.has(e.Media[2].URL))
	assert.Equal(t, []string{e.Media[1].URL}, blobs.deleted)
}

func TestDetachMediaByURL(t *testing.T) {
	svc, blobs, _ := newTestService(t)
	ctx := context.Background()
	e := createTrip(t, svc, "alice", images("a.jpg", "b.jpg")...)

	updated, err := svc.DetachMediaByURL(ctx, "alice", e.ID, e.Media[0].URL)
	require.NoError(t, err)
	assert.Equal(t, []entrymodels.Media{e.Media[1]}, updated.Media)

	svc.Wait()
	assert.False(t, blobs.has(e.Media[0].URL))
}

func TestDetachMedia_Failures(t *testing.T) {
	svc, blobs, _ := newTestService(t)
	ctx := context.Background()
	e := createTrip(t, svc, "alice", images("a.jpg")...)

	_, err := svc.DetachMediaByID(ctx, "alice", e.ID, "missing")
	assert.ErrorIs(t, err, ErrMediaNotFound)

	_, err = svc.DetachMediaByID(ctx, "bob", e.ID, e.Media[0].ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.DetachMediaByURL(ctx, "alice", "no-such-entry", e.Media[0].URL)
	assert.ErrorIs(t, err, ErrNotFound)

	svc.Wait()
	assert.Empty(t, blobs.deleted)
}

func TestDetachMedia_BlobFailureStillSucceeds(t *testing.T) {
	svc, blobs, _ := newTestService(t)
	ctx := context.Background()
	e := createTrip(t, svc, "alice", images("a.jpg")...)
	blobs.deleteErr = errors.New("permission denied")

	updated, err := svc.DetachMediaByID(ctx, "alice", e.ID, e.Media[0].ID)
	require.NoError(t, err)
	assert.Empty(t, updated.Media)

	svc.Wait()
	assert.True(t, blobs.has(e.Media[0].URL))
}

func TestListsPartitionEntries(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 4; i++ {
		ids = append(ids, createTrip(t, svc, "alice").ID)
	}
	createTrip(t, svc, "bob")

	_, err := svc.Archive(ctx, "alice", ids[1])
	require.NoError(t, err)
	_, err = svc.Archive(ctx, "alice", ids[3])
	require.NoError(t, err)

	active, err := svc.ListActive(ctx, "alice")
	require.NoError(t, err)
	archived, err := svc.ListArchived(ctx, "alice")
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, e := range active {
		assert.False(t, e.Archived)
		assert.Equal(t, "alice", e.Owner)
		seen[e.ID] = true
	}
	for _, e := range archived {
		assert.True(t, e.Archived)
		assert.Equal(t, "alice", e.Owner)
		assert.False(t, seen[e.ID])
		seen[e.ID] = true
	}
	assert.Len(t, seen, len(ids))
	for _, id := range ids {
		assert.True(t, seen[id])
	}

	require.Len(t, active, 2)
	assert.Equal(t, ids[2], active[0].ID, "newest first")
	assert.Equal(t, ids[0], active[1].ID)
}

func TestPurgeArchived(t *testing.T) {
	svc, blobs, _ := newTestService(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	old := createTrip(t, svc, "alice", images("old.jpg")...)
	recent := createTrip(t, svc, "bob")
	active := createTrip(t, svc, "alice")

	svc.now = func() time.Time { return base }
	_, err := svc.Archive(ctx, "alice", old.ID)
	require.NoError(t, err)
	svc.now = func() time.Time { return base.Add(20 * 24 * time.Hour) }
	_, err = svc.Archive(ctx, "bob", recent.ID)
	require.NoError(t, err)

	n, err := svc.PurgeArchived(ctx, base.Add(10*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = svc.Get(ctx, "alice", old.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Get(ctx, "bob", recent.ID)
	assert.NoError(t, err)
	_, err = svc.Get(ctx, "alice", active.ID)
	assert.NoError(t, err)
	assert.False(t, blobs.has(old.Media[0].URL))
}

func TestEmptyOwnerReachesNothing(t *testing.T) {
	svc, blobs, _ := newTestService(t)
	ctx := context.Background()
	e := createTrip(t, svc, "alice", images("a.jpg")...)

	_, err := svc.Get(ctx, "", e.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Update(ctx, "", e.ID, UpdateInput{Title: ptr("Stolen")})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Archive(ctx, "", e.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.AttachMedia(ctx, "", e.ID, images("b.jpg"))
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.DetachMediaByID(ctx, "", e.ID, e.Media[0].ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.DetachMediaByURL(ctx, "", e.ID, e.Media[0].URL)
	assert.ErrorIs(t, err, ErrNotFound)

	active, err := svc.ListActive(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, active)

	_, err = svc.Create(ctx, "", CreateInput{Title: "Trip", Description: "Paris"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Archive(ctx, "alice", e.ID)
	require.NoError(t, err)
	_, err = svc.Restore(ctx, "", e.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	archived, err := svc.ListArchived(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, archived)
	assert.ErrorIs(t, svc.PermanentlyDelete(ctx, "", e.ID), ErrNotFound)

	got, err := svc.Get(ctx, "alice", e.ID)
	require.NoError(t, err)
	assert.Equal(t, "Trip", got.Title)
	assert.True(t, got.Archived)
	assert.Len(t, got.Media, 1)
	assert.Equal(t, 1, blobs.count())
}

// brokenWrites fails every Create and Save while reads still work.
type brokenWrites struct {
	repository.EntryRepository
}

var errDBDown = errors.New("db down")

func (brokenWrites) Create(context.Context, *entrymodels.Entry) (*entrymodels.Entry, error) {
	return nil, errDBDown
}

func (brokenWrites) Save(context.Context, *entrymodels.Entry) (*entrymodels.Entry, error) {
	return nil, errDBDown
}

func TestCreate_WriteFailureReleasesStoredBlobs(t *testing.T) {
	blobs := newFakeBlobs()
	svc := NewService(brokenWrites{repository.NewMemoryEntries()}, blobs, storage.NewPolicy(0), zap.NewNop().Sugar())
	t.Cleanup(svc.Wait)

	_, err := svc.Create(context.Background(), "alice", CreateInput{
		Title:       "Trip",
		Description: "Paris",
		Files:       images("a.jpg", "b.jpg"),
	})
	require.ErrorIs(t, err, errDBDown)

	assert.Equal(t, 0, blobs.count())
	assert.ElementsMatch(t, []string{"/uploads/1.jpg", "/uploads/2.jpg"}, blobs.deleted)
}

func TestAttachMedia_WriteFailureReleasesStoredBlobs(t *testing.T) {
	repo := repository.NewMemoryEntries()
	blobs := newFakeBlobs()
	ctx := context.Background()

	seed := NewService(repo, blobs, storage.NewPolicy(0), zap.NewNop().Sugar())
	e := createTrip(t, seed, "alice")

	svc := NewService(brokenWrites{repo}, blobs, storage.NewPolicy(0), zap.NewNop().Sugar())
	t.Cleanup(svc.Wait)

	added, err := svc.AttachMedia(ctx, "alice", e.ID, images("a.jpg", "b.jpg"))
	require.ErrorIs(t, err, errDBDown)
	assert.Nil(t, added)

	got, err := svc.Get(ctx, "alice", e.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Media)
	assert.Equal(t, 0, blobs.count())
	assert.ElementsMatch(t, []string{"/uploads/1.jpg", "/uploads/2.jpg"}, blobs.deleted)
}
