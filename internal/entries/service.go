package entries

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"io.winapps.traveljournal/internal/media"
	"io.winapps.traveljournal/internal/metrics"
	entrymodels "io.winapps.traveljournal/internal/models/entry"
	"io.winapps.traveljournal/internal/repository"
	"io.winapps.traveljournal/internal/storage"
)

var (
	ErrValidation    = errors.New("validation failed")
	ErrNotFound      = errors.New("entry not found")
	ErrMediaNotFound = errors.New("media not found")
	ErrStorage       = errors.New("blob storage failure")
)

type CreateInput struct {
	Title       string
	Description string
	// Location is the raw client value; empty means none.
	Location string
	Files    []storage.Upload
}

// UpdateInput is partial: nil fields are left alone.
type UpdateInput struct {
	Title       *string
	Description *string
	Location    *string
}

// Service runs the entry lifecycle. Every lookup of a single entry is scoped
// by owner, so entries of other users behave as if they did not exist.
type Service struct {
	repo   repository.EntryRepository
	blobs  storage.Store
	policy storage.Policy
	logger *zap.SugaredLogger
	now    func() time.Time

	releases sync.WaitGroup
}

func NewService(repo repository.EntryRepository, blobs storage.Store, policy storage.Policy, logger *zap.SugaredLogger) *Service {
	return &Service{
		repo:   repo,
		blobs:  blobs,
		policy: policy,
		logger: logger,
		now:    time.Now,
	}
}

// Wait blocks until background blob releases have finished.
func (s *Service) Wait() {
	s.releases.Wait()
}

func (s *Service) Create(ctx context.Context, owner string, in CreateInput) (*entrymodels.Entry, error) {
	if owner == "" {
		return nil, fmt.Errorf("%w: owner is required", ErrValidation)
	}
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Description) == "" {
		return nil, fmt.Errorf("%w: title and description are required", ErrValidation)
	}
	loc, err := entrymodels.ParseLocation(in.Location)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if err := s.checkAll(in.Files); err != nil {
		return nil, err
	}

	stored, err := s.storeAll(ctx, in.Files)
	if err != nil {
		return nil, err
	}

	e := &entrymodels.Entry{
		Owner:       owner,
		Title:       in.Title,
		Description: in.Description,
		Location:    loc,
		Media:       []entrymodels.Media{},
	}
	media.Attach(e, stored)

	created, err := s.repo.Create(ctx, e)
	if err != nil {
		s.discard(ctx, stored)
		return nil, fmt.Errorf("create entry: %w", err)
	}

	metrics.EntryTransitions.WithLabelValues("create").Inc()
	s.logger.Infow("entry created", "entry_id", created.ID, "owner", owner, "media", len(created.Media))
	return created, nil
}

func (s *Service) Get(ctx context.Context, owner, id string) (*entrymodels.Entry, error) {
	return s.load(ctx, repository.Filter{ID: id, Owner: owner})
}

func (s *Service) ListActive(ctx context.Context, owner string) ([]*entrymodels.Entry, error) {
	return s.list(ctx, owner, false)
}

func (s *Service) ListArchived(ctx context.Context, owner string) ([]*entrymodels.Entry, error) {
	return s.list(ctx, owner, true)
}

func (s *Service) list(ctx context.Context, owner string, archived bool) ([]*entrymodels.Entry, error) {
	if owner == "" {
		return []*entrymodels.Entry{}, nil
	}
	out, err := s.repo.Find(ctx, repository.Filter{Owner: owner, Archived: repository.Bool(archived)})
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return out, nil
}

// Update applies the supplied fields in either state. A location that does
// not parse as {lat,lng} is kept verbatim.
func (s *Service) Update(ctx context.Context, owner, id string, in UpdateInput) (*entrymodels.Entry, error) {
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return nil, fmt.Errorf("%w: title must not be empty", ErrValidation)
	}
	if in.Description != nil && strings.TrimSpace(*in.Description) == "" {
		return nil, fmt.Errorf("%w: description must not be empty", ErrValidation)
	}

	e, err := s.load(ctx, repository.Filter{ID: id, Owner: owner})
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		e.Title = *in.Title
	}
	if in.Description != nil {
		e.Description = *in.Description
	}
	if in.Location != nil {
		e.Location = entrymodels.ParseLocationLenient(*in.Location)
	}

	saved, err := s.save(ctx, e)
	if err != nil {
		return nil, err
	}
	metrics.EntryTransitions.WithLabelValues("update").Inc()
	return saved, nil
}

// Archive is idempotent: archiving an archived entry changes nothing.
func (s *Service) Archive(ctx context.Context, owner, id string) (*entrymodels.Entry, error) {
	e, err := s.load(ctx, repository.Filter{ID: id, Owner: owner})
	if err != nil {
		return nil, err
	}
	if e.Archived {
		return e, nil
	}

	at := s.now().UTC()
	e.Archived = true
	e.ArchivedAt = &at

	saved, err := s.save(ctx, e)
	if err != nil {
		return nil, err
	}
	metrics.EntryTransitions.WithLabelValues("archive").Inc()
	return saved, nil
}

// Restore is idempotent: restoring an active entry changes nothing.
func (s *Service) Restore(ctx context.Context, owner, id string) (*entrymodels.Entry, error) {
	e, err := s.load(ctx, repository.Filter{ID: id, Owner: owner})
	if err != nil {
		return nil, err
	}
	if !e.Archived {
		return e, nil
	}

	e.Archived = false
	e.ArchivedAt = nil

	saved, err := s.save(ctx, e)
	if err != nil {
		return nil, err
	}
	metrics.EntryTransitions.WithLabelValues("restore").Inc()
	return saved, nil
}

// PermanentlyDelete only reaches archived entries: the archived flag is part
// of the lookup predicate, so an active entry is not found. Blobs are removed
// best-effort before the record.
func (s *Service) PermanentlyDelete(ctx context.Context, owner, id string) error {
	filter := repository.Filter{ID: id, Owner: owner, Archived: repository.Bool(true)}
	e, err := s.load(ctx, filter)
	if err != nil {
		return err
	}

	for _, url := range media.URLs(e) {
		s.release(ctx, e.ID, url)
	}

	if err := s.repo.DeleteOne(ctx, filter); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete entry: %w", err)
	}

	metrics.EntryTransitions.WithLabelValues("delete").Inc()
	s.logger.Infow("entry permanently deleted", "entry_id", id, "owner", owner, "media", len(e.Media))
	return nil
}

// AttachMedia stores the files and appends references for them. If any file
// cannot be stored, or the entry cannot be saved afterwards, nothing is
// attached and the blobs stored by this call are released.
func (s *Service) AttachMedia(ctx context.Context, owner, id string, files []storage.Upload) ([]entrymodels.Media, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no file uploaded", ErrValidation)
	}
	if err := s.checkAll(files); err != nil {
		return nil, err
	}

	e, err := s.load(ctx, repository.Filter{ID: id, Owner: owner})
	if err != nil {
		return nil, err
	}

	stored, err := s.storeAll(ctx, files)
	if err != nil {
		return nil, err
	}
	added := media.Attach(e, stored)

	if _, err := s.save(ctx, e); err != nil {
		s.discard(ctx, stored)
		return nil, err
	}

	metrics.EntryTransitions.WithLabelValues("attach").Inc()
	return added, nil
}

// DetachMediaByID drops one reference and releases its blob in the background.
func (s *Service) DetachMediaByID(ctx context.Context, owner, id, mediaID string) (*entrymodels.Entry, error) {
	return s.detach(ctx, owner, id, func(e *entrymodels.Entry) (entrymodels.Media, bool) {
		return media.DetachByID(e, mediaID)
	})
}

// DetachMediaByURL drops the reference holding url and releases its blob in the background.
func (s *Service) DetachMediaByURL(ctx context.Context, owner, id, url string) (*entrymodels.Entry, error) {
	return s.detach(ctx, owner, id, func(e *entrymodels.Entry) (entrymodels.Media, bool) {
		return media.DetachByURL(e, url)
	})
}

func (s *Service) detach(ctx context.Context, owner, id string, remove func(*entrymodels.Entry) (entrymodels.Media, bool)) (*entrymodels.Entry, error) {
	e, err := s.load(ctx, repository.Filter{ID: id, Owner: owner})
	if err != nil {
		return nil, err
	}

	removed, ok := remove(e)
	if !ok {
		return nil, ErrMediaNotFound
	}

	saved, err := s.save(ctx, e)
	if err != nil {
		return nil, err
	}

	metrics.EntryTransitions.WithLabelValues("detach").Inc()
	s.releaseAsync(ctx, saved.ID, removed.URL)
	return saved, nil
}

// PurgeArchived permanently deletes every entry archived before cutoff.
// It keeps going past individual failures and reports them together.
func (s *Service) PurgeArchived(ctx context.Context, cutoff time.Time) (int, error) {
	expired, err := s.repo.Find(ctx, repository.Filter{Archived: repository.Bool(true), ArchivedBefore: &cutoff})
	if err != nil {
		return 0, fmt.Errorf("find expired entries: %w", err)
	}

	var (
		purged int
		errs   []error
	)
	for _, e := range expired {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := s.PermanentlyDelete(ctx, e.Owner, e.ID); err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			errs = append(errs, fmt.Errorf("purge %s: %w", e.ID, err))
			continue
		}
		purged++
	}
	return purged, errors.Join(errs...)
}

// load never runs without an owner: an empty Owner would match every user.
func (s *Service) load(ctx context.Context, f repository.Filter) (*entrymodels.Entry, error) {
	if f.Owner == "" || f.ID == "" {
		return nil, ErrNotFound
	}
	e, err := s.repo.FindOne(ctx, f)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load entry: %w", err)
	}
	return e, nil
}

func (s *Service) save(ctx context.Context, e *entrymodels.Entry) (*entrymodels.Entry, error) {
	saved, err := s.repo.Save(ctx, e)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("save entry: %w", err)
	}
	return saved, nil
}

func (s *Service) checkAll(files []storage.Upload) error {
	for _, f := range files {
		if err := s.policy.Check(f); err != nil {
			return fmt.Errorf("%w: %w", ErrValidation, err)
		}
	}
	return nil
}

// storeAll saves files in order. On the first failure the files already
// saved by this call are released and ErrStorage is returned.
func (s *Service) storeAll(ctx context.Context, files []storage.Upload) ([]media.Stored, error) {
	stored := make([]media.Stored, 0, len(files))
	for _, f := range files {
		url, err := s.blobs.Save(ctx, f)
		if err != nil {
			s.discard(ctx, stored)
			if errors.Is(err, storage.ErrRejected) {
				return nil, fmt.Errorf("%w: %w", ErrValidation, err)
			}
			return nil, fmt.Errorf("%w: store %q: %w", ErrStorage, f.Name, err)
		}
		stored = append(stored, media.Stored{URL: url, Name: f.Name, ContentType: f.ContentType})
	}
	return stored, nil
}

// discard releases blobs that never became referenced.
func (s *Service) discard(ctx context.Context, stored []media.Stored) {
	for _, st := range stored {
		s.release(ctx, "", st.URL)
	}
}

func (s *Service) releaseAsync(ctx context.Context, entryID, url string) {
	ctx = context.WithoutCancel(ctx)
	s.releases.Add(1)
	go func() {
		defer s.releases.Done()
		s.release(ctx, entryID, url)
	}()
}

// release deletes one blob. Failures are logged and counted, never returned:
// the reference is already gone, or is about to be.
func (s *Service) release(ctx context.Context, entryID, url string) {
	err := s.blobs.Delete(ctx, url)
	switch {
	case err == nil:
		return
	case errors.Is(err, storage.ErrBlobNotFound):
		s.logger.Infow("blob already gone", "entry_id", entryID, "url", url, "backend", storage.BackendFor(url))
	default:
		metrics.OrphanedBlobs.Inc()
		s.logger.Warnw("blob delete failed, leaving orphan",
			"entry_id", entryID,
			"url", url,
			"backend", storage.BackendFor(url),
			"error", err,
		)
	}
}
