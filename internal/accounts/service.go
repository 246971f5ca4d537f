package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"io.winapps.traveljournal/internal/auth"
	"io.winapps.traveljournal/internal/media"
	accountmodels "io.winapps.traveljournal/internal/models/account"
	entrymodels "io.winapps.traveljournal/internal/models/entry"
	"io.winapps.traveljournal/internal/repository"
	"io.winapps.traveljournal/internal/storage"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrEmailTaken         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotFound           = errors.New("user not found")
	ErrStorage            = errors.New("blob storage failure")
)

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// ProfileUpdate is partial: empty strings and a nil Avatar leave the field alone.
type ProfileUpdate struct {
	Name     string
	Email    string
	Password string
	Avatar   *storage.Upload
}

type Service struct {
	users  repository.UserRepository
	blobs  storage.Store
	policy storage.Policy
	logger *zap.SugaredLogger
}

func NewService(users repository.UserRepository, blobs storage.Store, policy storage.Policy, logger *zap.SugaredLogger) *Service {
	return &Service{users: users, blobs: blobs, policy: policy, logger: logger}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*accountmodels.User, error) {
	email := normalizeEmail(in.Email)
	if strings.TrimSpace(in.Name) == "" || email == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: name, email and password are required", ErrValidation)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u, err := s.users.Create(ctx, &accountmodels.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Infow("user registered", "user_id", u.ID)
	return u, nil
}

// Login reports ErrInvalidCredentials for both an unknown email and a wrong password.
func (s *Service) Login(ctx context.Context, email, password string) (*accountmodels.User, error) {
	u, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	ok, err := auth.CheckPassword(u.PasswordHash, password)
	if err != nil {
		return nil, fmt.Errorf("check password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (s *Service) Profile(ctx context.Context, id string) (*accountmodels.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}

func (s *Service) UpdateProfile(ctx context.Context, id string, in ProfileUpdate) (*accountmodels.User, error) {
	if in.Avatar != nil {
		if err := s.checkAvatar(*in.Avatar); err != nil {
			return nil, err
		}
	}

	u, err := s.Profile(ctx, id)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(in.Name); name != "" {
		u.Name = name
	}
	if email := normalizeEmail(in.Email); email != "" {
		u.Email = email
	}
	if in.Password != "" {
		hash, err := auth.HashPassword(in.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		u.PasswordHash = hash
	}

	if in.Avatar == nil {
		return s.save(ctx, u)
	}
	return s.replaceAvatar(ctx, u, *in.Avatar)
}

func (s *Service) UploadAvatar(ctx context.Context, id string, file storage.Upload) (*accountmodels.User, error) {
	if err := s.checkAvatar(file); err != nil {
		return nil, err
	}
	u, err := s.Profile(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.replaceAvatar(ctx, u, file)
}

func (s *Service) checkAvatar(file storage.Upload) error {
	if err := s.policy.Check(file); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if media.InferKind(file.Name, file.ContentType) != entrymodels.MediaImage {
		return fmt.Errorf("%w: profile picture must be an image", ErrValidation)
	}
	return nil
}

// replaceAvatar stores the new picture, saves u, then releases the previous
// picture. If the save fails the new blob is released instead.
func (s *Service) replaceAvatar(ctx context.Context, u *accountmodels.User, file storage.Upload) (*accountmodels.User, error) {
	url, err := s.blobs.Save(ctx, file)
	if err != nil {
		if errors.Is(err, storage.ErrRejected) {
			return nil, fmt.Errorf("%w: %w", ErrValidation, err)
		}
		return nil, fmt.Errorf("%w: store avatar: %w", ErrStorage, err)
	}

	previous := u.ProfilePic
	u.ProfilePic = url

	saved, err := s.save(ctx, u)
	if err != nil {
		s.release(ctx, u.ID, url)
		return nil, err
	}
	if previous != "" && previous != url {
		s.release(ctx, u.ID, previous)
	}
	return saved, nil
}

func (s *Service) save(ctx context.Context, u *accountmodels.User) (*accountmodels.User, error) {
	saved, err := s.users.Save(ctx, u)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, ErrEmailTaken
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("save user: %w", err)
	}
	return saved, nil
}

func (s *Service) release(ctx context.Context, userID, url string) {
	if storage.BackendFor(url) == "" {
		// not a locator any backend produced
		return
	}
	if err := s.blobs.Delete(ctx, url); err != nil && !errors.Is(err, storage.ErrBlobNotFound) {
		s.logger.Warnw("avatar delete failed, leaving orphan", "user_id", userID, "url", url, "error", err)
	}
}
