package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"jigsaw-online/internal/auth"
	"jigsaw-online/internal/model"
	"jigsaw-online/internal/repository"

	"github.com/google/uuid"
)

type Service struct {
	repo repository.Repository
}

func NewService(repo repository.Repository) *Service {
	return &Service{repo: repo}
}

// CreateUser creates a new user together with an empty profile
func (s *Service) CreateUser(ctx context.Context, req auth.SignUpRequest) (*model.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, auth.ErrInvalidCredentials
	}

	// Check if user already exists
	_, err := s.repo.GetUserByEmail(ctx, email)
	if err == nil {
		return nil, auth.ErrUserExists
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hashedPassword,
		CreatedAt:    time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		displayName = model.DisplayNameFromEmail(email)
	}
	if err := s.repo.CreateProfile(ctx, &model.Profile{UserID: user.ID, DisplayName: displayName}); err != nil {
		// keep users and profiles one to one
		_ = s.repo.DeleteUser(ctx, user.ID)
		return nil, err
	}

	return user, nil
}

// GetUserByEmail retrieves a user by email
func (s *Service) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := s.repo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, auth.ErrUserNotFound
	}
	return user, err
}

// GetUserByID retrieves a user by ID
func (s *Service) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, auth.ErrUserNotFound
	}
	return user, err
}

// GetProfile returns the profile of a user
func (s *Service) GetProfile(ctx context.Context, id string) (*model.Profile, error) {
	profile, err := s.repo.GetProfile(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, auth.ErrUserNotFound
	}
	return profile, err
}

// ValidateCredentials validates user credentials
func (s *Service) ValidateCredentials(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, auth.ErrInvalidCredentials
	}

	if !auth.CheckPasswordHash(password, user.PasswordHash) {
		return nil, auth.ErrInvalidCredentials
	}

	return user, nil
}
