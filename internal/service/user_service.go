package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/artisans-echo/artwork-service/internal/access"
	"github.com/artisans-echo/artwork-service/internal/apperr"
	"github.com/artisans-echo/artwork-service/internal/events"
	"github.com/artisans-echo/artwork-service/internal/logger"
	"github.com/artisans-echo/artwork-service/internal/models"
	"github.com/artisans-echo/artwork-service/internal/repository"
	"github.com/sirupsen/logrus"
)

// UserService creates profiles on first login
type UserService struct {
	users  UserStore
	guard  *access.Guard
	logger *logrus.Logger
	notifier
}

func NewUserService(users UserStore, guard *access.Guard, publisher events.Publisher, logger *logrus.Logger) *UserService {
	return &UserService{
		users:    users,
		guard:    guard,
		logger:   logger,
		notifier: notifier{publisher: publisher, logger: logger},
	}
}

// CreateOrFetch returns the profile for the acting user, creating it if it
// does not exist yet. Existing profiles are never modified.
func (s *UserService) CreateOrFetch(ctx context.Context, identity string, req *models.CreateUserRequest) (*models.User, bool, error) {
	email, err := resolveActor(s.guard, identity, req.Email, "email")
	if err != nil {
		return nil, false, err
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, false, storeFailure(err, "failed to load user")
	}

	user := &models.User{
		Email:     email,
		Name:      strings.TrimSpace(req.Name),
		PhotoURL:  strings.TrimSpace(req.PhotoURL),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.users.Insert(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserAlreadyExists) {
			// Lost a race with a concurrent first login.
			existing, err := s.users.FindByEmail(ctx, email)
			if err != nil {
				return nil, false, storeFailure(err, "failed to load user")
			}
			return existing, false, nil
		}
		return nil, false, storeFailure(err, "failed to create user")
	}

	logger.WithUserEmail(s.logger, email).Info("User registered")
	s.publish(ctx, events.NewArtworkEvent(events.EventUserRegistered, "", email))
	return user, true, nil
}

// Get returns a profile by email.
func (s *UserService) Get(ctx context.Context, email string) (*models.User, error) {
	user, err := s.users.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, storeFailure(err, "failed to load user")
	}
	return user, nil
}
