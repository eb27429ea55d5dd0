package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nexconsult/fgts-api/internal/models"
	"github.com/nexconsult/fgts-api/internal/repository"
	"github.com/sirupsen/logrus"
)

// UserService combines identity provider accounts with their profile roles
type UserService struct {
	identity IdentityProviderInterface
	profiles repository.ProfileRepository
	logger   *logrus.Logger
}

// NewUserService creates a new user service
func NewUserService(identity IdentityProviderInterface, profiles repository.ProfileRepository, logger *logrus.Logger) *UserService {
	return &UserService{
		identity: identity,
		profiles: profiles,
		logger:   logger,
	}
}

// Authenticate verifies a bearer token and loads the caller's role. Accounts
// without a profile get one with the user role.
func (s *UserService) Authenticate(ctx context.Context, accessToken string) (*models.User, error) {
	account, err := s.identity.VerifyToken(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	profile, err := s.profiles.Get(ctx, account.ID)
	if errors.Is(err, repository.ErrNotFound) {
		profile = &models.User{ID: account.ID, Email: account.Email, Role: models.RoleUser}
		if err := s.profiles.Upsert(ctx, profile); err != nil {
			return nil, fmt.Errorf("create profile: %w", err)
		}
		s.logger.WithField("user_id", account.ID).Info("Profile created on first login")
		return profile, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	if profile.Email == "" {
		profile.Email = account.Email
	}
	return profile, nil
}

// Create registers an account and its profile. The account is removed again
// when the profile cannot be stored.
func (s *UserService) Create(ctx context.Context, req models.CreateUserRequest) (*models.User, error) {
	role := strings.TrimSpace(req.Role)
	if !models.IsValidRole(role) {
		return nil, ErrInvalidRole
	}

	account, err := s.identity.CreateUser(ctx, strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{ID: account.ID, Email: account.Email, Role: role}
	if user.Email == "" {
		user.Email = strings.TrimSpace(req.Email)
	}

	if err := s.profiles.Upsert(ctx, user); err != nil {
		logger := s.logger.WithField("user_id", account.ID)
		logger.WithError(err).Error("Profile creation failed, removing identity user")
		if delErr := s.identity.DeleteUser(ctx, account.ID); delErr != nil {
			logger.WithError(delErr).Error("Identity user rollback failed")
		}
		return nil, fmt.Errorf("create profile: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": user.ID,
		"role":    user.Role,
	}).Info("User created")
	return user, nil
}

// List returns every profile
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	return s.profiles.List(ctx)
}

// Get returns one profile
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	return s.profiles.Get(ctx, id)
}

// UpdateRole changes a profile role
func (s *UserService) UpdateRole(ctx context.Context, id, role string) (*models.User, error) {
	role = strings.TrimSpace(role)
	if !models.IsValidRole(role) {
		return nil, ErrInvalidRole
	}

	user, err := s.profiles.UpdateRole(ctx, id, role)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": id,
		"role":    role,
	}).Info("User role updated")
	return user, nil
}

// Delete removes the profile and then the identity account
func (s *UserService) Delete(ctx context.Context, id string) error {
	profileErr := s.profiles.Delete(ctx, id)
	if profileErr != nil && !errors.Is(profileErr, repository.ErrNotFound) {
		return profileErr
	}

	if err := s.identity.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) && profileErr == nil {
			s.logger.WithField("user_id", id).Warn("Profile deleted without identity user")
			return nil
		}
		return err
	}

	s.logger.WithField("user_id", id).Info("User deleted")
	return nil
}

// Role returns the role of userID. Users may only read their own role unless
// they are admins.
func (s *UserService) Role(ctx context.Context, requester *models.User, userID string) (string, error) {
	if requester == nil {
		return "", ErrUnauthorized
	}
	if requester.ID != userID && !requester.IsAdmin() {
		return "", ErrForbidden
	}

	profile, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	return profile.Role, nil
}

// Health returns service health status
func (s *UserService) Health() map[string]interface{} {
	return s.identity.Health()
}
