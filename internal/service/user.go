package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/stridelab/pacequest/internal/model"
	"github.com/stridelab/pacequest/internal/repository"
)

// Users exposes profile reads and first-contact provisioning. All stat
// mutation goes through the Ledger; this service never writes XP.
type Users struct {
	repo repository.UserRepository
}

func NewUsers(repo repository.UserRepository) *Users {
	return &Users{repo: repo}
}

// Ensure returns the user's profile, creating an empty one on first
// contact.
func (s *Users) Ensure(userID, displayName string) (*model.User, error) {
	user, err := s.repo.ByID(userID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}

	now := time.Now()
	user = &model.User{
		ID:          userID,
		DisplayName: displayName,
		Level:       1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err = s.repo.Create(user)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// ByID loads a profile.
func (s *Users) ByID(userID string) (*model.User, error) {
	user, err := s.repo.ByID(userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("%w: user %s", ErrDataUnavailable, userID)
	}
	return user, err
}

// ActivityCounts returns per-type lifetime activity counts.
func (s *Users) ActivityCounts(userID string) (map[model.ActivityType]int, error) {
	return s.repo.ActivityCounts(userID)
}
