// Package services – UserService
//
// This file implements profile reads and updates plus account deletion.
// Deleting an account removes the user's analysis records in the same
// transaction (the FK constraint provides the same cascade at the database
// level; the explicit delete also covers soft-deleted stores).
package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/tbourn/go-sentiment-backend/internal/domain"
	"github.com/tbourn/go-sentiment-backend/internal/repo"
)

// nameMaxRunes caps display names, matching the registration contract.
const nameMaxRunes = 100

// profileUsernameRE matches the allowed username shape on profile updates.
var profileUsernameRE = regexp.MustCompile(`^[A-Za-z0-9_]{3,30}$`)

// UserService implements the profile and account-lifecycle use-cases.
type UserService struct {
	// DB is the database handle used for all profile operations.
	DB *gorm.DB
}

// Profile returns the account for userID. A missing account yields
// ErrUserNotFound; any other storage error is propagated unchanged.
func (s *UserService) Profile(ctx context.Context, userID string) (*domain.User, error) {
	u, err := repo.GetUser(ctx, s.DB, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// UpdateProfile changes the display name and/or username of userID. Empty
// arguments keep the current value. Username changes are validated and
// checked for uniqueness against other accounts.
func (s *UserService) UpdateProfile(ctx context.Context, userID, name, username string) (*domain.User, error) {
	u, err := repo.GetUser(ctx, s.DB, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = u.Name
	} else if utf8.RuneCountInString(name) > nameMaxRunes {
		name = string([]rune(name)[:nameMaxRunes])
	}

	username = strings.TrimSpace(username)
	if username == "" {
		username = u.Username
	} else if username != u.Username {
		if !profileUsernameRE.MatchString(username) {
			return nil, ErrInvalidUsername
		}
		taken, err := repo.UsernameTaken(ctx, s.DB, username, userID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrUsernameTaken
		}
	}

	if err := repo.UpdateUserProfile(ctx, s.DB, userID, name, username); err != nil {
		return nil, err
	}
	u.Name = name
	u.Username = username
	return u, nil
}

// DeleteAccount removes the account and all of its analysis records
// atomically. Missing accounts yield ErrUserNotFound.
func (s *UserService) DeleteAccount(ctx context.Context, userID string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.DeleteAnalysesByUser(ctx, tx, userID); err != nil {
			return err
		}
		if err := repo.DeleteUser(ctx, tx, userID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		return nil
	})
}
