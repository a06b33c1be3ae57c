// Package services – AuthService
//
// This file implements account registration, login, and password changes.
// Validation mirrors the public API contract (username 3-30 word characters,
// parseable email, password with minimum complexity); uniqueness is checked
// up front so handlers get stable sentinel errors instead of raw constraint
// violations. Login failures are uniform: an unknown email and a wrong
// password both yield ErrInvalidCredentials.
package services

import (
	"context"
	"errors"
	"net/mail"
	"regexp"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/go-sentiment-backend/internal/auth"
	"github.com/tbourn/go-sentiment-backend/internal/domain"
	"github.com/tbourn/go-sentiment-backend/internal/repo"
)

// usernameRE matches 3-30 letters, digits, or underscores.
var usernameRE = regexp.MustCompile(`^[A-Za-z0-9_]{3,30}$`)

// AuthService implements the account use-cases. It is context-aware and
// safe for concurrent use; each call operates on the provided GORM handle.
type AuthService struct {
	// DB is the database handle used for all account operations.
	DB *gorm.DB
	// Tokens issues and verifies the bearer tokens returned on success.
	Tokens *auth.Manager
}

// Register creates an account and returns it together with a signed token.
//
// Validation order: username shape, email parseability, password strength,
// then uniqueness of email and username. The password is stored only as a
// bcrypt hash.
func (s *AuthService) Register(ctx context.Context, username, email, password, name string) (*domain.User, string, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)

	if !usernameRE.MatchString(username) {
		return nil, "", ErrInvalidUsername
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, "", ErrInvalidEmail
	}
	if !strongPassword(password) {
		return nil, "", ErrWeakPassword
	}

	if taken, err := repo.EmailTaken(ctx, s.DB, email); err != nil {
		return nil, "", err
	} else if taken {
		return nil, "", ErrEmailTaken
	}
	if taken, err := repo.UsernameTaken(ctx, s.DB, username, ""); err != nil {
		return nil, "", err
	} else if taken {
		return nil, "", ErrUsernameTaken
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, "", err
	}
	u, err := repo.CreateUser(ctx, s.DB, username, email, name, hash)
	if err != nil {
		return nil, "", err
	}

	token, err := s.Tokens.Issue(u.ID)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// Login verifies credentials and returns the account with a fresh token.
// Unknown email and wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	u, err := repo.GetUserByEmail(ctx, s.DB, email)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", err
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.Tokens.Issue(u.ID)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// ChangePassword replaces the password of userID after verifying the current
// one. The new password must satisfy the same strength policy as Register.
func (s *AuthService) ChangePassword(ctx context.Context, userID, current, next string) error {
	u, err := repo.GetUser(ctx, s.DB, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return err
	}
	if !auth.CheckPassword(u.PasswordHash, current) {
		return ErrWrongPassword
	}
	if !strongPassword(next) {
		return ErrWeakPassword
	}

	hash, err := auth.HashPassword(next)
	if err != nil {
		return err
	}
	return repo.UpdateUserPassword(ctx, s.DB, userID, hash)
}

// strongPassword enforces the minimum policy: 8+ characters containing at
// least one lower-case letter, one upper-case letter, and one digit.
func strongPassword(p string) bool {
	if len(p) < 8 {
		return false
	}
	var lower, upper, digit bool
	for _, r := range p {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		}
	}
	return lower && upper && digit
}
