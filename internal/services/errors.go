// Package services defines the business logic for sentiment analysis, user
// accounts, and authentication. This file centralizes common service-level
// error values so that they can be consistently returned by service methods
// and checked by callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler layer.
package services

import "errors"

// Analysis-related errors.
var (
	// ErrEmptyText is returned when an analysis request contains no text
	// after trimming whitespace. This is the only input failure the
	// orchestrator reports; oversized text is silently truncated instead.
	ErrEmptyText = errors.New("text is required for sentiment analysis")

	// ErrAnalysisNotFound indicates that the requested analysis record does
	// not exist or is not accessible to the current user.
	ErrAnalysisNotFound = errors.New("analysis not found")
)

// Account-related errors.
var (
	// ErrInvalidUsername is returned when a username is not 3-30 word
	// characters (letters, digits, underscore).
	ErrInvalidUsername = errors.New("username must be 3-30 letters, numbers, or underscores")

	// ErrInvalidEmail is returned when an email address fails parsing.
	ErrInvalidEmail = errors.New("invalid email address")

	// ErrWeakPassword is returned when a password is shorter than 8
	// characters or lacks an upper-case letter, lower-case letter, or digit.
	ErrWeakPassword = errors.New("password must be at least 8 characters with upper, lower, and digit")

	// ErrEmailTaken is returned when registering with an email that already
	// has an account.
	ErrEmailTaken = errors.New("email already registered")

	// ErrUsernameTaken is returned when the requested username belongs to
	// another account.
	ErrUsernameTaken = errors.New("username already taken")

	// ErrInvalidCredentials is returned on login when the email is unknown
	// or the password does not match. The two cases are deliberately
	// indistinguishable to callers.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrWrongPassword is returned by ChangePassword when the supplied
	// current password does not match the stored hash.
	ErrWrongPassword = errors.New("current password is incorrect")

	// ErrUserNotFound indicates that the requested account does not exist.
	ErrUserNotFound = errors.New("user not found")
)
