// Package auth provides credential primitives for the HTTP API: stateless
// JWT bearer tokens and bcrypt password hashing. The HTTP middleware and
// the auth service compose these; nothing here touches the database.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for any token that fails parsing, signature
// verification, or expiry checks. Callers should not distinguish the causes
// in responses; the reason is logged server-side only.
var ErrInvalidToken = errors.New("invalid or expired token")

// Manager issues and verifies HS256-signed bearer tokens. The token subject
// carries the user ID; no other user data is embedded.
type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewManager constructs a Manager with the given signing secret and token
// lifetime. A non-positive ttl defaults to 7 days.
func NewManager(secret string, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Manager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue creates a signed token for userID, valid for the configured TTL.
func (m *Manager) Issue(userID string) (string, error) {
	now := m.now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(m.secret)
}

// Parse verifies a token string and returns the embedded user ID.
// Signature, algorithm, and expiry are all enforced; every failure maps to
// ErrInvalidToken.
func (m *Manager) Parse(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	tok, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return m.now() }),
	)
	if err != nil || !tok.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
