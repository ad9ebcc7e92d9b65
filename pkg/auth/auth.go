// Package auth guards the catalog behind a single configured account and
// issues HS256 session tokens for it.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials is returned when email or password do not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken is returned for malformed, expired or foreign tokens.
	ErrInvalidToken = errors.New("invalid token")
)

// Authenticator checks a login attempt.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) error
}

// StaticAuthenticator accepts exactly one account. Only the bcrypt hash of
// its password is kept in memory.
type StaticAuthenticator struct {
	email string
	hash  []byte
}

// NewStaticAuthenticator hashes password with cost (bcrypt.DefaultCost when
// cost <= 0).
func NewStaticAuthenticator(email, password string, cost int) (*StaticAuthenticator, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("auth: email and password are required")
	}
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}
	return &StaticAuthenticator{email: email, hash: hash}, nil
}

// Authenticate returns ErrInvalidCredentials unless both values match.
// Emails compare case-insensitively.
func (a *StaticAuthenticator) Authenticate(_ context.Context, email, password string) error {
	if normalizeEmail(email) != a.email {
		return ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(a.hash, []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// Email returns the configured account.
func (a *StaticAuthenticator) Email() string {
	return a.email
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
