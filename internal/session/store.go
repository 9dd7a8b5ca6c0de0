// Package session provides the per-visitor session used by the contact form.
//
// A Session carries the anti-forgery token with its expiry, the sender's
// last-known email (display only) and, when the host platform has logged the
// visitor in, the customer id. Sessions are loaded and saved explicitly by the
// HTTP layer and passed to services as a plain value; nothing in this package
// reads ambient request state.
//
// Two Store implementations are provided:
//   - MemoryStore: process-local, suitable for a single instance and tests.
//   - RedisStore:  shared across instances, backed by go-redis.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"
)

// ErrNotFound is returned by Store.Load when the id is unknown or expired.
var ErrNotFound = errors.New("session not found")

// Session is the mutable state bound to one visitor.
type Session struct {
	ID string `json:"id"`

	// Anti-forgery token and the instant it stops being accepted.
	Token          string    `json:"token,omitempty"`
	TokenExpiresAt time.Time `json:"token_expires_at,omitempty"`

	// Email is the last address the visitor submitted with; display only.
	Email string `json:"email,omitempty"`

	// CustomerID is set by the host platform for logged-in customers.
	CustomerID uint `json:"customer_id,omitempty"`

	dirty bool
}

// New returns an empty session with a fresh random id.
func New() *Session {
	return &Session{ID: NewID(), dirty: true}
}

// SetToken replaces the anti-forgery token and marks the session dirty.
func (s *Session) SetToken(token string, expiresAt time.Time) {
	s.Token = token
	s.TokenExpiresAt = expiresAt
	s.dirty = true
}

// SetEmail records the visitor's last submitted address.
func (s *Session) SetEmail(email string) {
	if s.Email != email {
		s.Email = email
		s.dirty = true
	}
}

// SetCustomerID binds the session to a logged-in customer.
func (s *Session) SetCustomerID(id uint) {
	if s.CustomerID != id {
		s.CustomerID = id
		s.dirty = true
	}
}

// Dirty reports whether the session changed since it was loaded.
func (s *Session) Dirty() bool { return s.dirty }

// markClean is called by stores after a successful save or load.
func (s *Session) markClean() { s.dirty = false }

// Store persists sessions by id. Implementations must be safe for
// concurrent use.
type Store interface {
	// Load returns the session for id or ErrNotFound.
	Load(ctx context.Context, id string) (*Session, error)
	// Save writes s and refreshes its idle lifetime.
	Save(ctx context.Context, s *Session) error
	// Delete removes the session; deleting an unknown id is not an error.
	Delete(ctx context.Context, id string) error
}

// NewID returns a 32-char hex id from 16 random bytes.
func NewID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand never fails on supported platforms.
		panic(err)
	}
	return hex.EncodeToString(b[:])
}

// ValidID reports whether id looks like an id produced by NewID. Cookies
// carrying anything else are ignored.
func ValidID(id string) bool {
	if len(id) != 32 {
		return false
	}
	_, err := hex.DecodeString(id)
	return err == nil
}
