package services

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"time"

	"github.com/google/uuid"

	"github.com/tbourn/go-contactform/internal/session"
)

// DefaultTokenTTL is how long an anti-forgery token stays valid.
const DefaultTokenTTL = 10 * time.Minute

// TokenGuard issues and checks the per-session anti-forgery token.
type TokenGuard struct {
	TTL time.Duration
	Now func() time.Time
}

func (g *TokenGuard) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now()
}

func (g *TokenGuard) ttl() time.Duration {
	if g.TTL > 0 {
		return g.TTL
	}
	return DefaultTokenTTL
}

// Issue stores a fresh token in sess and returns it.
func (g *TokenGuard) Issue(sess *session.Session) string {
	sum := sha256.Sum256([]byte(uuid.NewString()))
	tok := hex.EncodeToString(sum[:])
	sess.SetToken(tok, g.now().Add(g.ttl()))
	return tok
}

// Ensure issues a token only when sess has none or it has expired, so a
// token rendered into a page stays valid until used.
func (g *TokenGuard) Ensure(sess *session.Session) string {
	if sess.Token == "" || !g.now().Before(sess.TokenExpiresAt) {
		return g.Issue(sess)
	}
	return sess.Token
}

// Validate reports whether submitted matches the live token in sess and the
// honeypot is empty. It fails closed.
func (g *TokenGuard) Validate(sess *session.Session, submitted, honeypot string) bool {
	if honeypot != "" {
		return false
	}
	if sess == nil || sess.Token == "" || submitted == "" {
		return false
	}
	if subtle.ConstantTimeCompare([]byte(sess.Token), []byte(submitted)) != 1 {
		return false
	}
	return g.now().Before(sess.TokenExpiresAt)
}
