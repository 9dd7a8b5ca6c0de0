// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file binds a visitor session to each request. The session id travels
// in an HttpOnly cookie; the session itself lives in a session.Store (memory
// or Redis). Handlers read it with SessionFrom and mutate it freely; a changed
// or new session is written back once the handler chain returns.
package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-contactform/internal/session"
)

const sessionKey = "session"

// SessionOptions configures Sessions.
type SessionOptions struct {
	CookieName string
	TTL        time.Duration
	Secure     bool

	// CustomerHeader, when set, carries the logged-in customer id from a
	// trusted upstream. Its value (or absence) overrides the stored id.
	CustomerHeader string
}

// Sessions returns a middleware that loads the visitor session from its
// cookie, creating a new one when the cookie is missing, malformed or
// expired. Load failures other than "not found" are logged and also start a
// fresh session so the form stays usable.
func Sessions(store session.Store, opt SessionOptions) gin.HandlerFunc {
	if opt.CookieName == "" {
		opt.CookieName = "contactform_sid"
	}
	maxAge := int(opt.TTL.Seconds())

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		lg := LoggerFrom(c)

		var sess *session.Session
		if id, err := c.Cookie(opt.CookieName); err == nil && session.ValidID(id) {
			s, err := store.Load(ctx, id)
			switch {
			case err == nil:
				sess = s
			case !errors.Is(err, session.ErrNotFound):
				lg.Warn().Err(err).Msg("session load failed")
			}
		}
		if sess == nil {
			sess = session.New()
		}

		if opt.CustomerHeader != "" {
			sess.SetCustomerID(parseCustomerID(c.GetHeader(opt.CustomerHeader)))
		}

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(opt.CookieName, sess.ID, maxAge, "/", "", opt.Secure, true)
		c.Set(sessionKey, sess)

		c.Next()

		if sess.Dirty() {
			if err := store.Save(ctx, sess); err != nil {
				lg.Error().Err(err).Msg("session save failed")
			}
		}
	}
}

// SessionFrom returns the request's session. Without the Sessions middleware
// it returns a fresh, unsaved session so callers never see nil.
func SessionFrom(c *gin.Context) *session.Session {
	if v, ok := c.Get(sessionKey); ok {
		if s, ok := v.(*session.Session); ok {
			return s
		}
	}
	s := session.New()
	c.Set(sessionKey, s)
	return s
}

func parseCustomerID(v string) uint {
	n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return 0
	}
	return uint(n)
}
