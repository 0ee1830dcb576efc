package auth

import (
	"crypto/sha256"
	"net/http"

	"github.com/gorilla/sessions"
)

// SessionName is the name of the browser session cookie.
const SessionName = "dealdesk-session"

// SessionKeyToken is the session value key holding the access token.
const SessionKeyToken = "token"

// SessionStore wraps the cookie-based session store that keeps the access
// token between page loads. Constructed once at startup and passed to the
// auth middleware and handlers.
type SessionStore struct {
	store *sessions.CookieStore
}

// NewSessionStore creates a cookie session store. The secret can be any
// passphrase - it is SHA-256 hashed to derive a 32-byte signing key, and
// must be consistent across restarts and instances.
//
// Security settings:
//   - HttpOnly: true (inaccessible to JavaScript)
//   - Secure/Domain: derived from settings
//   - SameSite: Lax (the dashboard navigates via top-level GETs)
func NewSessionStore(secret string, maxAgeSeconds int, settings CookieSettings) *SessionStore {
	key := sha256.Sum256([]byte(secret))

	store := sessions.NewCookieStore(key[:])
	store.Options = &sessions.Options{
		Path:     "/",
		Domain:   settings.Domain,
		MaxAge:   maxAgeSeconds,
		HttpOnly: true,
		Secure:   settings.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &SessionStore{store: store}
}

// Token returns the access token stored in the request's session cookie, or
// "" when absent.
func (s *SessionStore) Token(r *http.Request) string {
	session, err := s.store.Get(r, SessionName)
	if err != nil {
		return ""
	}
	token, _ := session.Values[SessionKeyToken].(string)
	return token
}

// SaveToken stores the access token in the session cookie.
func (s *SessionStore) SaveToken(w http.ResponseWriter, r *http.Request, token string) error {
	session, err := s.store.Get(r, SessionName)
	if err != nil {
		// A stale or tampered cookie decodes to an error plus a fresh
		// session; the fresh session is still usable.
		session, _ = s.store.New(r, SessionName)
	}
	session.Values[SessionKeyToken] = token
	return session.Save(r, w)
}

// Clear removes the session cookie. Called on sign-out.
func (s *SessionStore) Clear(w http.ResponseWriter, r *http.Request) error {
	session, err := s.store.Get(r, SessionName)
	if err != nil {
		session, _ = s.store.New(r, SessionName)
	}
	delete(session.Values, SessionKeyToken)
	session.Options.MaxAge = -1
	return session.Save(r, w)
}
