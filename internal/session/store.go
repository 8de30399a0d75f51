// Package session tracks per-client state across requests through a
// cookie-backed session key. The quota ledger and the pending-payment
// nonce are both keyed by it.
package session

import (
	"net/http"
	"sync"

	"github.com/google/uuid"
)

// Store issues session cookies and holds per-session transient state.
type Store struct {
	cookieName string
	secure     bool

	mu      sync.Mutex
	pending map[string]string
}

// NewStore builds a session store issuing cookies under cookieName.
func NewStore(cookieName string, secure bool) *Store {
	return &Store{
		cookieName: cookieName,
		secure:     secure,
		pending:    make(map[string]string),
	}
}

// Key returns the caller's session key, issuing a fresh cookie when the
// request carries none.
func (s *Store) Key(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(s.cookieName); err == nil && c.Value != "" {
		if _, err := uuid.Parse(c.Value); err == nil {
			return c.Value
		}
	}
	key := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    key,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return key
}

// SetPendingCheckout stores the nonce issued when a checkout starts,
// replacing any previous one for the session.
func (s *Store) SetPendingCheckout(session, nonce string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[session] = nonce
}

// PendingMatches reports whether id equals the stored nonce without
// consuming it. Used to reject forged callbacks before calling the
// provider at all.
func (s *Store) PendingMatches(session, id string) bool {
	if id == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending[session] == id
}

// ConsumePendingCheckout clears and confirms the stored nonce when id
// matches it exactly. A mismatch leaves the stored nonce in place and
// grants nothing, so a forged callback cannot burn the real one.
func (s *Store) ConsumePendingCheckout(session, id string) bool {
	if id == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending[session] != id {
		return false
	}
	delete(s.pending, session)
	return true
}
