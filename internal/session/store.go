// Package session holds the process-wide session credential: an opaque
// bearer token created on login, attached to every outbound request and the
// channel handshake, and cleared on logout or any 401.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Store is a single-writer credential cell. The login flow writes it,
// everything else reads it. Clearing an held credential notifies expiry
// subscribers exactly once, even when several 401 responses race.
type Store struct {
	mu      sync.Mutex
	token   string
	subs    []chan struct{}
	onClear []func()
}

// NewStore returns an empty credential store.
func NewStore() *Store {
	return &Store{}
}

// Set installs a new credential.
func (s *Store) Set(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// Get returns the current credential, if one is held.
func (s *Store) Get() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.token != ""
}

// Clear drops the credential and reports whether a credential was actually
// held. Subscribers are notified only on the held-to-empty transition, so
// concurrent clears collapse into one event.
func (s *Store) Clear() bool {
	s.mu.Lock()
	had := s.token != ""
	s.token = ""
	subs := s.subs
	hooks := s.onClear
	s.mu.Unlock()

	if !had {
		return false
	}
	for _, fn := range hooks {
		fn()
	}
	for _, ch := range subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	return true
}

// OnClear registers a hook invoked synchronously on each held-to-empty
// transition, before subscribers are notified. Hooks run outside the
// store's lock and may call back into it.
func (s *Store) OnClear(fn func()) {
	s.mu.Lock()
	s.onClear = append(s.onClear, fn)
	s.mu.Unlock()
}

// Subscribe returns a channel that receives one value each time a held
// credential is cleared. The channel is buffered; a slow consumer misses
// coalesced events, not the fact that expiry happened.
func (s *Store) Subscribe() <-chan struct{} {
	ch := make(chan struct{}, 1)
	s.mu.Lock()
	s.subs = append(s.subs, ch)
	s.mu.Unlock()
	return ch
}

// Claims decodes the held token's claims without verifying the signature.
// The server owns validation; this exists only so the CLI can display who
// is logged in and when the token lapses.
func (s *Store) Claims() (jwt.MapClaims, error) {
	token, ok := s.Get()
	if !ok {
		return nil, fmt.Errorf("no session credential held")
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("decode token claims: %w", err)
	}
	return claims, nil
}

// ExpiresAt returns the token's exp claim, if the credential is a JWT that
// carries one.
func (s *Store) ExpiresAt() (time.Time, bool) {
	claims, err := s.Claims()
	if err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
