package auth

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/mistenes/mikdashboard-voting-sub000/logging"
)

// session token ids must be unguessable; 32 nanoid chars gives plenty of
// entropy for a short-lived cookie value.
const tokenIDLength = 32

type sessionRecord struct {
	principal Principal
	expiresAt time.Time
}

// Store holds server-side session tokens in memory. Lookups slide the
// expiry forward, so a session stays alive as long as it is used.
type Store struct {
	mu       sync.Mutex
	clock    clockwork.Clock
	ttl      time.Duration
	sessions map[string]*sessionRecord
}

func NewStore(clock clockwork.Clock, ttl time.Duration) *Store {
	return &Store{
		clock:    clock,
		ttl:      ttl,
		sessions: make(map[string]*sessionRecord),
	}
}

// Create mints a new session token for the principal and returns its id.
func (s *Store) Create(p Principal) (string, error) {
	id, err := gonanoid.New(tokenIDLength)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = &sessionRecord{
		principal: p,
		expiresAt: s.clock.Now().Add(s.ttl),
	}

	logging.Log.Infof("AUTH: session created for %s (role %s)", p.Email, p.Role)
	return id, nil
}

// Get resolves a token id to its principal, sliding the expiry forward.
// Expired records are deleted on sight.
func (s *Store) Get(id string) (Principal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.sessions[id]
	if !ok {
		return Principal{}, false
	}
	now := s.clock.Now()
	if now.After(rec.expiresAt) {
		delete(s.sessions, id)
		return Principal{}, false
	}
	rec.expiresAt = now.Add(s.ttl)
	return rec.principal, true
}

// Delete removes a session (logout). Unknown ids are a no-op.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Sweep drops expired sessions. Lazy expiry in Get already keeps lookups
// correct; this just bounds memory on long-idle processes.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	removed := 0
	for id, rec := range s.sessions {
		if now.After(rec.expiresAt) {
			delete(s.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		logging.Log.Debugf("AUTH: swept %d expired sessions", removed)
	}
	return removed
}

// StartSweeper runs Sweep on a fixed interval until stop is closed.
func (s *Store) StartSweeper(interval time.Duration, stop <-chan struct{}) {
	go func() {
		ticker := s.clock.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.Chan():
				s.Sweep()
			case <-stop:
				return
			}
		}
	}()
}
