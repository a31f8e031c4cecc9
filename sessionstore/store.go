package sessionstore

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a session id has no live entry. An expired
// and swept session is indistinguishable from one that never existed.
var ErrNotFound = errors.New("session not found")

// MemoryStore keeps sessions in an in-process map guarded by a RWMutex.
// It is the only storage tier: restarting the process discards everything.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
}

// NewMemoryStore creates an empty store whose sessions live for ttl after
// their last touch.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
	}
}

// Create mints a new session with a fresh id and the initial user state.
// When autoConsent is set (demo deployments) every consent flag starts true.
func (s *MemoryStore) Create(mode Mode, autoConsent bool) *Session {
	now := time.Now()
	sess := &Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
		Mode:      mode,
		UserState: InitialUserState(),
		Summary:   "No summary yet.",
	}
	if autoConsent {
		sess.Consent = Consent{
			VoiceAdapt:   true,
			TwinTraining: true,
			VoiceClone:   true,
			UpdatedAt:    now,
		}
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return sess
}

// Get returns the live session for id, or ErrNotFound.
func (s *MemoryStore) Get(id string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return sess, nil
}

// Delete removes the session and reports whether it existed. Deleting an
// absent id is not an error, so repeated deletes are safe.
func (s *MemoryStore) Delete(id string) bool {
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	return ok
}

// ExtendTTL slides the session's expiry forward from now. Every successful
// interaction calls this, so only idle sessions expire.
func (s *MemoryStore) ExtendTTL(sess *Session, now time.Time) {
	sess.ExpiresAt = now.Add(s.ttl)
}

// SweepExpired removes every session whose TTL lapsed before now and
// returns how many were discarded.
func (s *MemoryStore) SweepExpired(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	swept := 0
	for id, sess := range s.sessions {
		if sess.Expired(now) {
			delete(s.sessions, id)
			swept++
		}
	}
	return swept
}

// Len returns the number of live sessions.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
