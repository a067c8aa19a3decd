package editor

import (
	"sync"
	"time"
)

// Store keeps the live editing sessions of the admin UI, keyed by session id.
// Idle sessions expire after ttl; at capacity the least recently used one is
// evicted.
type Store struct {
	mu          sync.Mutex
	sessions    map[string]*Session
	maxSessions int
	ttl         time.Duration
	newSession  func() *Session
}

// NewStore creates a store whose sessions are built by newSession.
func NewStore(maxSessions int, ttl time.Duration, newSession func() *Session) *Store {
	return &Store{
		sessions:    make(map[string]*Session),
		maxSessions: maxSessions,
		ttl:         ttl,
		newSession:  newSession,
	}
}

// Create registers a fresh unauthenticated session.
func (s *Store) Create() *Session {
	sess := s.newSession()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.maxSessions > 0 && len(s.sessions) >= s.maxSessions {
		var oldestID string
		var oldest time.Time
		for id, other := range s.sessions {
			if oldest.IsZero() || other.LastAccess.Before(oldest) {
				oldestID = id
				oldest = other.LastAccess
			}
		}
		s.dropLocked(oldestID)
	}
	s.sessions[sess.ID] = sess
	return sess
}

// Get returns a session and marks it as used.
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	sess.LastAccess = time.Now()
	return sess, true
}

// Delete logs a session out and forgets it.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropLocked(id)
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Cleanup removes sessions idle for longer than the ttl.
func (s *Store) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := time.Now().Add(-s.ttl)
	for id, sess := range s.sessions {
		if sess.LastAccess.Before(cutoff) {
			s.dropLocked(id)
		}
	}
}

// StartCleanup runs Cleanup every interval until the returned stop function
// is called.
func (s *Store) StartCleanup(interval time.Duration) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ticker.C:
				s.Cleanup()
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(done) })
	}
}

// Close logs out every session.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.sessions {
		s.dropLocked(id)
	}
}

func (s *Store) dropLocked(id string) {
	if sess, ok := s.sessions[id]; ok {
		sess.Logout()
		delete(s.sessions, id)
	}
}
