// ABOUTME: In-memory session store with TTL cleanup and capacity limits
// ABOUTME: Thread-safe storage for managing active editing sessions

package session

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/2389-research/graphdelta/dot"
)

type Store struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	maxSessions int
	ttl         time.Duration
	opts        []Option
	logger      *log.Logger
	now         func() time.Time
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithSessionOptions applies opts to every session the store creates.
func WithSessionOptions(opts ...Option) StoreOption {
	return func(s *Store) {
		s.opts = append(s.opts, opts...)
	}
}

// WithStoreLogger sets the logger used for eviction and cleanup records.
func WithStoreLogger(l *log.Logger) StoreOption {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewStore creates a new session store
func NewStore(maxSessions int, ttl time.Duration, opts ...StoreOption) *Store {
	s := &Store{
		sessions:    make(map[string]*Session),
		maxSessions: maxSessions,
		ttl:         ttl,
		logger:      log.New(io.Discard),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "session")
	return s
}

// Create creates a new session from DOT source
func (s *Store) Create(rawDOT string) (*Session, error) {
	graph, err := dot.Parse(rawDOT)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.maxSessions > 0 && len(s.sessions) >= s.maxSessions {
		s.evictOldest()
	}

	id := uuid.New().String()
	opts := append([]Option{WithLogger(s.logger)}, s.opts...)
	sess := newSession(id, graph, opts...)
	sess.CreatedAt = s.now()
	sess.LastAccess = sess.CreatedAt

	s.sessions[id] = sess
	s.logger.Debug("session created", "session", id, "count", len(s.sessions))
	return sess, nil
}

// evictOldest removes the least recently accessed session. Caller holds s.mu.
func (s *Store) evictOldest() {
	var oldestID string
	var oldestTime time.Time
	for id, sess := range s.sessions {
		if t := sess.lastAccess(); oldestTime.IsZero() || t.Before(oldestTime) {
			oldestID = id
			oldestTime = t
		}
	}
	delete(s.sessions, oldestID)
	s.logger.Info("evicted session at capacity", "session", oldestID, "max", s.maxSessions)
}

// Get retrieves a session by ID and updates its LastAccess time
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}

	sess.touch(s.now())
	return sess, true
}

// Delete removes a session. It reports whether the session existed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	return ok
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Cleanup removes sessions idle for longer than the TTL and returns how many it removed.
func (s *Store) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.ttl)
	removed := 0
	for id, sess := range s.sessions {
		if sess.lastAccess().Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		s.logger.Info("expired idle sessions", "removed", removed, "ttl", s.ttl)
	}
	return removed
}

// StartCleanup starts a background cleanup goroutine and returns a stop function
func (s *Store) StartCleanup(interval time.Duration) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	var once sync.Once

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

	return func() {
		once.Do(func() { close(done) })
	}
}
