package session

import (
	"errors"
	"sync"
)

// ErrDuplicateSession is returned by Create when the id is still present in
// the store, active or pending eviction. An id becomes reusable only once the
// session has been removed.
var ErrDuplicateSession = errors.New("session id already in use")

// Store is the registry of scan sessions and the single source of truth for
// their state. It hands out copies: callers mutate a copy and write it back
// with Update, so concurrent readers never observe a half-applied mutation.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*Session),
	}
}

func (s *Store) Create(id, origin string, now int64) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; ok {
		return nil, ErrDuplicateSession
	}
	sess := New(id, origin, now)
	s.sessions[id] = sess
	return sess.Clone(), nil
}

func (s *Store) Get(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	return sess.Clone(), true
}

func (s *Store) GetAll() []*Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		result = append(result, sess.Clone())
	}
	return result
}

// Update writes a session back into the store, replacing the stored state.
// The input is copied, so callers may keep mutating their instance.
func (s *Store) Update(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess.Clone()
}

func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// ActiveCount reports sessions that have not been finished yet.
func (s *Store) ActiveCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, sess := range s.sessions {
		if sess.Active {
			count++
		}
	}
	return count
}
