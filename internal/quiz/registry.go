package quiz

import (
	"errors"
	"sync"
)

var ErrSessionNotFound = errors.New("quiz session not found")

// Registry owns the live in-memory sessions, keyed by session ID. One
// student can run several practice sessions over time; finished sessions
// stay resident until torn down so the summary (and a failed finalize)
// remains reachable.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: map[string]*Session{}}
}

func (r *Registry) Put(s *Session) {
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
}

func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Remove tears the session down (cancelling any armed countdown) and drops
// it from the registry.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if ok {
		s.Teardown()
	}
}
