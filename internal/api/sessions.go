package api

import (
	"sync"

	"github.com/google/uuid"
	"github.com/j-emberton/HXforge/internal/engine"
)

// MaxSessions caps the number of live evaluator sessions.
const MaxSessions = 4096

// session gives one client a private evaluator. mu serializes every
// read and write of ev, which is not safe for concurrent use.
type session struct {
	id string
	mu sync.Mutex
	ev *engine.Evaluator
}

type sessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*session
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{sessions: make(map[string]*session)}
}

// add registers ev under a fresh id. ok is false when the registry is full.
func (r *sessionRegistry) add(ev *engine.Evaluator) (s *session, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sessions) >= MaxSessions {
		return nil, false
	}
	s = &session{id: uuid.NewString(), ev: ev}
	r.sessions[s.id] = s
	return s, true
}

func (r *sessionRegistry) get(id string) (*session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, errUnknownSession
	}
	return s, nil
}

func (r *sessionRegistry) remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[id]
	delete(r.sessions, id)
	return ok
}

func (r *sessionRegistry) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
