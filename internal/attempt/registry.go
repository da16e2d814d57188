package attempt

import (
	"sync"
	"time"
)

type entry struct {
	session *Session
	stop    chan struct{}
}

// Registry tracks live sessions by attempt id. A session leaves the registry
// when it is finalized, evicted or closed.
type Registry struct {
	mu       sync.RWMutex
	sessions map[uint]entry
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[uint]entry)}
}

// Add registers the session. It returns false if a session for the attempt
// already exists.
func (r *Registry) Add(s *Session) bool {
	r.mu.Lock()
	if _, exists := r.sessions[s.AttemptID()]; exists {
		r.mu.Unlock()
		return false
	}
	e := entry{session: s, stop: make(chan struct{})}
	r.sessions[s.AttemptID()] = e
	r.mu.Unlock()

	go func() {
		select {
		case <-s.Done():
			r.remove(s)
		case <-e.stop:
		}
	}()
	return true
}

func (r *Registry) Get(attemptID uint) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[attemptID]
	return e.session, ok
}

func (r *Registry) remove(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.sessions[s.AttemptID()]; ok && e.session == s {
		delete(r.sessions, s.AttemptID())
	}
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// EvictIdle drops untimed in-progress sessions with no activity since
// before now-idle and returns their attempt ids. Timed sessions finalize
// through their countdown and are never evicted.
func (r *Registry) EvictIdle(now time.Time, idle time.Duration) []uint {
	cutoff := now.Add(-idle)

	r.mu.Lock()
	defer r.mu.Unlock()
	var evicted []uint
	for id, e := range r.sessions {
		s := e.session
		if s.Timed() || s.State() != StateInProgress || !s.LastActivity().Before(cutoff) {
			continue
		}
		s.Close()
		close(e.stop)
		delete(r.sessions, id)
		evicted = append(evicted, id)
	}
	return evicted
}

// CloseAll stops every countdown and releases every session. Used on shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, e := range r.sessions {
		e.session.Close()
		close(e.stop)
		delete(r.sessions, id)
	}
}
