package core

import "sync"

// Registry maps a user identity to its single live session.
type Registry struct {
	// serializes Register so two connects for one identity cannot both win
	registerMux sync.Mutex
	mux         sync.RWMutex
	sessions    map[string]Session
	terminate   func(Session)
}

// NewRegistry returns an empty registry. terminate runs the disconnect path
// of a superseded session; it is called without any registry lock held.
func NewRegistry(terminate func(Session)) *Registry {
	if terminate == nil {
		terminate = func(s Session) { s.Close() }
	}

	return &Registry{
		sessions:  make(map[string]Session),
		terminate: terminate,
	}
}

func (r *Registry) Register(userID string, session Session) {
	r.registerMux.Lock()
	defer r.registerMux.Unlock()

	r.mux.RLock()
	old, ok := r.sessions[userID]
	r.mux.RUnlock()

	if ok && old != session {
		r.terminate(old)
	}

	r.mux.Lock()
	r.sessions[userID] = session
	r.mux.Unlock()
}

// Unregister removes the mapping only while it still points at session, so a
// late disconnect of a superseded session leaves the newer one in place.
func (r *Registry) Unregister(userID string, session Session) bool {
	r.mux.Lock()
	defer r.mux.Unlock()

	current, ok := r.sessions[userID]
	if !ok || current != session {
		return false
	}

	delete(r.sessions, userID)

	return true
}

func (r *Registry) Lookup(userID string) (Session, bool) {
	r.mux.RLock()
	defer r.mux.RUnlock()

	session, ok := r.sessions[userID]

	return session, ok
}

func (r *Registry) Len() int {
	r.mux.RLock()
	defer r.mux.RUnlock()

	return len(r.sessions)
}
