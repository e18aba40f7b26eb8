package server

import (
	"context"
	"sync"

	"github.com/voxhire/interviewd/interview"
)

// Registry tracks live interview sessions. The HTTP side reads status
// snapshots through it, and Invalidate lets an operator cut a session loose
// without touching its connection directly.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*liveSession
}

type liveSession struct {
	state  *interview.State
	cancel context.CancelFunc
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{sessions: map[string]*liveSession{}}
}

// register adds a connection before its interview state exists; bind attaches
// the state once the client has sent init.
func (r *Registry) register(sessionID string, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sessionID] = &liveSession{cancel: cancel}
}

func (r *Registry) bind(sessionID string, state *interview.State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[sessionID]; ok {
		s.state = state
	}
}

func (r *Registry) unregister(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
}

// Snapshot returns the session's observable status. The second return is
// false when the session is unknown or not yet initialized.
func (r *Registry) Snapshot(sessionID string) (interview.Snapshot, bool) {
	r.mu.RLock()
	s, ok := r.sessions[sessionID]
	r.mu.RUnlock()
	if !ok || s.state == nil {
		return interview.Snapshot{}, false
	}
	return s.state.Snapshot(), true
}

// Invalidate cancels the session's connection context, which tears the
// websocket down and triggers the normal cleanup path. It reports whether the
// session was found.
func (r *Registry) Invalidate(sessionID string) bool {
	r.mu.RLock()
	s, ok := r.sessions[sessionID]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	s.cancel()
	return true
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
