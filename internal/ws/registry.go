package ws

import (
	"sync"
	"time"

	"boltalka/internal/models"
)

// Outbound channel depth per session. Sends are non-blocking, so a full
// buffer means the slowest frames are dropped rather than stalling fan-out.
const sendBuffer = 100

type session struct {
	userID  string
	send    chan models.ServerEvent
	created time.Time
}

// Registry is the root of presence: a bidirectional mapping between user
// identities and their live sessions. An identity is online iff it owns at
// least one session. All mutations are short and CPU-only.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*session
	byUser   map[string]map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*session),
		byUser:   make(map[string]map[string]struct{}),
	}
}

// Register adds sessionID under userID and returns the session's outbound
// channel plus whether this is the identity's first active session (the
// offline to online transition). Registering the same session id twice
// returns the existing channel and reports no transition.
func (r *Registry) Register(userID, sessionID string) (chan models.ServerEvent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.sessions[sessionID]; ok {
		return existing.send, false
	}

	s := &session{
		userID:  userID,
		send:    make(chan models.ServerEvent, sendBuffer),
		created: time.Now(),
	}
	r.sessions[sessionID] = s

	first := len(r.byUser[userID]) == 0
	if r.byUser[userID] == nil {
		r.byUser[userID] = make(map[string]struct{})
	}
	r.byUser[userID][sessionID] = struct{}{}

	return s.send, first
}

// Deregister removes the session and closes its outbound channel. It
// returns the owning identity and whether the removal emptied the
// identity's session set (the online to offline transition).
func (r *Registry) Deregister(sessionID string) (userID string, last bool, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, found := r.sessions[sessionID]
	if !found {
		return "", false, false
	}
	delete(r.sessions, sessionID)
	close(s.send)

	set := r.byUser[s.userID]
	delete(set, sessionID)
	if len(set) == 0 {
		delete(r.byUser, s.userID)
		return s.userID, true, true
	}
	return s.userID, false, true
}

// IsOnline reports whether the identity owns at least one live session.
func (r *Registry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser[userID]) > 0
}

// SessionsOf returns the ids of all sessions the identity currently owns.
func (r *Registry) SessionsOf(userID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.byUser[userID]))
	for id := range r.byUser[userID] {
		ids = append(ids, id)
	}
	return ids
}

// Send queues ev on the session's outbound channel without blocking.
// It reports false if the session is gone or its buffer is full.
func (r *Registry) Send(sessionID string, ev models.ServerEvent) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return false
	}
	select {
	case s.send <- ev:
		return true
	default:
		return false
	}
}

// SendToUser queues ev for every session the identity owns, so all of a
// user's devices stay converged.
func (r *Registry) SendToUser(userID string, ev models.ServerEvent) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for sessionID := range r.byUser[userID] {
		if s, ok := r.sessions[sessionID]; ok {
			select {
			case s.send <- ev:
			default:
			}
		}
	}
}
