package ws

import "sync"

// Rooms tracks which sessions currently listen to which rooms. A room's
// persisted membership lives in the store; this is only the live
// subscription side, rebuilt from connections after every restart.
type Rooms struct {
	mu        sync.RWMutex
	byRoom    map[string]map[string]struct{} // roomID -> session ids
	bySession map[string]map[string]struct{} // sessionID -> room ids
}

func NewRooms() *Rooms {
	return &Rooms{
		byRoom:    make(map[string]map[string]struct{}),
		bySession: make(map[string]map[string]struct{}),
	}
}

// Subscribe joins the session to roomID's broadcast group. Subscribing
// twice is a no-op.
func (r *Rooms) Subscribe(sessionID, roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.byRoom[roomID] == nil {
		r.byRoom[roomID] = make(map[string]struct{})
	}
	r.byRoom[roomID][sessionID] = struct{}{}

	if r.bySession[sessionID] == nil {
		r.bySession[sessionID] = make(map[string]struct{})
	}
	r.bySession[sessionID][roomID] = struct{}{}
}

// Unsubscribe removes the session from roomID's broadcast group.
func (r *Rooms) Unsubscribe(sessionID, roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(sessionID, roomID)
}

// DropSession removes the session from every room it listens to and
// returns the ids of those rooms.
func (r *Rooms) DropSession(sessionID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	roomIDs := make([]string, 0, len(r.bySession[sessionID]))
	for roomID := range r.bySession[sessionID] {
		roomIDs = append(roomIDs, roomID)
	}
	for _, roomID := range roomIDs {
		r.removeLocked(sessionID, roomID)
	}
	return roomIDs
}

func (r *Rooms) removeLocked(sessionID, roomID string) {
	if set := r.byRoom[roomID]; set != nil {
		delete(set, sessionID)
		if len(set) == 0 {
			delete(r.byRoom, roomID)
		}
	}
	if set := r.bySession[sessionID]; set != nil {
		delete(set, roomID)
		if len(set) == 0 {
			delete(r.bySession, sessionID)
		}
	}
}

// Subscribers returns the ids of all sessions currently listening to roomID.
func (r *Rooms) Subscribers(roomID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.byRoom[roomID]))
	for id := range r.byRoom[roomID] {
		ids = append(ids, id)
	}
	return ids
}

// IsSubscribed reports whether the session currently listens to roomID.
func (r *Rooms) IsSubscribed(sessionID, roomID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.bySession[sessionID][roomID]
	return ok
}
