package ws

import "sync"

// typingTracker holds the transient per-room set of identities currently
// typing. Entries leave the set on an explicit stop or when the identity's
// last session disconnects; there is no timer-based expiry.
type typingTracker struct {
	mu     sync.Mutex
	byRoom map[string]map[string]struct{}
}

func newTypingTracker() *typingTracker {
	return &typingTracker{byRoom: make(map[string]map[string]struct{})}
}

// Start marks userID as typing in roomID.
func (t *typingTracker) Start(roomID, userID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.byRoom[roomID] == nil {
		t.byRoom[roomID] = make(map[string]struct{})
	}
	t.byRoom[roomID][userID] = struct{}{}
}

// Stop clears userID's typing mark in roomID and reports whether it was set.
func (t *typingTracker) Stop(roomID, userID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	set, ok := t.byRoom[roomID]
	if !ok {
		return false
	}
	if _, typing := set[userID]; !typing {
		return false
	}
	delete(set, userID)
	if len(set) == 0 {
		delete(t.byRoom, roomID)
	}
	return true
}

// Purge removes userID from every room's typing set and returns the ids
// of the rooms it was typing in, so the caller can announce the stops.
func (t *typingTracker) Purge(userID string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var roomIDs []string
	for roomID, set := range t.byRoom {
		if _, typing := set[userID]; !typing {
			continue
		}
		delete(set, userID)
		if len(set) == 0 {
			delete(t.byRoom, roomID)
		}
		roomIDs = append(roomIDs, roomID)
	}
	return roomIDs
}

// IsTyping reports whether userID is currently marked typing in roomID.
func (t *typingTracker) IsTyping(roomID, userID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.byRoom[roomID][userID]
	return ok
}
