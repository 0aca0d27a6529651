package ws

import (
	"sort"
	"testing"
)

func TestTypingTracker(t *testing.T) {
	tr := newTypingTracker()

	t.Run("start and stop", func(t *testing.T) {
		tr.Start("room1", "u1")
		if !tr.IsTyping("room1", "u1") {
			t.Error("not typing after Start")
		}
		if !tr.Stop("room1", "u1") {
			t.Error("Stop of an active typist returned false")
		}
		if tr.IsTyping("room1", "u1") {
			t.Error("still typing after Stop")
		}
	})

	t.Run("stop without start", func(t *testing.T) {
		if tr.Stop("room1", "u2") {
			t.Error("Stop of an inactive typist returned true")
		}
	})

	t.Run("purge returns every room once", func(t *testing.T) {
		tr.Start("room1", "u1")
		tr.Start("room1", "u1") // repeated start is a no-op
		tr.Start("room2", "u1")
		tr.Start("room1", "u2")

		rooms := tr.Purge("u1")
		sort.Strings(rooms)
		if len(rooms) != 2 || rooms[0] != "room1" || rooms[1] != "room2" {
			t.Errorf("Purge returned %v", rooms)
		}
		if tr.IsTyping("room1", "u1") || tr.IsTyping("room2", "u1") {
			t.Error("purged identity still typing")
		}
		if !tr.IsTyping("room1", "u2") {
			t.Error("purge removed another identity's typing state")
		}

		if got := tr.Purge("u1"); len(got) != 0 {
			t.Errorf("second purge returned %v", got)
		}
	})
}
