package ws

import (
	"testing"

	"boltalka/internal/models"
)

func TestRegistry_OnlineIffSessionsNonEmpty(t *testing.T) {
	r := NewRegistry()
	user := "u1"

	if r.IsOnline(user) {
		t.Error("identity online before any register")
	}

	_, first := r.Register(user, "s1")
	if !first {
		t.Error("first session did not report offline->online transition")
	}
	if !r.IsOnline(user) {
		t.Error("identity not online after register")
	}
	if len(r.SessionsOf(user)) != 1 {
		t.Errorf("expected 1 session, got %d", len(r.SessionsOf(user)))
	}

	_, first = r.Register(user, "s2")
	if first {
		t.Error("second session reported a transition")
	}
	if len(r.SessionsOf(user)) != 2 {
		t.Errorf("expected 2 sessions, got %d", len(r.SessionsOf(user)))
	}

	userID, last, ok := r.Deregister("s1")
	if !ok || userID != user {
		t.Errorf("Deregister(s1) = (%q, %v, %v)", userID, last, ok)
	}
	if last {
		t.Error("removing one of two sessions reported online->offline")
	}
	if !r.IsOnline(user) {
		t.Error("identity offline while a session remains")
	}

	_, last, ok = r.Deregister("s2")
	if !ok || !last {
		t.Error("removing the final session did not report online->offline")
	}
	if r.IsOnline(user) {
		t.Error("identity online after all sessions removed")
	}
	if len(r.SessionsOf(user)) != 0 {
		t.Error("SessionsOf not empty after all sessions removed")
	}
}

func TestRegistry_RegisterIdempotent(t *testing.T) {
	r := NewRegistry()

	ch1, first := r.Register("u1", "s1")
	if !first {
		t.Error("expected transition on first register")
	}

	ch2, first := r.Register("u1", "s1")
	if first {
		t.Error("re-registering the same session reported a transition")
	}
	if ch1 != ch2 {
		t.Error("re-registering the same session returned a different channel")
	}
	if len(r.SessionsOf("u1")) != 1 {
		t.Errorf("expected 1 session, got %d", len(r.SessionsOf("u1")))
	}
}

func TestRegistry_DeregisterUnknown(t *testing.T) {
	r := NewRegistry()
	if _, _, ok := r.Deregister("ghost"); ok {
		t.Error("Deregister of unknown session reported ok")
	}
}

func TestRegistry_Send(t *testing.T) {
	r := NewRegistry()
	ch, _ := r.Register("u1", "s1")

	if !r.Send("s1", models.ServerEvent{Type: models.ServerEventError}) {
		t.Error("Send to live session failed")
	}
	select {
	case ev := <-ch:
		if ev.Type != models.ServerEventError {
			t.Errorf("unexpected event type %q", ev.Type)
		}
	default:
		t.Error("event not queued")
	}

	r.Deregister("s1")
	if r.Send("s1", models.ServerEvent{}) {
		t.Error("Send to removed session succeeded")
	}
}

func TestRegistry_SendToUser(t *testing.T) {
	r := NewRegistry()
	ch1, _ := r.Register("u1", "s1")
	ch2, _ := r.Register("u1", "s2")
	other, _ := r.Register("u2", "s3")

	r.SendToUser("u1", models.ServerEvent{Type: models.ServerEventStatusUpdate})

	for _, ch := range []chan models.ServerEvent{ch1, ch2} {
		select {
		case <-ch:
		default:
			t.Error("one of the identity's sessions did not receive the event")
		}
	}
	select {
	case <-other:
		t.Error("unrelated identity received the event")
	default:
	}
}
