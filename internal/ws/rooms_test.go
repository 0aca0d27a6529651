package ws

import (
	"sort"
	"testing"
)

func TestRooms_SubscribeUnsubscribe(t *testing.T) {
	r := NewRooms()

	r.Subscribe("s1", "room1")
	r.Subscribe("s1", "room1") // duplicate is a no-op
	r.Subscribe("s2", "room1")
	r.Subscribe("s1", "room2")

	if !r.IsSubscribed("s1", "room1") || !r.IsSubscribed("s2", "room1") {
		t.Error("subscription not recorded")
	}
	if r.IsSubscribed("s2", "room2") {
		t.Error("phantom subscription")
	}

	got := r.Subscribers("room1")
	sort.Strings(got)
	if len(got) != 2 || got[0] != "s1" || got[1] != "s2" {
		t.Errorf("Subscribers(room1) = %v", got)
	}

	r.Unsubscribe("s1", "room1")
	if r.IsSubscribed("s1", "room1") {
		t.Error("still subscribed after unsubscribe")
	}
	if !r.IsSubscribed("s1", "room2") {
		t.Error("unsubscribe touched another room")
	}
}

func TestRooms_DropSession(t *testing.T) {
	r := NewRooms()
	r.Subscribe("s1", "room1")
	r.Subscribe("s1", "room2")
	r.Subscribe("s2", "room1")

	dropped := r.DropSession("s1")
	sort.Strings(dropped)
	if len(dropped) != 2 || dropped[0] != "room1" || dropped[1] != "room2" {
		t.Errorf("DropSession returned %v", dropped)
	}
	if r.IsSubscribed("s1", "room1") || r.IsSubscribed("s1", "room2") {
		t.Error("dropped session still subscribed")
	}
	if !r.IsSubscribed("s2", "room1") {
		t.Error("drop removed another session's subscription")
	}

	if got := r.DropSession("s1"); len(got) != 0 {
		t.Errorf("second drop returned %v", got)
	}
}
