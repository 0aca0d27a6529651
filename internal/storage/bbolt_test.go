package storage

import (
	"path/filepath"
	"testing"
	"time"

	"boltalka/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *BboltStorage {
	t.Helper()

	store, err := NewBboltStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	store.now = func() time.Time { return time.Unix(1700000000, 0) }
	return store
}

func seedChat(t *testing.T, store *BboltStorage, chatID string, userIDs ...string) {
	t.Helper()

	require.NoError(t, store.UpsertChat(models.Chat{
		ID:   chatID,
		Type: models.ChatTypeGroup,
		Name: "room " + chatID,
	}))
	for _, id := range userIDs {
		require.NoError(t, store.UpsertUser(models.User{ID: id, Name: "user-" + id}, ""))
		require.NoError(t, store.AddParticipant(chatID, id, "member"))
	}
}

func TestStorage_Users(t *testing.T) {
	store := newTestStorage(t)

	require.NoError(t, store.UpsertUser(models.User{ID: "u1", Name: "Alice", Email: "a@example.com"}, "hash"))

	user, err := store.GetUser("u1")
	require.NoError(t, err)
	assert.Equal(t, "Alice", user.Name)
	assert.False(t, user.Online)

	_, err = store.GetUser("missing")
	assert.ErrorIs(t, err, models.ErrNotFound)

	t.Run("online status", func(t *testing.T) {
		require.NoError(t, store.SetOnlineStatus("u1", true))
		user, err := store.GetUser("u1")
		require.NoError(t, err)
		assert.True(t, user.Online)
		assert.Equal(t, int64(1700000000), user.LastSeen)

		require.NoError(t, store.SetOnlineStatus("u1", false))
		user, err = store.GetUser("u1")
		require.NoError(t, err)
		assert.False(t, user.Online)

		assert.ErrorIs(t, store.SetOnlineStatus("missing", true), models.ErrNotFound)
	})
}

func TestStorage_Participants(t *testing.T) {
	store := newTestStorage(t)
	seedChat(t, store, "c1", "u1", "u2", "u3")

	rooms, err := store.ListRoomsForUser("u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"c1"}, rooms)

	participants, err := store.ListParticipants("c1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"u1", "u2", "u3"}, participants)

	ok, err := store.VerifyParticipant("u1", "c1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.VerifyParticipant("stranger", "c1")
	require.NoError(t, err)
	assert.False(t, ok)

	t.Run("removal deactivates", func(t *testing.T) {
		require.NoError(t, store.RemoveParticipant("c1", "u3"))

		ok, err := store.VerifyParticipant("u3", "c1")
		require.NoError(t, err)
		assert.False(t, ok)

		participants, err := store.ListParticipants("c1")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"u1", "u2"}, participants)

		rooms, err := store.ListRoomsForUser("u3")
		require.NoError(t, err)
		assert.Empty(t, rooms)
	})

	t.Run("add to missing chat", func(t *testing.T) {
		assert.ErrorIs(t, store.AddParticipant("ghost", "u1", "member"), models.ErrNotFound)
	})
}

func TestStorage_CreateMessage(t *testing.T) {
	store := newTestStorage(t)
	seedChat(t, store, "c1", "u1", "u2", "u3")

	msg := models.Message{
		ID:        "m1",
		ChatID:    "c1",
		SenderID:  "u1",
		Content:   "hello",
		Timestamp: 1700000000,
	}
	require.NoError(t, store.CreateMessage(msg))

	sender, err := store.GetMessageSender("m1")
	require.NoError(t, err)
	assert.Equal(t, "u1", sender)

	// One "sent" record per participant excluding the sender.
	for _, recipient := range []string{"u2", "u3"} {
		rec, err := store.GetDeliveryStatus("m1", recipient)
		require.NoError(t, err)
		assert.Equal(t, models.StatusSent, rec.Status)
	}
	_, err = store.GetDeliveryStatus("m1", "u1")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestStorage_DeliveryStatusMonotonic(t *testing.T) {
	store := newTestStorage(t)
	seedChat(t, store, "c1", "u1", "u2")
	require.NoError(t, store.CreateMessage(models.Message{ID: "m1", ChatID: "c1", SenderID: "u1", Content: "hi"}))

	prev, err := store.UpsertDeliveryStatus("m1", "u2", models.StatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSent, prev)

	// read sticks even if a late "delivered" arrives afterwards
	prev, err = store.UpsertDeliveryStatus("m1", "u2", models.StatusRead)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDelivered, prev)

	prev, err = store.UpsertDeliveryStatus("m1", "u2", models.StatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRead, prev)

	rec, err := store.GetDeliveryStatus("m1", "u2")
	require.NoError(t, err)
	assert.Equal(t, models.StatusRead, rec.Status)

	t.Run("read before delivered", func(t *testing.T) {
		require.NoError(t, store.CreateMessage(models.Message{ID: "m2", ChatID: "c1", SenderID: "u1", Content: "again"}))

		_, err := store.UpsertDeliveryStatus("m2", "u2", models.StatusRead)
		require.NoError(t, err)
		_, err = store.UpsertDeliveryStatus("m2", "u2", models.StatusDelivered)
		require.NoError(t, err)

		rec, err := store.GetDeliveryStatus("m2", "u2")
		require.NoError(t, err)
		assert.Equal(t, models.StatusRead, rec.Status)
	})

	t.Run("sender has no record", func(t *testing.T) {
		_, err := store.UpsertDeliveryStatus("m1", "u1", models.StatusRead)
		assert.ErrorIs(t, err, ErrOwnMessage)
	})

	t.Run("missing message", func(t *testing.T) {
		_, err := store.UpsertDeliveryStatus("ghost", "u2", models.StatusRead)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("invalid status", func(t *testing.T) {
		_, err := store.UpsertDeliveryStatus("m1", "u2", "archived")
		assert.Error(t, err)
	})
}

func TestStorage_PushSubscriptions(t *testing.T) {
	store := newTestStorage(t)

	sub := models.PushSubscription{
		UserID:   "u1",
		Endpoint: "https://push.example.com/abc",
		P256dh:   "key",
		Auth:     "auth",
	}
	require.NoError(t, store.UpsertPushSubscription(sub))

	got, err := store.GetPushSubscription("u1")
	require.NoError(t, err)
	assert.Equal(t, sub, got)

	require.NoError(t, store.DeletePushSubscription("u1"))
	_, err = store.GetPushSubscription("u1")
	assert.ErrorIs(t, err, models.ErrNotFound)

	// deleting twice stays quiet
	require.NoError(t, store.DeletePushSubscription("u1"))
}
