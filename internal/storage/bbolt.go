package storage

import (
	"errors"
	"fmt"
	"time"

	"boltalka/internal/models"

	"go.etcd.io/bbolt"
)

var (
	bucketUsers     = []byte("users")
	bucketChats     = []byte("chats")
	bucketMembers   = []byte("chat_participants")
	bucketUserChats = []byte("user_chats")
	bucketMessages  = []byte("messages")
	bucketStatus    = []byte("message_status")
	bucketPushSubs  = []byte("push_subscriptions")
)

// ErrOwnMessage is returned when a delivery status write targets the
// message's own sender. No delivery record may ever exist for the sender.
var ErrOwnMessage = errors.New("no delivery record for message sender")

type BboltStorage struct {
	db  *bbolt.DB
	now func() time.Time
}

func NewBboltStorage(path string) (*BboltStorage, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bbolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		buckets := [][]byte{
			bucketUsers, bucketChats, bucketMembers, bucketUserChats,
			bucketMessages, bucketStatus, bucketPushSubs,
		}
		for _, b := range buckets {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create buckets: %w", err)
	}

	return &BboltStorage{db: db, now: time.Now}, nil
}

func (s *BboltStorage) Close() error {
	return s.db.Close()
}

// UpsertUser stores a new or updated user account.
func (s *BboltStorage) UpsertUser(user models.User, passwordHash string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketUsers)
		dbUser := &DBUser{
			ID:           user.ID,
			Name:         user.Name,
			Email:        user.Email,
			AvatarURL:    user.AvatarURL,
			PasswordHash: passwordHash,
			Online:       user.Online,
			LastSeen:     user.LastSeen,
		}

		data, err := dbUser.MarshalBinary()
		if err != nil {
			return err
		}
		return b.Put(dbUser.Key(), data)
	})
}

// GetUser returns the user account for id, or models.ErrNotFound.
func (s *BboltStorage) GetUser(id string) (models.User, error) {
	var user models.User
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketUsers).Get([]byte(id))
		if data == nil {
			return models.ErrNotFound
		}
		var dbUser DBUser
		if err := dbUser.UnmarshalBinary(data); err != nil {
			return err
		}
		user = models.User{
			ID:        dbUser.ID,
			Name:      dbUser.Name,
			Email:     dbUser.Email,
			AvatarURL: dbUser.AvatarURL,
			Online:    dbUser.Online,
			LastSeen:  dbUser.LastSeen,
		}
		return nil
	})
	return user, err
}

// SetOnlineStatus updates the persisted online flag and last-seen time.
func (s *BboltStorage) SetOnlineStatus(userID string, online bool) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketUsers)
		data := b.Get([]byte(userID))
		if data == nil {
			return models.ErrNotFound
		}
		var dbUser DBUser
		if err := dbUser.UnmarshalBinary(data); err != nil {
			return err
		}
		dbUser.Online = online
		dbUser.LastSeen = s.now().Unix()

		updated, err := dbUser.MarshalBinary()
		if err != nil {
			return err
		}
		return b.Put(dbUser.Key(), updated)
	})
}

// UpsertChat saves a chat room to the database.
func (s *BboltStorage) UpsertChat(chat models.Chat) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketChats)
		dbChat := &DBChat{
			ID:        chat.ID,
			Type:      string(chat.Type),
			Name:      chat.Name,
			CreatedBy: chat.CreatedBy,
			CreatedAt: chat.CreatedAt,
		}
		data, err := dbChat.MarshalBinary()
		if err != nil {
			return err
		}
		return b.Put(dbChat.Key(), data)
	})
}

// GetChat returns the chat for id, or models.ErrNotFound.
func (s *BboltStorage) GetChat(id string) (models.Chat, error) {
	var chat models.Chat
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketChats).Get([]byte(id))
		if data == nil {
			return models.ErrNotFound
		}
		var dbChat DBChat
		if err := dbChat.UnmarshalBinary(data); err != nil {
			return err
		}
		chat = models.Chat{
			ID:        dbChat.ID,
			Type:      models.ChatType(dbChat.Type),
			Name:      dbChat.Name,
			CreatedBy: dbChat.CreatedBy,
			CreatedAt: dbChat.CreatedAt,
		}
		return nil
	})
	return chat, err
}

// AddParticipant records chat membership in both directions: the chat's
// participant bucket and the user's chat index.
func (s *BboltStorage) AddParticipant(chatID, userID, role string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket(bucketChats).Get([]byte(chatID)) == nil {
			return models.ErrNotFound
		}

		chatBucket, err := tx.Bucket(bucketMembers).CreateBucketIfNotExists([]byte(chatID))
		if err != nil {
			return fmt.Errorf("failed to create participant bucket: %w", err)
		}
		dbPart := &DBParticipant{UserID: userID, Role: role, Active: true}
		data, err := dbPart.MarshalBinary()
		if err != nil {
			return err
		}
		if err := chatBucket.Put(dbPart.Key(), data); err != nil {
			return err
		}

		userBucket, err := tx.Bucket(bucketUserChats).CreateBucketIfNotExists([]byte(userID))
		if err != nil {
			return fmt.Errorf("failed to create user chat index: %w", err)
		}
		return userBucket.Put([]byte(chatID), []byte{1})
	})
}

// RemoveParticipant marks the membership inactive and drops the user's
// chat index entry. The participant row is kept for history.
func (s *BboltStorage) RemoveParticipant(chatID, userID string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		chatBucket := tx.Bucket(bucketMembers).Bucket([]byte(chatID))
		if chatBucket == nil {
			return models.ErrNotFound
		}
		data := chatBucket.Get([]byte(userID))
		if data == nil {
			return models.ErrNotFound
		}
		var dbPart DBParticipant
		if err := dbPart.UnmarshalBinary(data); err != nil {
			return err
		}
		dbPart.Active = false
		updated, err := dbPart.MarshalBinary()
		if err != nil {
			return err
		}
		if err := chatBucket.Put(dbPart.Key(), updated); err != nil {
			return err
		}

		if userBucket := tx.Bucket(bucketUserChats).Bucket([]byte(userID)); userBucket != nil {
			return userBucket.Delete([]byte(chatID))
		}
		return nil
	})
}

// ListRoomsForUser returns ids of all chats the user actively belongs to.
func (s *BboltStorage) ListRoomsForUser(userID string) ([]string, error) {
	var rooms []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		userBucket := tx.Bucket(bucketUserChats).Bucket([]byte(userID))
		if userBucket == nil {
			return nil
		}
		return userBucket.ForEach(func(k, v []byte) error {
			rooms = append(rooms, string(k))
			return nil
		})
	})
	return rooms, err
}

// ListParticipants returns ids of all active participants of a chat.
func (s *BboltStorage) ListParticipants(chatID string) ([]string, error) {
	var participants []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		chatBucket := tx.Bucket(bucketMembers).Bucket([]byte(chatID))
		if chatBucket == nil {
			return nil
		}
		return chatBucket.ForEach(func(k, v []byte) error {
			var dbPart DBParticipant
			if err := dbPart.UnmarshalBinary(v); err != nil {
				return err
			}
			if dbPart.Active {
				participants = append(participants, dbPart.UserID)
			}
			return nil
		})
	})
	return participants, err
}

// VerifyParticipant reports whether userID is an active participant of chatID.
func (s *BboltStorage) VerifyParticipant(userID, chatID string) (bool, error) {
	var ok bool
	err := s.db.View(func(tx *bbolt.Tx) error {
		chatBucket := tx.Bucket(bucketMembers).Bucket([]byte(chatID))
		if chatBucket == nil {
			return nil
		}
		data := chatBucket.Get([]byte(userID))
		if data == nil {
			return nil
		}
		var dbPart DBParticipant
		if err := dbPart.UnmarshalBinary(data); err != nil {
			return err
		}
		ok = dbPart.Active
		return nil
	})
	return ok, err
}

// CreateMessage persists a message and fans out one "sent" delivery record
// per active participant excluding the sender, all in one transaction.
func (s *BboltStorage) CreateMessage(msg models.Message) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if msg.ID == "" || msg.ChatID == "" {
			return errors.New("message missing id or chatID")
		}

		dbMessage := &DBMessage{
			ID:        msg.ID,
			ChatID:    msg.ChatID,
			SenderID:  msg.SenderID,
			Type:      msg.Type,
			Content:   msg.Content,
			Timestamp: msg.Timestamp,
		}
		data, err := dbMessage.MarshalBinary()
		if err != nil {
			return fmt.Errorf("failed to marshal message: %w", err)
		}
		if err := tx.Bucket(bucketMessages).Put(dbMessage.Key(), data); err != nil {
			return fmt.Errorf("failed to put message: %w", err)
		}

		chatBucket := tx.Bucket(bucketMembers).Bucket([]byte(msg.ChatID))
		if chatBucket == nil {
			return nil // no participants recorded, nothing to fan out
		}

		statusBucket, err := tx.Bucket(bucketStatus).CreateBucketIfNotExists([]byte(msg.ID))
		if err != nil {
			return fmt.Errorf("failed to create status bucket: %w", err)
		}

		now := s.now().Unix()
		return chatBucket.ForEach(func(k, v []byte) error {
			var dbPart DBParticipant
			if err := dbPart.UnmarshalBinary(v); err != nil {
				return err
			}
			if !dbPart.Active || dbPart.UserID == msg.SenderID {
				return nil
			}
			// Re-persisting a message must never reset an advanced record.
			if statusBucket.Get([]byte(dbPart.UserID)) != nil {
				return nil
			}
			dbStatus := &DBStatus{
				UserID:     dbPart.UserID,
				Status:     string(models.StatusSent),
				StatusTime: now,
			}
			statusData, err := dbStatus.MarshalBinary()
			if err != nil {
				return err
			}
			return statusBucket.Put(dbStatus.Key(), statusData)
		})
	})
}

// GetMessage returns the stored message for id, or models.ErrNotFound.
func (s *BboltStorage) GetMessage(id string) (models.Message, error) {
	var msg models.Message
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketMessages).Get([]byte(id))
		if data == nil {
			return models.ErrNotFound
		}
		var dbMsg DBMessage
		if err := dbMsg.UnmarshalBinary(data); err != nil {
			return err
		}
		msg = models.Message{
			ID:        dbMsg.ID,
			ChatID:    dbMsg.ChatID,
			SenderID:  dbMsg.SenderID,
			Type:      dbMsg.Type,
			Content:   dbMsg.Content,
			Timestamp: dbMsg.Timestamp,
		}
		return nil
	})
	return msg, err
}

// GetMessageSender returns the sender id of a stored message.
func (s *BboltStorage) GetMessageSender(messageID string) (string, error) {
	msg, err := s.GetMessage(messageID)
	if err != nil {
		return "", err
	}
	return msg.SenderID, nil
}

// UpsertDeliveryStatus advances the (message, recipient) record to status
// and returns the previous status ("" if the record did not exist).
// Transitions are monotonic: a write that would move the status backwards
// is a no-op and the stored value is returned unchanged.
func (s *BboltStorage) UpsertDeliveryStatus(messageID, userID string, status models.DeliveryStatus) (models.DeliveryStatus, error) {
	if !status.Valid() {
		return "", fmt.Errorf("invalid delivery status %q", status)
	}

	var prev models.DeliveryStatus
	err := s.db.Update(func(tx *bbolt.Tx) error {
		msgData := tx.Bucket(bucketMessages).Get([]byte(messageID))
		if msgData == nil {
			return models.ErrNotFound
		}
		var dbMsg DBMessage
		if err := dbMsg.UnmarshalBinary(msgData); err != nil {
			return err
		}
		if dbMsg.SenderID == userID {
			return ErrOwnMessage
		}

		statusBucket, err := tx.Bucket(bucketStatus).CreateBucketIfNotExists([]byte(messageID))
		if err != nil {
			return err
		}

		if data := statusBucket.Get([]byte(userID)); data != nil {
			var existing DBStatus
			if err := existing.UnmarshalBinary(data); err != nil {
				return err
			}
			prev = models.DeliveryStatus(existing.Status)
		}

		if status.Rank() <= prev.Rank() {
			return nil
		}

		dbStatus := &DBStatus{
			UserID:     userID,
			Status:     string(status),
			StatusTime: s.now().Unix(),
		}
		data, err := dbStatus.MarshalBinary()
		if err != nil {
			return err
		}
		return statusBucket.Put(dbStatus.Key(), data)
	})
	return prev, err
}

// GetDeliveryStatus returns the delivery record for one recipient.
func (s *BboltStorage) GetDeliveryStatus(messageID, userID string) (models.StatusRecord, error) {
	var rec models.StatusRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		statusBucket := tx.Bucket(bucketStatus).Bucket([]byte(messageID))
		if statusBucket == nil {
			return models.ErrNotFound
		}
		data := statusBucket.Get([]byte(userID))
		if data == nil {
			return models.ErrNotFound
		}
		var dbStatus DBStatus
		if err := dbStatus.UnmarshalBinary(data); err != nil {
			return err
		}
		rec = models.StatusRecord{
			MessageID:  messageID,
			UserID:     dbStatus.UserID,
			Status:     models.DeliveryStatus(dbStatus.Status),
			StatusTime: dbStatus.StatusTime,
		}
		return nil
	})
	return rec, err
}

// UpsertPushSubscription stores or replaces a user's web push subscription.
func (s *BboltStorage) UpsertPushSubscription(sub models.PushSubscription) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		dbSub := &DBPushSub{
			UserID:   sub.UserID,
			Endpoint: sub.Endpoint,
			P256dh:   sub.P256dh,
			Auth:     sub.Auth,
		}
		data, err := dbSub.MarshalBinary()
		if err != nil {
			return err
		}
		return tx.Bucket(bucketPushSubs).Put(dbSub.Key(), data)
	})
}

// GetPushSubscription returns a user's push subscription, or models.ErrNotFound.
func (s *BboltStorage) GetPushSubscription(userID string) (models.PushSubscription, error) {
	var sub models.PushSubscription
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketPushSubs).Get([]byte(userID))
		if data == nil {
			return models.ErrNotFound
		}
		var dbSub DBPushSub
		if err := dbSub.UnmarshalBinary(data); err != nil {
			return err
		}
		sub = models.PushSubscription{
			UserID:   dbSub.UserID,
			Endpoint: dbSub.Endpoint,
			P256dh:   dbSub.P256dh,
			Auth:     dbSub.Auth,
		}
		return nil
	})
	return sub, err
}

// DeletePushSubscription drops a user's push subscription. Deleting a
// missing subscription is not an error.
func (s *BboltStorage) DeletePushSubscription(userID string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketPushSubs).Delete([]byte(userID))
	})
}
