package models

import "errors"

var (
	ErrNotFound = errors.New("not found")
)

// User represents a durable user account, distinct from any live connection.
type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	Online    bool   `json:"isOnline"`
	LastSeen  int64  `json:"lastSeen"` // Unix timestamp (seconds)
}

type ChatType string

const (
	ChatTypePrivate ChatType = "private"
	ChatTypeGroup   ChatType = "group"
)

// Chat represents a logical chat room. Its persisted membership list lives
// in the store; the live subscription set is kept by the ws hub.
type Chat struct {
	ID        string   `json:"id"`
	Type      ChatType `json:"type"`
	Name      string   `json:"name"`
	CreatedBy string   `json:"createdBy,omitempty"`
	CreatedAt int64    `json:"createdAt"`
}

// Message represents a chat message.
type Message struct {
	ID        string `json:"id"`
	ChatID    string `json:"chatId"`
	SenderID  string `json:"senderId"`
	Type      string `json:"type,omitempty"` // "text" unless set by the client
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"` // Unix timestamp (seconds)
}

// DeliveryStatus is the per-recipient lifecycle of a message.
// Transitions are monotonic: sent -> delivered -> read.
type DeliveryStatus string

const (
	StatusSent      DeliveryStatus = "sent"
	StatusDelivered DeliveryStatus = "delivered"
	StatusRead      DeliveryStatus = "read"
)

// Rank orders statuses for the monotonicity check. Unknown statuses rank
// below "sent" so they can never overwrite a real one.
func (s DeliveryStatus) Rank() int {
	switch s {
	case StatusSent:
		return 1
	case StatusDelivered:
		return 2
	case StatusRead:
		return 3
	}
	return 0
}

// Valid reports whether s is one of the three known statuses.
func (s DeliveryStatus) Valid() bool {
	return s.Rank() > 0
}

// StatusRecord is one (message, recipient) delivery entry.
type StatusRecord struct {
	MessageID  string         `json:"messageId"`
	UserID     string         `json:"userId"`
	Status     DeliveryStatus `json:"status"`
	StatusTime int64          `json:"statusTime"`
}

// PushSubscription holds one user's web push endpoint and keys.
type PushSubscription struct {
	UserID   string `json:"userId"`
	Endpoint string `json:"endpoint"`
	P256dh   string `json:"p256dh"`
	Auth     string `json:"auth"`
}
