package storage

import (
	"encoding"

	"github.com/vmihailenco/msgpack/v5"
)

type Storeable interface {
	Key() []byte
	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler
}

type DBUser struct {
	ID           string `msgpack:"id"`
	Name         string `msgpack:"name"`
	Email        string `msgpack:"email"`
	AvatarURL    string `msgpack:"avatarUrl"`
	PasswordHash string `msgpack:"passwordHash"`
	Online       bool   `msgpack:"isOnline"`
	LastSeen     int64  `msgpack:"lastSeen"`
}

func (u *DBUser) Key() []byte {
	return []byte(u.ID)
}

func (u *DBUser) MarshalBinary() (data []byte, err error) {
	type alias DBUser
	return msgpack.Marshal((*alias)(u))
}

func (u *DBUser) UnmarshalBinary(data []byte) error {
	type alias DBUser
	return msgpack.Unmarshal(data, (*alias)(u))
}

type DBChat struct {
	ID        string `msgpack:"id"`
	Type      string `msgpack:"type"`
	Name      string `msgpack:"name"`
	CreatedBy string `msgpack:"createdBy"`
	CreatedAt int64  `msgpack:"createdAt"`
}

func (c *DBChat) Key() []byte {
	return []byte(c.ID)
}

func (c *DBChat) MarshalBinary() (data []byte, err error) {
	type alias DBChat
	return msgpack.Marshal((*alias)(c))
}

func (c *DBChat) UnmarshalBinary(data []byte) error {
	type alias DBChat
	return msgpack.Unmarshal(data, (*alias)(c))
}

type DBParticipant struct {
	UserID string `msgpack:"userId"`
	Role   string `msgpack:"role"`
	Active bool   `msgpack:"isActive"`
}

func (p *DBParticipant) Key() []byte {
	return []byte(p.UserID)
}

func (p *DBParticipant) MarshalBinary() (data []byte, err error) {
	type alias DBParticipant
	return msgpack.Marshal((*alias)(p))
}

func (p *DBParticipant) UnmarshalBinary(data []byte) error {
	type alias DBParticipant
	return msgpack.Unmarshal(data, (*alias)(p))
}

type DBMessage struct {
	ID        string `msgpack:"id"`
	ChatID    string `msgpack:"chatId"`
	SenderID  string `msgpack:"senderId"`
	Type      string `msgpack:"type"`
	Content   string `msgpack:"content"`
	Timestamp int64  `msgpack:"timestamp"`
}

func (m *DBMessage) Key() []byte {
	return []byte(m.ID)
}

func (m *DBMessage) MarshalBinary() (data []byte, err error) {
	type alias DBMessage
	return msgpack.Marshal((*alias)(m))
}

func (m *DBMessage) UnmarshalBinary(data []byte) error {
	type alias DBMessage
	return msgpack.Unmarshal(data, (*alias)(m))
}

// DBStatus is one (message, recipient) delivery entry. It lives in a
// per-message sub-bucket keyed by recipient id.
type DBStatus struct {
	UserID     string `msgpack:"userId"`
	Status     string `msgpack:"status"`
	StatusTime int64  `msgpack:"statusTime"`
}

func (s *DBStatus) Key() []byte {
	return []byte(s.UserID)
}

func (s *DBStatus) MarshalBinary() (data []byte, err error) {
	type alias DBStatus
	return msgpack.Marshal((*alias)(s))
}

func (s *DBStatus) UnmarshalBinary(data []byte) error {
	type alias DBStatus
	return msgpack.Unmarshal(data, (*alias)(s))
}

type DBPushSub struct {
	UserID   string `msgpack:"userId"`
	Endpoint string `msgpack:"endpoint"`
	P256dh   string `msgpack:"p256dh"`
	Auth     string `msgpack:"auth"`
}

func (p *DBPushSub) Key() []byte {
	return []byte(p.UserID)
}

func (p *DBPushSub) MarshalBinary() (data []byte, err error) {
	type alias DBPushSub
	return msgpack.Marshal((*alias)(p))
}

func (p *DBPushSub) UnmarshalBinary(data []byte) error {
	type alias DBPushSub
	return msgpack.Unmarshal(data, (*alias)(p))
}
