package models

type ClientEventType string

const (
	ClientEventSendMessage      ClientEventType = "send_message"
	ClientEventTypingStart      ClientEventType = "typing_start"
	ClientEventTypingStop       ClientEventType = "typing_stop"
	ClientEventMessageDelivered ClientEventType = "message_delivered"
	ClientEventMessageRead      ClientEventType = "message_read"
	ClientEventJoinChat         ClientEventType = "join_chat"
	ClientEventLeaveChat        ClientEventType = "leave_chat"
	ClientEventGetOnlineUsers   ClientEventType = "get_online_users"
)

type ServerEventType string

const (
	ServerEventNewMessage       ServerEventType = "new_message"
	ServerEventTypingStart      ServerEventType = "typing_start"
	ServerEventTypingStop       ServerEventType = "typing_stop"
	ServerEventStatusUpdate     ServerEventType = "message_status_update"
	ServerEventOnlineUsersList  ServerEventType = "online_users_list"
	ServerEventUserConnected    ServerEventType = "user_connected"
	ServerEventUserDisconnected ServerEventType = "user_disconnected"
	ServerEventError            ServerEventType = "error"
)

// ClientEvent is one inbound frame from a connected session.
type ClientEvent struct {
	Type      ClientEventType `json:"type"`
	ChatID    string          `json:"chatId,omitempty"`
	MessageID string          `json:"messageId,omitempty"`
	Message   *Message        `json:"message,omitempty"`
}

// ServerEvent is one outbound frame to a connected session.
type ServerEvent struct {
	Type        ServerEventType `json:"type"`
	ChatID      string          `json:"chatId,omitempty"`
	UserID      string          `json:"userId,omitempty"`
	UserName    string          `json:"userName,omitempty"`
	MessageID   string          `json:"messageId,omitempty"`
	Status      DeliveryStatus  `json:"status,omitempty"`
	IsOnline    bool            `json:"isOnline"`
	OnlineUsers []string        `json:"onlineUsers,omitempty"`
	Message     *Message        `json:"message,omitempty"`
	Error       string          `json:"error,omitempty"`
}
