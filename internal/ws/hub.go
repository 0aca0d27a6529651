package ws

import (
	"errors"
	"strings"
	"time"

	"boltalka/internal/content"
	"boltalka/internal/models"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Store is the persistence collaborator consumed by the hub. Calls are
// synchronous but never made while an in-memory lock is held.
type Store interface {
	ListRoomsForUser(userID string) ([]string, error)
	ListParticipants(chatID string) ([]string, error)
	VerifyParticipant(userID, chatID string) (bool, error)
	GetMessageSender(messageID string) (string, error)
	UpsertDeliveryStatus(messageID, userID string, status models.DeliveryStatus) (models.DeliveryStatus, error)
	SetOnlineStatus(userID string, online bool) error
	CreateMessage(msg models.Message) error
}

// Hub routes every inbound event to the presence, room, typing and
// delivery components. It owns all live in-memory state; none of it
// survives a restart, it is rebuilt from the store plus new connections.
type Hub struct {
	registry *Registry
	rooms    *Rooms
	typing   *typingTracker
	delivery *delivery
	store    Store
	logger   *zap.SugaredLogger
}

func NewHub(store Store, notifier OfflineNotifier, logger *zap.SugaredLogger) *Hub {
	registry := NewRegistry()
	rooms := NewRooms()
	return &Hub{
		registry: registry,
		rooms:    rooms,
		typing:   newTypingTracker(),
		delivery: &delivery{
			store:    store,
			registry: registry,
			rooms:    rooms,
			notifier: notifier,
			logger:   logger,
		},
		store:  store,
		logger: logger,
	}
}

// Connect registers an authenticated session, subscribes it to all rooms
// the identity belongs to, and announces presence. The announcement is a
// direct continuation of the subscription step, never a timer: presence
// must not be heard in rooms the session has not joined yet.
func (h *Hub) Connect(user models.User, sessionID string) chan models.ServerEvent {
	ch, first := h.registry.Register(user.ID, sessionID)

	if first {
		if err := h.store.SetOnlineStatus(user.ID, true); err != nil {
			h.logger.Errorw("failed to persist online status",
				"user_id", user.ID, "error", err)
		}
	}

	roomIDs, err := h.store.ListRoomsForUser(user.ID)
	if err != nil {
		// The session stays connected with no subscriptions; join_chat
		// can still attach it to rooms later.
		h.logger.Errorw("failed to list rooms at connect",
			"user_id", user.ID, "session_id", sessionID, "error", err)
	}
	for _, roomID := range roomIDs {
		h.rooms.Subscribe(sessionID, roomID)
	}

	if first {
		h.broadcastPresence(user.ID, roomIDs, true, sessionID)
	}

	h.logger.Infow("session connected",
		"user_id", user.ID, "session_id", sessionID, "rooms", len(roomIDs))
	return ch
}

// Disconnect finalizes a closed session. Every step is best-effort and
// runs to completion even when the store is unavailable; a single failing
// call never skips the remaining cleanup.
func (h *Hub) Disconnect(sessionID string) {
	droppedRooms := h.rooms.DropSession(sessionID)

	userID, last, ok := h.registry.Deregister(sessionID)
	if !ok {
		return
	}
	h.logger.Infow("session disconnected",
		"user_id", userID, "session_id", sessionID, "last", last)
	if !last {
		return
	}

	// Purge typing marks before announcing the disconnect so a stale
	// "is typing" indicator never outlives the presence change.
	for _, roomID := range h.typing.Purge(userID) {
		h.broadcast(roomID, models.ServerEvent{
			Type:   models.ServerEventTypingStop,
			ChatID: roomID,
			UserID: userID,
		}, sessionID)
	}

	if err := h.store.SetOnlineStatus(userID, false); err != nil {
		h.logger.Errorw("failed to persist offline status",
			"user_id", userID, "error", err)
	}

	roomIDs, err := h.store.ListRoomsForUser(userID)
	if err != nil {
		h.logger.Errorw("failed to list rooms at disconnect",
			"user_id", userID, "error", err)
		roomIDs = droppedRooms
	}
	h.broadcastPresence(userID, roomIDs, false, sessionID)
}

// HandleEvent dispatches one inbound frame from a live session.
func (h *Hub) HandleEvent(user models.User, sessionID string, ev models.ClientEvent) {
	switch ev.Type {
	case models.ClientEventSendMessage:
		h.handleSendMessage(user, sessionID, ev)
	case models.ClientEventTypingStart:
		h.handleTyping(user, sessionID, ev.ChatID, true)
	case models.ClientEventTypingStop:
		h.handleTyping(user, sessionID, ev.ChatID, false)
	case models.ClientEventMessageDelivered:
		h.handleAck(user, sessionID, ev, models.StatusDelivered)
	case models.ClientEventMessageRead:
		h.handleAck(user, sessionID, ev, models.StatusRead)
	case models.ClientEventJoinChat:
		h.handleJoinChat(user, sessionID, ev.ChatID)
	case models.ClientEventLeaveChat:
		h.rooms.Unsubscribe(sessionID, ev.ChatID)
	case models.ClientEventGetOnlineUsers:
		h.handleGetOnlineUsers(sessionID, ev.ChatID)
	default:
		h.sendError(sessionID, "unknown event type")
	}
}

func (h *Hub) handleSendMessage(user models.User, sessionID string, ev models.ClientEvent) {
	if ev.Message == nil {
		h.sendError(sessionID, "message payload is required")
		return
	}
	chatID := ev.ChatID
	if chatID == "" {
		chatID = ev.Message.ChatID
	}
	if chatID == "" || strings.TrimSpace(ev.Message.Content) == "" {
		h.sendError(sessionID, "chatId and message content are required")
		return
	}

	ok, err := h.store.VerifyParticipant(user.ID, chatID)
	if err != nil {
		h.logger.Errorw("failed to verify participant",
			"user_id", user.ID, "chat_id", chatID, "error", err)
		h.sendError(sessionID, "failed to send message")
		return
	}
	if !ok {
		h.sendError(sessionID, "access denied")
		return
	}

	msg := *ev.Message
	msg.ChatID = chatID
	msg.SenderID = user.ID
	msg.Content = content.Sanitize(msg.Content)
	if msg.Type == "" {
		msg.Type = "text"
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
		msg.Timestamp = time.Now().Unix()
	}

	// Relay first. The broadcaster and the persistence writer are
	// independent best-effort paths; a failed write is not rolled back
	// out of subscribers' buffers.
	h.broadcast(chatID, models.ServerEvent{
		Type:    models.ServerEventNewMessage,
		ChatID:  chatID,
		Message: &msg,
	}, sessionID)

	if err := h.store.CreateMessage(msg); err != nil {
		h.logger.Errorw("failed to persist message",
			"message_id", msg.ID, "chat_id", chatID, "error", err)
		h.sendError(sessionID, "failed to send message")
		return
	}

	h.delivery.messageCreated(msg)
}

func (h *Hub) handleTyping(user models.User, sessionID, chatID string, start bool) {
	if chatID == "" {
		h.sendError(sessionID, "chatId is required")
		return
	}
	// Subscription implies membership, so this check needs no store call.
	if !h.rooms.IsSubscribed(sessionID, chatID) {
		h.sendError(sessionID, "access denied")
		return
	}

	if start {
		h.typing.Start(chatID, user.ID)
		h.broadcast(chatID, models.ServerEvent{
			Type:     models.ServerEventTypingStart,
			ChatID:   chatID,
			UserID:   user.ID,
			UserName: user.Name,
		}, sessionID)
		return
	}

	h.typing.Stop(chatID, user.ID)
	h.broadcast(chatID, models.ServerEvent{
		Type:   models.ServerEventTypingStop,
		ChatID: chatID,
		UserID: user.ID,
	}, sessionID)
}

func (h *Hub) handleAck(user models.User, sessionID string, ev models.ClientEvent, status models.DeliveryStatus) {
	if ev.MessageID == "" {
		h.sendError(sessionID, "messageId is required")
		return
	}

	if err := h.delivery.acknowledge(user.ID, ev.MessageID, status); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			h.sendError(sessionID, "message not found")
			return
		}
		// Store trouble degrades only this event; the session stays up.
		h.logger.Errorw("failed to record acknowledgement",
			"user_id", user.ID, "message_id", ev.MessageID, "status", status, "error", err)
	}
}

func (h *Hub) handleJoinChat(user models.User, sessionID, chatID string) {
	if chatID == "" {
		h.sendError(sessionID, "chatId is required")
		return
	}

	ok, err := h.store.VerifyParticipant(user.ID, chatID)
	if err != nil {
		h.logger.Errorw("failed to verify participant",
			"user_id", user.ID, "chat_id", chatID, "error", err)
		h.sendError(sessionID, "failed to join chat")
		return
	}
	if !ok {
		h.sendError(sessionID, "access denied")
		return
	}

	h.rooms.Subscribe(sessionID, chatID)
}

func (h *Hub) handleGetOnlineUsers(sessionID, chatID string) {
	if chatID == "" {
		h.sendError(sessionID, "chatId is required")
		return
	}

	participants, err := h.store.ListParticipants(chatID)
	if err != nil {
		h.logger.Errorw("failed to list participants",
			"chat_id", chatID, "error", err)
	}
	online := lo.Filter(participants, func(userID string, _ int) bool {
		return h.registry.IsOnline(userID)
	})

	h.registry.Send(sessionID, models.ServerEvent{
		Type:        models.ServerEventOnlineUsersList,
		ChatID:      chatID,
		OnlineUsers: online,
	})
}

// broadcast delivers ev to every session currently subscribed to roomID
// except the excluded one. A room with no subscribers drops the event
// silently; catching up offline participants is the store's job.
func (h *Hub) broadcast(roomID string, ev models.ServerEvent, excludeSession string) {
	for _, sessionID := range h.rooms.Subscribers(roomID) {
		if sessionID == excludeSession {
			continue
		}
		h.registry.Send(sessionID, ev)
	}
}

func (h *Hub) broadcastPresence(userID string, roomIDs []string, online bool, excludeSession string) {
	evType := models.ServerEventUserConnected
	if !online {
		evType = models.ServerEventUserDisconnected
	}
	for _, roomID := range roomIDs {
		h.broadcast(roomID, models.ServerEvent{
			Type:     evType,
			ChatID:   roomID,
			UserID:   userID,
			IsOnline: online,
		}, excludeSession)
	}
}

func (h *Hub) sendError(sessionID, message string) {
	h.registry.Send(sessionID, models.ServerEvent{
		Type:  models.ServerEventError,
		Error: message,
	})
}
