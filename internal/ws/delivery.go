package ws

import (
	"boltalka/internal/models"

	"go.uber.org/zap"
)

// OfflineNotifier receives recipients who were not reachable over a live
// session when a message was created.
type OfflineNotifier interface {
	NotifyNewMessage(userID string, msg models.Message) error
}

// delivery advances per-recipient status records through the
// sent -> delivered -> read lattice and notifies the sender's live
// sessions of each transition. The store enforces monotonicity; delivery
// decides when a transition is due.
type delivery struct {
	store    Store
	registry *Registry
	rooms    *Rooms
	notifier OfflineNotifier
	logger   *zap.SugaredLogger
}

// messageCreated runs the post-persist pass for a freshly stored message:
// every recipient currently online and subscribed to the room moves to
// "delivered" and the sender is told; everyone else keeps "sent" and gets
// a best-effort push notification. Called outside any in-memory lock.
func (d *delivery) messageCreated(msg models.Message) {
	participants, err := d.store.ListParticipants(msg.ChatID)
	if err != nil {
		d.logger.Errorw("failed to list participants for delivery pass",
			"chat_id", msg.ChatID, "message_id", msg.ID, "error", err)
		return
	}

	for _, userID := range participants {
		if userID == msg.SenderID {
			continue
		}

		if !d.registry.IsOnline(userID) || !d.subscribedToRoom(userID, msg.ChatID) {
			if d.notifier != nil {
				if err := d.notifier.NotifyNewMessage(userID, msg); err != nil {
					d.logger.Errorw("failed to push offline notification",
						"user_id", userID, "message_id", msg.ID, "error", err)
				}
			}
			continue
		}

		prev, err := d.store.UpsertDeliveryStatus(msg.ID, userID, models.StatusDelivered)
		if err != nil {
			d.logger.Errorw("failed to mark message delivered",
				"user_id", userID, "message_id", msg.ID, "error", err)
			continue
		}
		if prev.Rank() >= models.StatusDelivered.Rank() {
			continue
		}

		d.registry.SendToUser(msg.SenderID, models.ServerEvent{
			Type:      models.ServerEventStatusUpdate,
			MessageID: msg.ID,
			Status:    models.StatusDelivered,
			UserID:    userID,
		})
	}
}

// acknowledge handles an explicit message_delivered/message_read event
// from a recipient. The sender's live sessions, if any, are notified;
// an offline sender gets nothing and reconciles over the history API.
func (d *delivery) acknowledge(userID, messageID string, status models.DeliveryStatus) error {
	senderID, err := d.store.GetMessageSender(messageID)
	if err != nil {
		return err
	}
	if senderID == userID {
		// No delivery record exists for the message's own sender.
		return nil
	}

	if _, err := d.store.UpsertDeliveryStatus(messageID, userID, status); err != nil {
		return err
	}

	d.registry.SendToUser(senderID, models.ServerEvent{
		Type:      models.ServerEventStatusUpdate,
		MessageID: messageID,
		Status:    status,
		UserID:    userID,
	})
	return nil
}

// subscribedToRoom reports whether any of the identity's sessions
// currently listens to roomID.
func (d *delivery) subscribedToRoom(userID, roomID string) bool {
	for _, sessionID := range d.registry.SessionsOf(userID) {
		if d.rooms.IsSubscribed(sessionID, roomID) {
			return true
		}
	}
	return false
}
