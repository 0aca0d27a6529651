package push

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"boltalka/internal/models"

	webpush "github.com/SherClockHolmes/webpush-go"
	"go.uber.org/zap"
)

// SubscriptionStore provides access to stored web push subscriptions.
type SubscriptionStore interface {
	GetPushSubscription(userID string) (models.PushSubscription, error)
	DeletePushSubscription(userID string) error
}

type Config struct {
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	Contact         string
}

// Notifier sends best-effort web push notifications to offline message
// recipients. A Notifier built without VAPID keys is disabled and all
// sends are no-ops.
type Notifier struct {
	cfg    Config
	subs   SubscriptionStore
	logger *zap.SugaredLogger

	send func(message []byte, s *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

func NewNotifier(cfg Config, subs SubscriptionStore, logger *zap.SugaredLogger) *Notifier {
	return &Notifier{
		cfg:    cfg,
		subs:   subs,
		logger: logger,
		send:   webpush.SendNotification,
	}
}

// Enabled reports whether VAPID keys are configured.
func (n *Notifier) Enabled() bool {
	return n.cfg.VAPIDPublicKey != "" && n.cfg.VAPIDPrivateKey != ""
}

type messagePayload struct {
	Kind      string `json:"kind"`
	ChatID    string `json:"chatId"`
	MessageID string `json:"messageId"`
	SenderID  string `json:"senderId"`
	Preview   string `json:"preview"`
}

// NotifyNewMessage pushes a new-message notification to userID if they
// have a stored subscription. Expired subscriptions are pruned.
func (n *Notifier) NotifyNewMessage(userID string, msg models.Message) error {
	if !n.Enabled() {
		return nil
	}

	sub, err := n.subs.GetPushSubscription(userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to load push subscription: %w", err)
	}

	payload, err := json.Marshal(messagePayload{
		Kind:      "new_message",
		ChatID:    msg.ChatID,
		MessageID: msg.ID,
		SenderID:  msg.SenderID,
		Preview:   preview(msg.Content),
	})
	if err != nil {
		return err
	}

	resp, err := n.send(payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	}, &webpush.Options{
		Subscriber:      n.cfg.Contact,
		VAPIDPublicKey:  n.cfg.VAPIDPublicKey,
		VAPIDPrivateKey: n.cfg.VAPIDPrivateKey,
		TTL:             3600,
	})
	if err != nil {
		return fmt.Errorf("failed to send push: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		n.logger.Infow("pruning expired push subscription", "user_id", userID)
		if err := n.subs.DeletePushSubscription(userID); err != nil {
			n.logger.Errorw("failed to prune push subscription", "user_id", userID, "error", err)
		}
	}

	return nil
}

const previewLimit = 120

func preview(content string) string {
	runes := []rune(content)
	if len(runes) <= previewLimit {
		return content
	}
	return string(runes[:previewLimit]) + "…"
}
