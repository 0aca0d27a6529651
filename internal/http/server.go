package http

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"boltalka/internal/models"
	"boltalka/internal/ws"
)

// SubscriptionStore persists web push subscriptions registered over the
// REST surface.
type SubscriptionStore interface {
	UpsertPushSubscription(sub models.PushSubscription) error
	DeletePushSubscription(userID string) error
}

// Server is the single HTTP front: the websocket endpoint, a health
// probe and the push subscription management calls.
type Server struct {
	server *http.Server
	logger *zap.SugaredLogger
	wg     sync.WaitGroup
}

func NewServer(auth ws.Authenticator, wsServer *ws.Server, subs SubscriptionStore, addr string, logger *zap.SugaredLogger) *Server {
	s := &Server{logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsServer.HandleConnections)
	mux.HandleFunc("POST /api/push-subscription", requireAuth(auth, s.subscribeHandler(subs)))
	mux.HandleFunc("DELETE /api/push-subscription", requireAuth(auth, s.unsubscribeHandler(subs)))

	if addr == "" {
		addr = ":8080"
	}
	s.server = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return s
}

// requireAuth gates a handler on the same token credential the
// websocket handshake uses.
func requireAuth(auth ws.Authenticator, next func(http.ResponseWriter, *http.Request, models.User)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("token")
		if token == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		user, err := auth.Authenticate(token)
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r, user)
	}
}

func (s *Server) subscribeHandler(subs SubscriptionStore) func(http.ResponseWriter, *http.Request, models.User) {
	return func(w http.ResponseWriter, r *http.Request, user models.User) {
		// Body follows the browser PushSubscription.toJSON() shape.
		var body struct {
			Endpoint string `json:"endpoint"`
			Keys     struct {
				P256dh string `json:"p256dh"`
				Auth   string `json:"auth"`
			} `json:"keys"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid body", http.StatusBadRequest)
			return
		}
		if body.Endpoint == "" || body.Keys.P256dh == "" || body.Keys.Auth == "" {
			http.Error(w, "endpoint and keys are required", http.StatusBadRequest)
			return
		}

		err := subs.UpsertPushSubscription(models.PushSubscription{
			UserID:   user.ID,
			Endpoint: body.Endpoint,
			P256dh:   body.Keys.P256dh,
			Auth:     body.Keys.Auth,
		})
		if err != nil {
			s.logger.Errorw("failed to store push subscription",
				"user_id", user.ID, "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) unsubscribeHandler(subs SubscriptionStore) func(http.ResponseWriter, *http.Request, models.User) {
	return func(w http.ResponseWriter, r *http.Request, user models.User) {
		if err := subs.DeletePushSubscription(user.ID); err != nil {
			s.logger.Errorw("failed to delete push subscription",
				"user_id", user.ID, "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) Start() error {
	s.logger.Infow("http server started", "addr", s.server.Addr)
	s.wg.Add(1)
	defer s.wg.Done()

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	defer s.wg.Wait()
	return s.server.Shutdown(ctx)
}
