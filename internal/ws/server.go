package ws

import (
	"net/http"

	"boltalka/internal/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Authenticator resolves a credential presented at connection time to a
// durable identity.
type Authenticator interface {
	Authenticate(token string) (models.User, error)
}

type Server struct {
	auth     Authenticator
	hub      *Hub
	upgrader *websocket.Upgrader
	logger   *zap.SugaredLogger
}

func NewServer(auth Authenticator, hub *Hub, logger *zap.SugaredLogger) *Server {
	return &Server{
		auth: auth,
		hub:  hub,
		upgrader: &websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins for now
			},
		},
		logger: logger,
	}
}

// HandleConnections authenticates the handshake and runs the connection
// until the transport closes. Authentication is a gate: without a valid
// credential no session is created and no other component runs.
func (s *Server) HandleConnections(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("token")
	if token == "" {
		token = r.URL.Query().Get("token")
	}

	user, err := s.auth.Authenticate(token)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Errorw("failed to upgrade to websocket", "error", err)
		return
	}

	sessionID := uuid.NewString()
	c := NewConnection(s.hub, conn, user, sessionID)
	if err := c.Handle(r.Context()); err != nil {
		s.logger.Infow("connection closed with error",
			"user_id", user.ID, "session_id", sessionID, "error", err)
	}
}
