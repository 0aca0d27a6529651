package ws

import (
	"context"
	"errors"
	"sync"

	"boltalka/internal/models"
)

type wsConn interface {
	Close() error
	WriteJSON(v any) error
	ReadJSON(v any) error
}

type eventHub interface {
	Connect(user models.User, sessionID string) chan models.ServerEvent
	Disconnect(sessionID string)
	HandleEvent(user models.User, sessionID string, ev models.ClientEvent)
}

// Connection pumps frames between one websocket and the hub. Events from
// a single session are processed in the order received; there is no
// ordering guarantee across sessions.
type Connection struct {
	ws         wsConn
	hub        eventHub
	user       models.User
	sessionID  string
	fromClient chan models.ClientEvent
	fromServer chan models.ServerEvent
	errorCh    chan error
}

func NewConnection(hub eventHub, ws wsConn, user models.User, sessionID string) *Connection {
	return &Connection{
		ws:         ws,
		hub:        hub,
		user:       user,
		sessionID:  sessionID,
		fromClient: make(chan models.ClientEvent),
		fromServer: hub.Connect(user, sessionID),
		errorCh:    make(chan error, 2),
	}
}

func (c *Connection) Handle(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		close(c.fromClient)
		close(c.errorCh)
		// Cleanup must complete even though the transport is gone:
		// deregistration, typing purge and the offline announcement all
		// happen inside Disconnect.
		c.hub.Disconnect(c.sessionID)
	}()

	var wg sync.WaitGroup
	wg.Go(func() {
		c.errorCh <- c.pumpEvents(ctx)
		cancel()
	})

	wg.Go(func() {
		c.errorCh <- c.mainLoop(ctx)
		cancel()
	})

	// Cancellation surfaces here too: mainLoop exits on ctx.Done and
	// reports nil, so the first value is the real failure when there
	// was one.
	err := <-c.errorCh
	c.ws.Close()
	wg.Wait()

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	return nil
}

func (c *Connection) pumpEvents(ctx context.Context) error {
	for {
		var ev models.ClientEvent
		if err := c.ws.ReadJSON(&ev); err != nil {
			return err
		}
		select {
		case c.fromClient <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *Connection) mainLoop(ctx context.Context) error {
	for {
		select {
		case ev := <-c.fromClient:
			c.hub.HandleEvent(c.user, c.sessionID, ev)
		case ev := <-c.fromServer:
			if err := c.ws.WriteJSON(ev); err != nil {
				return err
			}
		case <-ctx.Done():
			return nil
		}
	}
}
