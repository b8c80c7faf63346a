package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Riciboyz/threads-backend/db/model"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	verifyTimeout = 5 * time.Second
)

// SessionVerifier resolves a bearer token to a user. A connection's identity
// always comes from a verified session, never from a client-supplied id.
type SessionVerifier interface {
	VerifySession(ctx context.Context, token string) (*model.User, error)
}

// Client is one live connection. Lifecycle: connected, optionally
// authenticated, disconnected. Nothing about it is persisted.
type Client struct {
	logger   *logrus.Logger
	hub      *Hub
	conn     *websocket.Conn
	verifier SessionVerifier
	send     chan []byte

	// userID is set before the pumps start or on the read pump; only the
	// read path consults it.
	userID string

	// topics is owned by the hub goroutine once the client registers.
	topics map[string]bool
}

type ClientCfg struct {
	Logger   *logrus.Logger
	Hub      *Hub
	Conn     *websocket.Conn
	Verifier SessionVerifier
	UserID   string
}

func NewClient(cfg *ClientCfg) *Client {
	c := &Client{
		logger:   cfg.Logger,
		hub:      cfg.Hub,
		conn:     cfg.Conn,
		verifier: cfg.Verifier,
		send:     make(chan []byte, 256),
		userID:   cfg.UserID,
		topics:   make(map[string]bool),
	}
	if cfg.UserID != "" {
		c.topics[UserTopic(cfg.UserID)] = true
	}
	return c
}

func (c *Client) Send() chan []byte {
	return c.send
}

// ReadPump consumes inbound events until the connection drops, then
// unregisters the client.
func (c *Client) ReadPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(appData string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.WithError(err).Warn("ws: read")
			}
			break
		}
		var evt Event
		if err := json.Unmarshal(msg, &evt); err != nil {
			c.logger.WithError(err).Warn("ws: dropping malformed event")
			continue
		}
		c.handleEvent(&evt)
	}
}

// WritePump flushes the send channel to the peer and keeps the connection
// alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(msg)

			// Add queued events to the current websocket message.
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte("\n"))
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleEvent routes one inbound event. Malformed events are dropped and
// logged; the relay raises no typed errors to clients.
func (c *Client) handleEvent(evt *Event) {
	switch evt.Event {
	case EventAuthenticate:
		var p authPayload
		if err := json.Unmarshal(evt.Payload, &p); err != nil || p.Token == "" {
			c.logger.Warn("ws: dropping malformed authenticate")
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), verifyTimeout)
		defer cancel()
		u, err := c.verifier.VerifySession(ctx, p.Token)
		if err != nil {
			c.logger.WithError(err).Warn("ws: authenticate rejected")
			return
		}
		c.userID = u.ID
		c.hub.Subscribe(c, UserTopic(u.ID))
	case EventJoinGroup:
		var p groupPayload
		if err := json.Unmarshal(evt.Payload, &p); err != nil || p.GroupID == "" {
			c.logger.Warn("ws: dropping malformed join_group")
			return
		}
		c.hub.Subscribe(c, GroupTopic(p.GroupID))
	case EventLeaveGroup:
		var p groupPayload
		if err := json.Unmarshal(evt.Payload, &p); err != nil || p.GroupID == "" {
			c.logger.Warn("ws: dropping malformed leave_group")
			return
		}
		c.hub.Unsubscribe(c, GroupTopic(p.GroupID))
	case EventTypingStart, EventTypingStop:
		if c.userID == "" {
			return
		}
		var p groupPayload
		if err := json.Unmarshal(evt.Payload, &p); err != nil || p.GroupID == "" {
			c.logger.Warn("ws: dropping malformed typing event")
			return
		}
		c.hub.PublishExcept(evt.Event, typingPayload{GroupID: p.GroupID, UserID: c.userID}, GroupTopic(p.GroupID), c)
	default:
		c.logger.WithField("event", evt.Event).Warn("ws: dropping unknown event")
	}
}
