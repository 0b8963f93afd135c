package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"schnicken/internal/service"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 30 * time.Second
	pingPeriod     = 25 * time.Second
	actionTimeout  = 10 * time.Second
	maxMessageSize = 4096
)

type Client struct {
	PlayerID string
	Conn     *websocket.Conn
	Send     chan []byte
	Hub      *Hub

	sendMu sync.Mutex
	closed bool
}

func NewClient(playerID string, conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		PlayerID: playerID,
		Conn:     conn,
		Send:     make(chan []byte, 256),
		Hub:      hub,
	}
}

// Run registers the client, sends the ready handshake and blocks until the
// connection is gone.
func (c *Client) Run() {
	c.Hub.Register(c)
	go c.writePump()

	if msg, err := encode(MsgReady, map[string]string{"player_id": c.PlayerID}); err == nil {
		c.trySend(msg)
	}
	c.readPump()
}

func (c *Client) trySend(msg []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return true
	}
	select {
	case c.Send <- msg:
		return true
	default:
		return false
	}
}

func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

//read
func (c *Client) readPump() {
	defer func() {
		c.Hub.Unregister(c)
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.Hub.log.Debug("read error", "player_id", c.PlayerID, "error", err)
			}
			return
		}
		_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		c.handleMessage(msg)
	}
}

//write
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.Hub.log.Debug("write error", "player_id", c.PlayerID, "error", err)
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.sendError(http.StatusBadRequest, "invalid message")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
	defer cancel()

	switch env.Type {
	case MsgPing:
		if msg, err := encode(MsgPong, nil); err == nil {
			c.trySend(msg)
		}

	case MsgSubmit:
		var p SubmitPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil || p.GameID == "" {
			c.sendError(http.StatusBadRequest, "invalid submit payload")
			return
		}
		// the result reaches the client as events
		if _, err := c.Hub.actions.SubmitNumber(ctx, p.GameID, c.PlayerID, p.Round, p.Value); err != nil {
			c.sendActionError(err)
		}

	case MsgWager:
		var p WagerPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil || p.GameID == "" {
			c.sendError(http.StatusBadRequest, "invalid wager payload")
			return
		}
		if _, err := c.Hub.actions.SetWager(ctx, p.GameID, c.PlayerID, p.Value); err != nil {
			c.sendActionError(err)
		}

	default:
		c.sendError(http.StatusBadRequest, "unknown message type: "+env.Type)
	}
}

func (c *Client) sendActionError(err error) {
	status, text := service.Describe(err)
	if status >= http.StatusInternalServerError {
		c.Hub.log.Error("ws action failed", "player_id", c.PlayerID, "error", err)
	}
	c.sendError(status, text)
}

func (c *Client) sendError(status int, text string) {
	if msg, err := encode(MsgError, ErrorPayload{Message: text, Status: status}); err == nil {
		c.trySend(msg)
	}
}
