/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package hub

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

// Client is one websocket connection and the ephemeral player identity
// minted for it.
type Client struct {
	id      string
	conn    *websocket.Conn
	send    chan []byte
	limiter *rate.Limiter

	// room is the code of the joined room; owned by the hub goroutine.
	room string

	closeOnce sync.Once
}

func newClient(conn *websocket.Conn, limit rate.Limit, burst int) *Client {
	return &Client{
		id:      uuid.NewString(),
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		limiter: rate.NewLimiter(limit, burst),
	}
}

func (c *Client) ID() string {
	return c.id
}

// enqueue never blocks; it reports false when the client is not keeping up.
func (c *Client) enqueue(msg []byte) bool {
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		kind, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("connection lost", zap.String("player", c.id), zap.Error(err))
			}
			return
		}
		if kind != websocket.TextMessage {
			continue
		}
		if !c.limiter.Allow() {
			h.log.Debug("dropped message", zap.String("player", c.id), zap.Error(ErrRateLimited))
			continue
		}

		select {
		case h.inbound <- inbound{client: c, data: data}:
		case <-h.done:
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
