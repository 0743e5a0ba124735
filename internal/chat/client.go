package chat

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"socket-chat/internal/logging"
)

const (
	writeWait      = 10 * time.Second    // Time allowed to write a message to the peer.
	pongWait       = 60 * time.Second    // Time allowed to read the next pong message from the peer.
	pingPeriod     = (pongWait * 9) / 10 // Send pings to peer with this period. Must be less than pongWait.
	maxMessageSize = 64 * 1024           // Maximum inbound frame size.
)

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	id        ConnID
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	log       logging.Logger
	closeOnce sync.Once
}

func NewClient(id ConnID, hub *Hub, conn *websocket.Conn, buffer int, log logging.Logger) *Client {
	return &Client{
		id:   id,
		hub:  hub,
		conn: conn,
		send: make(chan []byte, buffer),
		log:  log.With("conn", id),
	}
}

func (c *Client) ID() ConnID { return c.id }

func (c *Client) Enqueue(frame []byte) bool {
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// Close stops the write pump. The transport guarantees no Enqueue follows.
func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.send) })
}

// ReadPump pumps frames from the websocket connection to the hub. It returns
// when the peer goes away, after telling the hub.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.Disconnect(ctx, c.id)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Warn(ctx, "websocket read failed", "error", err)
			}
			return
		}

		ev, err := DecodeInbound(frame)
		if err != nil {
			c.log.Warn(ctx, "ignoring inbound frame", "error", err)
			continue
		}
		c.hub.Handle(ctx, c.id, ev)
		if _, ok := ev.(DisconnectEvent); ok {
			return
		}
	}
}

// WritePump pumps frames from the hub to the websocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
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
