package stream

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/featherline/backend/internal/common/constants"
	"github.com/featherline/backend/internal/common/logger"
)

type Client struct {
	conn      *websocket.Conn
	send      chan []byte
	userID    string
	log       *logger.Logger
	closeOnce sync.Once
}

func NewClient(conn *websocket.Conn, userID string, log *logger.Logger) *Client {
	return &Client{
		conn:   conn,
		send:   make(chan []byte, constants.StreamSendBufSize),
		userID: userID,
		log:    log,
	}
}

func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

// ReadPump discards inbound frames; the stream is one-way. It exists to
// drive pong handling and to notice the peer going away.
func (c *Client) ReadPump(hub *Hub) {
	defer hub.Unregister(c)

	c.conn.SetReadLimit(constants.StreamReadBufSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(constants.StreamPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(constants.StreamPongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(constants.StreamPingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(constants.StreamWriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				c.log.Debugf("stream write failed user_id=%s: %v", c.userID, err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(constants.StreamWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
