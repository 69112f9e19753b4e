package fanout

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	sendBuffer = 256
)

var ErrConnectionClosed = errors.New("connection closed")

// Connection wraps one websocket session and serializes outbound writes
// through a buffered channel. Safe for concurrent Send calls.
type Connection struct {
	id     string
	userID uuid.UUID

	ws     *websocket.Conn
	logger *slog.Logger

	send      chan []byte
	closeChan chan struct{}
	closeOnce sync.Once
}

// NewConnection builds a Connection for an authenticated user and starts
// its write loop.
func NewConnection(userID uuid.UUID, ws *websocket.Conn, logger *slog.Logger) *Connection {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Connection{
		id:        uuid.NewString(),
		userID:    userID,
		ws:        ws,
		logger:    logger,
		send:      make(chan []byte, sendBuffer),
		closeChan: make(chan struct{}),
	}
	go c.writeLoop()
	return c
}

func (c *Connection) ID() string {
	return c.id
}

func (c *Connection) UserID() uuid.UUID {
	return c.userID
}

// Send enqueues a payload for delivery. A full buffer closes the
// connection to keep backpressure bounded; the payload is dropped, not
// retried.
func (c *Connection) Send(payload []byte) error {
	select {
	case <-c.closeChan:
		return ErrConnectionClosed
	case c.send <- payload:
		return nil
	default:
		c.Close()
		return errors.New("send buffer full")
	}
}

// Close terminates the connection and stops the write loop.
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		close(c.closeChan)
	})
}

func (c *Connection) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case payload := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				c.logger.Debug("websocket write failed", "conn", c.id, "error", err)
				c.Close()
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		case <-c.closeChan:
			return
		}
	}
}
