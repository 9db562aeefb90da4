package server

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"stock-pulse/src/models"
)

// -----------------------------------------------------------------------------
// Constants
// -----------------------------------------------------------------------------

const (
	writeWait      = 2 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 16
)

// -----------------------------------------------------------------------------
// Client Structure
// -----------------------------------------------------------------------------

// Client is one websocket connection and its subscription state. The mutex
// guards the symbol set against the poll loop snapshotting it mid-mutation;
// nothing is shared across connections.
type Client struct {
	server *Server
	conn   *websocket.Conn
	send   chan models.MStreamMessage
	done   chan struct{}

	mu         sync.Mutex
	symbols    map[string]struct{}
	order      []string
	pollCancel context.CancelFunc
	closed     bool
}

// -----------------------------------------------------------------------------

func newClient(s *Server, conn *websocket.Conn) *Client {
	return &Client{
		server:  s,
		conn:    conn,
		send:    make(chan models.MStreamMessage, sendBufferSize),
		done:    make(chan struct{}),
		symbols: make(map[string]struct{}),
	}
}

// -----------------------------------------------------------------------------
// readPump - handles incoming messages from client
// Acts as a watchdog for the connection
// -----------------------------------------------------------------------------

func (c *Client) readPump() {
	defer func() {
		c.close()
		c.server.removeClient(c)
		c.conn.Close()
		c.server.Logger.Info("Client disconnected")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.server.Logger.Info("WebSocket error: %v", err)
			}
			break
		}
		c.handleCommand(message)
	}
}

// -----------------------------------------------------------------------------
// writePump - sends messages to client
// -----------------------------------------------------------------------------

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(message); err != nil {
				c.server.Logger.Info("Write error: %v", err)
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// -----------------------------------------------------------------------------
// Outbound helpers
// -----------------------------------------------------------------------------

// push queues a message for the write pump. Closed or slow connections are
// skipped silently.
func (c *Client) push(msg models.MStreamMessage) {
	select {
	case <-c.done:
	case c.send <- msg:
	default:
	}
}

// -----------------------------------------------------------------------------

func (c *Client) sendError(message string) {
	c.push(models.MStreamMessage{Type: "error", Message: message})
}

// -----------------------------------------------------------------------------

// close makes the client terminal: cancels the poll loop, discards the
// subscription set, and unblocks the write pump. Idempotent.
func (c *Client) close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.pollCancel != nil {
		c.pollCancel()
		c.pollCancel = nil
	}
	c.symbols = make(map[string]struct{})
	c.order = nil
	c.mu.Unlock()

	close(c.done)
}
