// Package signalws adapts the relay core to gorilla WebSocket
// connections: one read pump and one write pump per connection, with a
// buffered outbound queue so a slow peer never stalls the relay.
package signalws

import (
	"errors"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/Ali4mini/internal-comms/internal/core"
)

var ErrBackpressure = errors.New("backpressure")

// Conn wraps one WebSocket connection. TrySend enqueues without
// blocking; the write pump drains the queue.
type Conn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.Mutex
	closed bool
}

func newConn(ws *websocket.Conn, sendBuffer int) *Conn {
	return &Conn{
		conn: ws,
		send: make(chan core.Frame, sendBuffer),
	}
}

func (c *Conn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *Conn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}
