package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Conn is the transport surface the hub needs from a connection.
type Conn interface {
	Send(data []byte) error
	SendJSON(v any) error
	Close() error
}

type clientConn struct {
	rawConn *websocket.Conn
	mu      sync.Mutex
}

func (c *clientConn) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_ = c.rawConn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.rawConn.WriteMessage(websocket.TextMessage, data)
}

func (c *clientConn) SendJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_ = c.rawConn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.rawConn.WriteJSON(v)
}

func (c *clientConn) Ping() error {
	return c.rawConn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

func (c *clientConn) Close() error {
	return c.rawConn.Close()
}
