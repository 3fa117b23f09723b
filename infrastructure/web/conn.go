package web

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait = 10 * time.Second
	// A close frame payload is limited to 125 bytes, 2 of them hold the code.
	maxCloseReason = 123
)

// Conn adapts a gorilla websocket connection to contract.Conn.
// ReadMessage is called by the read loop only, data frames are written by
// the write pump only. Control frames may be sent from any goroutine.
type Conn struct {
	ws       *websocket.Conn
	pongWait time.Duration
	mu       sync.Mutex
}

// NewConn limits the frame size and, when pongWait is positive, expects a
// pong (or any frame) within pongWait of the last one.
func NewConn(ws *websocket.Conn, readLimit int64, pongWait time.Duration) *Conn {
	c := &Conn{ws: ws, pongWait: pongWait}
	if readLimit > 0 {
		ws.SetReadLimit(readLimit)
	}
	if pongWait > 0 {
		_ = ws.SetReadDeadline(time.Now().Add(pongWait))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(pongWait))
		})
	}
	return c
}

func (c *Conn) ReadMessage() ([]byte, error) {
	_, payload, err := c.ws.ReadMessage()
	if err != nil {
		return nil, err
	}
	if c.pongWait > 0 {
		_ = c.ws.SetReadDeadline(time.Now().Add(c.pongWait))
	}
	return payload, nil
}

func (c *Conn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteJSON(v)
}

func (c *Conn) WriteClose(code int, reason string) error {
	if len(reason) > maxCloseReason {
		reason = reason[:maxCloseReason]
	}
	message := websocket.FormatCloseMessage(code, reason)
	return c.ws.WriteControl(websocket.CloseMessage, message, time.Now().Add(writeWait))
}

func (c *Conn) Ping() error {
	return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

func (c *Conn) Close() error {
	return c.ws.Close()
}
