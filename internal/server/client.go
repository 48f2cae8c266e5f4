// Package server manages individual WebSocket clients, handling the
// authentication handshake, read/write pumps, slow-mode throttling, and
// lifecycle control for each connection.
package server

import (
	"errors"
	"io"
	"log"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum inbound frame size. The handshake frame carries a signed token,
	// so this is well above the chat message length limit; chat text is
	// bounded by the filter, not the read limit.
	maxFrameSize = 4096
)

// Client represents one connected chat participant. It owns the connection,
// the buffered send channel the hub delivers through, and the per-connection
// slow-mode limiter. The username is set exactly once, by a successful
// handshake, before the client is registered with the hub.
type Client struct {
	conn     *websocket.Conn
	send     chan []byte
	hub      *Hub
	addr     string
	username string
	limiter  *slowMode
	maxLen   int
	closed   bool
}

// NewClient creates a new Client for an upgraded connection. The client's
// send channel is buffered so the hub can deliver without blocking.
func NewClient(conn *websocket.Conn, hub *Hub, addr string) *Client {
	cfg := currentConfig()
	if conn != nil {
		conn.SetReadLimit(maxFrameSize)
	}

	return &Client{
		conn:    conn,
		send:    make(chan []byte, 256),
		hub:     hub,
		addr:    addr,
		limiter: newSlowMode(cfg.SlowModeInterval),
		maxLen:  cfg.MaxMessageLength,
	}
}

// Username returns the authenticated identity, or "" before the handshake.
func (c *Client) Username() string {
	return c.username
}

// Handshake reads the first frame from the connection, verifies the bearer
// token it carries, and answers with the welcome notice or a fatal error
// notice. It runs before the pumps start, so it may write to the connection
// directly without racing the write pump. Authentication is attempted exactly
// once; any failure is fatal to the connection.
func (c *Client) Handshake(verifier TokenVerifier) error {
	_, frame, err := c.conn.ReadMessage()
	if err != nil {
		return err
	}

	username, err := verifier.Verify(string(frame))
	if err != nil {
		incr(metricAuthFailures, 1)
		log.Printf("Handshake failed for %s: %v", c.addr, err)
		c.writeNotice(noticeError(err))
		return err
	}

	c.username = username
	return c.writeNotice(noticeWelcome(username))
}

// writeNotice writes a single text frame directly. Only valid before the
// write pump has started.
func (c *Client) writeNotice(notice string) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, []byte(notice))
}

// setupReadConnection configures read deadlines and the pong handler.
func (c *Client) setupReadConnection() {
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Printf("Error setting initial read deadline for %s: %v", c.addr, err)
	}
	c.conn.SetPongHandler(func(string) error {
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			log.Printf("Error setting read deadline in pong handler for %s: %v", c.addr, err)
		}
		return nil
	})
}

// logReadError records why the read loop is ending. Every read error is fatal
// to the session; none are retried.
func (c *Client) logReadError(err error) {
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		log.Printf("Frame from %s exceeded maximum size of %d bytes", c.addr, maxFrameSize)
	case websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure):
		log.Printf("Client %s disconnected: %v", c.addr, err)
	case errors.Is(err, io.EOF), isExpectedCloseError(err):
		log.Printf("Client %s connection closed: %v", c.addr, err)
	default:
		log.Printf("WebSocket read error from %s: %v", c.addr, err)
	}
}

// enqueue hands a direct notice to the client's own write pump. Delivery is
// best-effort: a full buffer drops the notice rather than blocking the
// read loop.
func (c *Client) enqueue(notice string) {
	c.hub.safeSend(c, []byte(notice))
}

// readPump relays inbound frames to the hub. Each accepted frame passes the
// slow-mode check and the message filter before it is published. The pump
// exits on the first read error; its deferred cleanup unregisters the client,
// which closes the send channel and thereby stops the write pump.
func (c *Client) readPump() {
	if c.conn == nil {
		return
	}

	defer func() {
		c.hub.Unregister(c)
		if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
			log.Printf("Error closing connection in readPump: %v", err)
		}
	}()

	c.setupReadConnection()

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			c.logReadError(err)
			break
		}

		if !c.limiter.allow() {
			log.Printf("Slow mode rejected a message from %q (%s)", c.username, c.addr)
			c.enqueue(noticeThrottle)
			continue
		}

		text := normalizeMessage(string(frame), c.maxLen)
		if text == "" {
			continue
		}

		c.hub.Broadcast(formatChat(c.username, text))
	}
}

// writePump relays hub deliveries to the connection, one frame per message,
// and keeps the connection alive with periodic pings. It exits when the send
// channel is closed by the hub or on the first write error; closing the
// connection then forces the read pump to exit as well.
func (c *Client) writePump() {
	if c.conn == nil {
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
			log.Printf("Error closing connection in writePump: %v", err)
		}
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Printf("Error setting write deadline for %s: %v", c.addr, err)
				return
			}
			if !ok {
				if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil && !isExpectedCloseError(err) {
					log.Printf("Error writing close message to %s: %v", c.addr, err)
				}
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				if !isExpectedCloseError(err) {
					log.Printf("Error writing message to %s: %v", c.addr, err)
				}
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Printf("Error setting write deadline for ping to %s: %v", c.addr, err)
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				if !isExpectedCloseError(err) {
					log.Printf("Error writing ping message to %s: %v", c.addr, err)
				}
				return
			}
		}
	}
}
