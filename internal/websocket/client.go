package websocket

import (
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
	sendBufferSize = 64
)

// ClientState is the lifecycle of a single connection.
type ClientState int

const (
	ClientConnected ClientState = iota
	ClientRegistered
	ClientClosed
)

func (s ClientState) String() string {
	switch s {
	case ClientConnected:
		return "connected"
	case ClientRegistered:
		return "registered"
	case ClientClosed:
		return "closed"
	}
	return "unknown"
}

var (
	ErrClientClosed        = errors.New("connection is closed")
	ErrForeignRegistration = errors.New("cannot register another user's channel")
)

// Client is the server side of one WebSocket connection. It is created in
// the connected state, moves to registered when the user announces itself,
// and ends closed when either pump stops.
type Client struct {
	id       string
	conn     *websocket.Conn
	send     chan []byte
	presence *Presence
	userID   uuid.UUID

	mu    sync.Mutex
	state ClientState
}

func NewClient(conn *websocket.Conn, presence *Presence, userID uuid.UUID) *Client {
	return &Client{
		id:       uuid.NewString(),
		conn:     conn,
		send:     make(chan []byte, sendBufferSize),
		presence: presence,
		userID:   userID,
		state:    ClientConnected,
	}
}

func (c *Client) ID() string { return c.id }

func (c *Client) State() ClientState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Register announces the connection as the delivery channel of its user.
// requested may be uuid.Nil, meaning the authenticated user.
func (c *Client) Register(requested uuid.UUID) error {
	if requested != uuid.Nil && requested != c.userID {
		return ErrForeignRegistration
	}

	// Held across the presence update so Close cannot slip in between; the
	// lock order is always client then presence.
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == ClientClosed {
		return ErrClientClosed
	}
	c.state = ClientRegistered
	c.presence.Register(c.userID, c)
	return nil
}

// Deliver queues data for the write pump. Closed or saturated clients drop it.
func (c *Client) Deliver(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == ClientClosed {
		return false
	}

	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// Close moves the client to closed, releases its presence entry and stops
// the write pump. Safe to call more than once.
func (c *Client) Close() {
	c.mu.Lock()
	if c.state == ClientClosed {
		c.mu.Unlock()
		return
	}
	c.state = ClientClosed
	close(c.send)
	c.mu.Unlock()

	c.presence.Unregister(c.id)
}

func (c *Client) ReadPump() {
	defer func() {
		c.Close()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("websocket error: %v", err)
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.sendError("INVALID_MESSAGE", "Message is not valid JSON")
			continue
		}

		c.handleMessage(&msg)
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
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

func (c *Client) handleMessage(msg *Message) {
	switch msg.Type {
	case MessageTypeRegister:
		var payload RegisterPayload
		if len(msg.Payload) > 0 {
			if err := json.Unmarshal(msg.Payload, &payload); err != nil {
				c.sendError("INVALID_PAYLOAD", "Invalid register payload")
				return
			}
		}

		requested := uuid.Nil
		if payload.UserID != "" {
			id, err := uuid.Parse(payload.UserID)
			if err != nil {
				c.sendError("INVALID_PAYLOAD", "Invalid user id")
				return
			}
			requested = id
		}

		if err := c.Register(requested); err != nil {
			c.sendError("REGISTER_FAILED", err.Error())
			return
		}
		c.Send(MessageTypeRegistered, RegisteredPayload{UserID: c.userID.String()})

	default:
		c.sendError("UNKNOWN_TYPE", "Unknown message type")
	}
}

func (c *Client) sendError(code, message string) {
	c.Send(MessageTypeError, ErrorPayload{
		Code:    code,
		Message: message,
	})
}

func (c *Client) Send(msgType MessageType, payload interface{}) {
	msg, err := NewMessage(msgType, payload)
	if err != nil {
		log.Printf("failed to build %s message: %v", msgType, err)
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("failed to marshal message: %v", err)
		return
	}
	c.Deliver(data)
}
