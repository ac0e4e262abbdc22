package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const (
	writeWait    = 10 * time.Second
	pingInterval = 30 * time.Second
	sendBufSize  = 256
)

// Client represents a single WebSocket connection. Its identity is known
// from the upgrade token, but it only becomes reachable for pushes after it
// sends a join announcement.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID uuid.UUID

	joined bool // read-pump-local, set once on join

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func NewClient(hub *Hub, conn *websocket.Conn, userID uuid.UUID) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, sendBufSize),
		done:   make(chan struct{}),
	}
}

// UserID returns the identity the connection authenticated as.
func (c *Client) UserID() uuid.UUID {
	return c.userID
}

// close signals teardown to the write pump and any in-flight push. The
// send channel is never closed; done is the sole termination signal, so a
// push racing an unregister drops its frame instead of panicking.
func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// ReadPump reads events from the WebSocket until the connection drops.
// Connection teardown, not client request, drives unregistration.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		var event Event
		err := wsjson.Read(context.Background(), c.conn, &event)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				c.hub.logger.Debug().Stringer("user_id", c.userID).Msg("ws client disconnected")
			} else {
				c.hub.logger.Debug().Err(err).Stringer("user_id", c.userID).Msg("ws read error")
			}
			return
		}

		c.handleEvent(&event)
	}
}

// WritePump writes queued events to the WebSocket.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case message := <-c.send:
			ctx, cancel := context.WithTimeout(context.Background(), writeWait)
			err := c.conn.Write(ctx, websocket.MessageText, message)
			cancel()
			if err != nil {
				c.hub.logger.Debug().Err(err).Stringer("user_id", c.userID).Msg("ws write error")
				return
			}

		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), writeWait)
			err := c.conn.Ping(ctx)
			cancel()
			if err != nil {
				return
			}

		case <-c.done:
			return
		}
	}
}

// handleEvent routes an incoming client event.
func (c *Client) handleEvent(event *Event) {
	switch event.Type {
	case EventTypeJoin:
		if c.joined {
			return // join is announced exactly once per connection
		}
		if len(event.Payload) > 0 {
			var p JoinPayload
			if err := json.Unmarshal(event.Payload, &p); err != nil {
				c.sendError("INVALID_PAYLOAD", "invalid join payload")
				return
			}
			if p.UserID != uuid.Nil && p.UserID != c.userID {
				c.sendError("IDENTITY_MISMATCH", "join user does not match the connection token")
				return
			}
		}
		c.joined = true
		c.hub.register <- c

	case EventTypePing:
		c.sendPong()

	default:
		c.sendError("UNKNOWN_EVENT", "unknown event type: "+event.Type)
	}
}

func (c *Client) sendPong() {
	data, _ := json.Marshal(Event{Type: EventTypePong})
	c.deliver(data)
}

func (c *Client) sendError(code, message string) {
	evt, err := NewEvent(EventTypeError, ErrorPayload{Code: code, Message: message})
	if err != nil {
		return
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	c.deliver(data)
}

// deliver queues data without blocking; a full buffer or a torn-down
// connection drops the frame.
func (c *Client) deliver(data []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}
