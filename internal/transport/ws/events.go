package ws

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/ikovic/relay/internal/domain"
)

// Event types - Client → Server
const (
	EventTypeJoin = "join"
	EventTypePing = "ping"
)

// Event types - Server → Client
const (
	EventTypeMessageNew     = "message.new"
	EventTypeMessageRead    = "message.read"
	EventTypeMessageEdited  = "message.edited"
	EventTypeMessageDeleted = "message.deleted"
	EventTypePresence       = "presence"
	EventTypeFriendRemoved  = "friend.removed"
	EventTypePong           = "pong"
	EventTypeError          = "error"
)

// Event is the base envelope for all WebSocket messages.
type Event struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"ts,omitempty"`
}

// --- Client → Server payloads ---

// JoinPayload announces the owning identity of a connection. The user id is
// optional; when present it must match the authenticated upgrade token.
type JoinPayload struct {
	UserID uuid.UUID `json:"user_id,omitempty"`
}

// --- Server → Client payloads ---

type MessagePayload struct {
	domain.Message
}

// MessagesReadPayload tells the original sender that their messages in the
// conversation with PeerID were read. In a two-party chat the peer and the
// reader are the same user; both fields are kept for wire compatibility.
type MessagesReadPayload struct {
	PeerID   uuid.UUID `json:"peer_id"`
	ReaderID uuid.UUID `json:"reader_id"`
}

type MessageDeletedPayload struct {
	ID         uuid.UUID `json:"id"`
	SenderID   uuid.UUID `json:"sender_id"`
	ReceiverID uuid.UUID `json:"receiver_id"`
}

type PresencePayload struct {
	UserID   uuid.UUID `json:"user_id"`
	Status   string    `json:"status"` // "online" | "offline"
	LastSeen time.Time `json:"last_seen"`
}

type FriendRemovedPayload struct {
	FriendID uuid.UUID `json:"friend_id"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewEvent creates a server→client event with the current timestamp.
func NewEvent(eventType string, payload any) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Event{
		Type:      eventType,
		Payload:   data,
		Timestamp: time.Now().Unix(),
	}, nil
}
