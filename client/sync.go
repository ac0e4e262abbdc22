package client

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/ikovic/relay/internal/domain"
	"github.com/ikovic/relay/internal/transport/ws"
	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// Sync reconciles local conversation and friend caches with pushed events.
// The server's ledger stays authoritative: a conversation flagged dirty
// (activity while it was not open, or a connection gap) must be refetched
// rather than patched.
type Sync struct {
	api    *Client
	userID uuid.UUID
	logger zerolog.Logger

	mu            sync.Mutex
	open          uuid.UUID // peer of the open conversation, Nil if none
	conversations map[uuid.UUID][]domain.Message
	dirty         map[uuid.UUID]bool
	friends       map[uuid.UUID]domain.Friend

	conn   *websocket.Conn
	joined bool
}

func NewSync(api *Client, userID uuid.UUID, logger zerolog.Logger) *Sync {
	return &Sync{
		api:           api,
		userID:        userID,
		logger:        logger,
		conversations: make(map[uuid.UUID][]domain.Message),
		dirty:         make(map[uuid.UUID]bool),
		friends:       make(map[uuid.UUID]domain.Friend),
	}
}

// Connect dials the push endpoint and announces the local identity once.
// Reconnecting requires a fresh Sync connection; on transport loss the
// client does nothing locally; unregistration is the server's job.
func (s *Sync) Connect(ctx context.Context, wsURL string) error {
	conn, _, err := websocket.Dial(ctx, wsURL+"?token="+s.api.Token, nil)
	if err != nil {
		return err
	}
	s.conn = conn

	if !s.joined {
		payload, err := json.Marshal(ws.JoinPayload{UserID: s.userID})
		if err != nil {
			return err
		}
		if err := wsjson.Write(ctx, conn, ws.Event{Type: ws.EventTypeJoin, Payload: payload}); err != nil {
			conn.Close(websocket.StatusInternalError, "join failed")
			return err
		}
		s.joined = true
	}

	return nil
}

// Listen consumes pushed events until the connection drops or ctx ends.
// Connect must have succeeded first.
func (s *Sync) Listen(ctx context.Context) error {
	if s.conn == nil {
		return errors.New("sync: not connected")
	}
	defer s.conn.Close(websocket.StatusNormalClosure, "")

	for {
		var event ws.Event
		if err := wsjson.Read(ctx, s.conn, &event); err != nil {
			return err
		}
		s.Apply(&event)
	}
}

// Apply reconciles one pushed event into the local caches. It is pure over
// the cache state, so event handling is testable without a transport.
func (s *Sync) Apply(event *ws.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch event.Type {
	case ws.EventTypeMessageNew:
		var p ws.MessagePayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			s.logger.Warn().Err(err).Msg("bad message.new payload")
			return
		}
		peer := s.peerOf(&p.Message)
		if peer == s.open {
			s.appendIfAbsent(peer, p.Message)
		} else {
			s.dirty[peer] = true
		}

	case ws.EventTypeMessageRead:
		var p ws.MessagesReadPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			s.logger.Warn().Err(err).Msg("bad message.read payload")
			return
		}
		msgs := s.conversations[p.ReaderID]
		for i := range msgs {
			if msgs[i].SenderID == s.userID {
				msgs[i].IsRead = true
			}
		}

	case ws.EventTypeMessageDeleted:
		var p ws.MessageDeletedPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			s.logger.Warn().Err(err).Msg("bad message.deleted payload")
			return
		}
		peer := p.SenderID
		if peer == s.userID {
			peer = p.ReceiverID
		}
		msgs := s.conversations[peer]
		for i := range msgs {
			if msgs[i].ID == p.ID {
				s.conversations[peer] = append(msgs[:i], msgs[i+1:]...)
				break
			}
		}

	case ws.EventTypeMessageEdited:
		var p ws.MessagePayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			s.logger.Warn().Err(err).Msg("bad message.edited payload")
			return
		}
		peer := s.peerOf(&p.Message)
		msgs := s.conversations[peer]
		for i := range msgs {
			if msgs[i].ID == p.ID {
				msgs[i] = p.Message
				break
			}
		}

	case ws.EventTypePresence:
		var p ws.PresencePayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			s.logger.Warn().Err(err).Msg("bad presence payload")
			return
		}
		if friend, ok := s.friends[p.UserID]; ok {
			friend.IsOnline = p.Status == "online"
			friend.LastSeen = p.LastSeen
			s.friends[p.UserID] = friend
		}

	case ws.EventTypeFriendRemoved:
		var p ws.FriendRemovedPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			s.logger.Warn().Err(err).Msg("bad friend.removed payload")
			return
		}
		delete(s.friends, p.FriendID)
		delete(s.conversations, p.FriendID)
		delete(s.dirty, p.FriendID)
		if s.open == p.FriendID {
			s.open = uuid.Nil
		}

	case ws.EventTypePong:
		// keepalive, nothing to reconcile

	default:
		s.logger.Debug().Str("type", event.Type).Msg("unhandled event")
	}
}

// OpenConversation fetches the authoritative history for a peer and makes
// it the open conversation.
func (s *Sync) OpenConversation(ctx context.Context, peerID uuid.UUID) ([]domain.Message, error) {
	msgs, err := s.api.History(ctx, peerID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = peerID
	s.conversations[peerID] = msgs
	delete(s.dirty, peerID)
	return s.snapshot(peerID), nil
}

// SendMessage sends through the API and appends optimistically; the
// matching push (if any) is deduplicated by id.
func (s *Sync) SendMessage(ctx context.Context, peerID uuid.UUID, content, image string) (*domain.Message, error) {
	msg, err := s.api.Send(ctx, peerID, content, image)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if peerID == s.open {
		s.appendIfAbsent(peerID, *msg)
	}
	return msg, nil
}

// MarkConversationRead reports the read transition to the server and flips
// the local copies of the peer's messages.
func (s *Sync) MarkConversationRead(ctx context.Context, peerID uuid.UUID) error {
	if _, err := s.api.MarkRead(ctx, peerID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := s.conversations[peerID]
	for i := range msgs {
		if msgs[i].SenderID == peerID {
			msgs[i].IsRead = true
		}
	}
	return nil
}

// LoadFriends seeds the friend-presence cache from the API.
func (s *Sync) LoadFriends(ctx context.Context) error {
	friends, err := s.api.Friends(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.friends = make(map[uuid.UUID]domain.Friend, len(friends))
	for _, f := range friends {
		s.friends[f.ID] = f
	}
	return nil
}

// Conversation returns a copy of the cached messages for a peer.
func (s *Sync) Conversation(peerID uuid.UUID) []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(peerID)
}

// Dirty reports whether a conversation saw activity while not open and
// needs a refetch.
func (s *Sync) Dirty(peerID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty[peerID]
}

// Friend returns the cached friend entry, if any.
func (s *Sync) Friend(id uuid.UUID) (domain.Friend, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.friends[id]
	return f, ok
}

func (s *Sync) peerOf(msg *domain.Message) uuid.UUID {
	if msg.SenderID == s.userID {
		return msg.ReceiverID
	}
	return msg.SenderID
}

func (s *Sync) appendIfAbsent(peerID uuid.UUID, msg domain.Message) {
	for _, m := range s.conversations[peerID] {
		if m.ID == msg.ID {
			return
		}
	}
	s.conversations[peerID] = append(s.conversations[peerID], msg)
}

func (s *Sync) snapshot(peerID uuid.UUID) []domain.Message {
	msgs := s.conversations[peerID]
	out := make([]domain.Message, len(msgs))
	copy(out, msgs)
	return out
}
