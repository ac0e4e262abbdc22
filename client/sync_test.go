package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ikovic/relay/internal/domain"
	"github.com/ikovic/relay/internal/transport/ws"
)

func mustEvent(t *testing.T, eventType string, payload any) *ws.Event {
	t.Helper()
	evt, err := ws.NewEvent(eventType, payload)
	if err != nil {
		t.Fatal(err)
	}
	return evt
}

func newTestSync(userID uuid.UUID) *Sync {
	return NewSync(nil, userID, zerolog.Nop())
}

func TestApplyNewMessageToOpenConversation(t *testing.T) {
	me := uuid.New()
	peer := uuid.New()
	s := newTestSync(me)
	s.open = peer

	msg := domain.Message{ID: uuid.New(), SenderID: peer, ReceiverID: me, Content: "hi"}
	s.Apply(mustEvent(t, ws.EventTypeMessageNew, ws.MessagePayload{Message: msg}))

	got := s.Conversation(peer)
	if len(got) != 1 || got[0].ID != msg.ID {
		t.Fatalf("expected the message appended to the open conversation, got %v", got)
	}
	if s.Dirty(peer) {
		t.Error("expected the open conversation to stay clean")
	}
}

func TestApplyNewMessageToClosedConversationMarksDirty(t *testing.T) {
	me := uuid.New()
	peer := uuid.New()
	other := uuid.New()
	s := newTestSync(me)
	s.open = other

	msg := domain.Message{ID: uuid.New(), SenderID: peer, ReceiverID: me, Content: "psst"}
	s.Apply(mustEvent(t, ws.EventTypeMessageNew, ws.MessagePayload{Message: msg}))

	if !s.Dirty(peer) {
		t.Error("expected the closed conversation to be marked dirty")
	}
	if got := s.Conversation(peer); len(got) != 0 {
		t.Errorf("expected no local patch of a closed conversation, got %v", got)
	}
}

func TestApplyNewMessageDeduplicatesOptimisticAppend(t *testing.T) {
	me := uuid.New()
	peer := uuid.New()
	s := newTestSync(me)
	s.open = peer

	// The optimistic append from SendMessage already holds this id.
	msg := domain.Message{ID: uuid.New(), SenderID: me, ReceiverID: peer, Content: "sent"}
	s.conversations[peer] = []domain.Message{msg}

	s.Apply(mustEvent(t, ws.EventTypeMessageNew, ws.MessagePayload{Message: msg}))

	if got := s.Conversation(peer); len(got) != 1 {
		t.Errorf("expected the pushed duplicate to be dropped, got %d messages", len(got))
	}
}

func TestApplyMessagesReadFlipsOwnOutgoing(t *testing.T) {
	me := uuid.New()
	peer := uuid.New()
	s := newTestSync(me)
	s.conversations[peer] = []domain.Message{
		{ID: uuid.New(), SenderID: me, ReceiverID: peer, Content: "mine"},
		{ID: uuid.New(), SenderID: peer, ReceiverID: me, Content: "theirs"},
	}

	s.Apply(mustEvent(t, ws.EventTypeMessageRead, ws.MessagesReadPayload{PeerID: peer, ReaderID: peer}))

	got := s.Conversation(peer)
	if !got[0].IsRead {
		t.Error("expected own outgoing message to flip to read")
	}
	if got[1].IsRead {
		t.Error("expected the peer's message to stay untouched")
	}
}

func TestApplyMessageDeletedRemovesFromCache(t *testing.T) {
	me := uuid.New()
	peer := uuid.New()
	s := newTestSync(me)

	doomed := domain.Message{ID: uuid.New(), SenderID: peer, ReceiverID: me, Content: "doomed"}
	keeper := domain.Message{ID: uuid.New(), SenderID: me, ReceiverID: peer, Content: "keeper"}
	s.conversations[peer] = []domain.Message{doomed, keeper}

	s.Apply(mustEvent(t, ws.EventTypeMessageDeleted, ws.MessageDeletedPayload{
		ID:         doomed.ID,
		SenderID:   doomed.SenderID,
		ReceiverID: doomed.ReceiverID,
	}))

	got := s.Conversation(peer)
	if len(got) != 1 || got[0].ID != keeper.ID {
		t.Errorf("expected only the keeper to remain, got %v", got)
	}
}

func TestApplyMessageEditedReplacesInPlace(t *testing.T) {
	me := uuid.New()
	peer := uuid.New()
	s := newTestSync(me)

	original := domain.Message{ID: uuid.New(), SenderID: peer, ReceiverID: me, Content: "typo"}
	s.conversations[peer] = []domain.Message{original}

	edited := original
	edited.Content = "fixed"
	edited.UpdatedAt = time.Now()
	s.Apply(mustEvent(t, ws.EventTypeMessageEdited, ws.MessagePayload{Message: edited}))

	got := s.Conversation(peer)
	if len(got) != 1 || got[0].Content != "fixed" {
		t.Errorf("expected the edited content in place, got %v", got)
	}
}

func TestApplyPresenceUpdatesFriendCache(t *testing.T) {
	me := uuid.New()
	friendID := uuid.New()
	s := newTestSync(me)
	s.friends[friendID] = domain.Friend{ID: friendID, Name: "bob"}

	seen := time.Now()
	s.Apply(mustEvent(t, ws.EventTypePresence, ws.PresencePayload{
		UserID:   friendID,
		Status:   "online",
		LastSeen: seen,
	}))

	friend, ok := s.Friend(friendID)
	if !ok || !friend.IsOnline {
		t.Errorf("expected friend marked online, got %+v", friend)
	}

	// Presence of a non-friend is ignored.
	stranger := uuid.New()
	s.Apply(mustEvent(t, ws.EventTypePresence, ws.PresencePayload{UserID: stranger, Status: "online"}))
	if _, ok := s.Friend(stranger); ok {
		t.Error("expected no cache entry for a stranger")
	}
}

func TestApplyFriendRemovedDropsAllState(t *testing.T) {
	me := uuid.New()
	friendID := uuid.New()
	s := newTestSync(me)
	s.open = friendID
	s.friends[friendID] = domain.Friend{ID: friendID}
	s.conversations[friendID] = []domain.Message{{ID: uuid.New(), SenderID: friendID, ReceiverID: me}}
	s.dirty[friendID] = true

	s.Apply(mustEvent(t, ws.EventTypeFriendRemoved, ws.FriendRemovedPayload{FriendID: friendID}))

	if _, ok := s.Friend(friendID); ok {
		t.Error("expected the friend entry to be gone")
	}
	if got := s.Conversation(friendID); len(got) != 0 {
		t.Error("expected the conversation cache to be gone")
	}
	if s.Dirty(friendID) {
		t.Error("expected the dirty flag to be gone")
	}
	if s.open != uuid.Nil {
		t.Error("expected the open conversation to be cleared")
	}
}

func TestListenWithoutConnectReturnsError(t *testing.T) {
	s := newTestSync(uuid.New())
	if err := s.Listen(context.Background()); err == nil {
		t.Error("expected an error when no connection was established")
	}
}

func TestApplyMalformedPayloadIsIgnored(t *testing.T) {
	s := newTestSync(uuid.New())
	s.Apply(&ws.Event{Type: ws.EventTypeMessageNew, Payload: json.RawMessage(`{"id":42}`)})
	s.Apply(&ws.Event{Type: "something.else"})
	s.Apply(&ws.Event{Type: ws.EventTypePong})
}

// apiServer stubs the relay HTTP surface for synchronizer tests.
func apiServer(t *testing.T, history []domain.Message, affected int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/messages/{peerID}", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"messages": history})
	})
	mux.HandleFunc("POST /api/v1/messages", func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			ReceiverID uuid.UUID `json:"receiver_id"`
			Content    string    `json:"content"`
			Image      string    `json:"image"`
		}
		json.NewDecoder(r.Body).Decode(&in)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(domain.Message{
			ID:         uuid.New(),
			ReceiverID: in.ReceiverID,
			Content:    in.Content,
			Image:      in.Image,
			CreatedAt:  time.Now(),
		})
	})
	mux.HandleFunc("PUT /api/v1/messages/read", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]int{"affected": affected})
	})
	return httptest.NewServer(mux)
}

func TestOpenConversationClearsDirty(t *testing.T) {
	me := uuid.New()
	peer := uuid.New()
	history := []domain.Message{
		{ID: uuid.New(), SenderID: peer, ReceiverID: me, Content: "old"},
	}
	srv := apiServer(t, history, 0)
	defer srv.Close()

	s := NewSync(New(srv.URL, "token"), me, zerolog.Nop())
	s.dirty[peer] = true

	msgs, err := s.OpenConversation(context.Background(), peer)
	if err != nil {
		t.Fatalf("OpenConversation: %v", err)
	}
	if len(msgs) != 1 || msgs[0].ID != history[0].ID {
		t.Errorf("expected the fetched history, got %v", msgs)
	}
	if s.Dirty(peer) {
		t.Error("expected the dirty flag cleared by the refetch")
	}
}

func TestSendMessageAppendsOptimistically(t *testing.T) {
	me := uuid.New()
	peer := uuid.New()
	srv := apiServer(t, nil, 0)
	defer srv.Close()

	s := NewSync(New(srv.URL, "token"), me, zerolog.Nop())
	s.open = peer

	msg, err := s.SendMessage(context.Background(), peer, "hello", "")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	got := s.Conversation(peer)
	if len(got) != 1 || got[0].ID != msg.ID {
		t.Errorf("expected the sent message cached, got %v", got)
	}
}

func TestMarkConversationReadFlipsPeerMessages(t *testing.T) {
	me := uuid.New()
	peer := uuid.New()
	srv := apiServer(t, nil, 2)
	defer srv.Close()

	s := NewSync(New(srv.URL, "token"), me, zerolog.Nop())
	s.conversations[peer] = []domain.Message{
		{ID: uuid.New(), SenderID: peer, ReceiverID: me},
		{ID: uuid.New(), SenderID: me, ReceiverID: peer},
	}

	if err := s.MarkConversationRead(context.Background(), peer); err != nil {
		t.Fatalf("MarkConversationRead: %v", err)
	}
	got := s.Conversation(peer)
	if !got[0].IsRead {
		t.Error("expected the peer's incoming message flipped to read")
	}
	if got[1].IsRead {
		t.Error("expected own outgoing message untouched")
	}
}

func TestClientErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"code": "FORBIDDEN", "message": "only the message sender can perform this action"},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "token")
	err := c.Delete(context.Background(), uuid.New())

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Status != http.StatusForbidden || apiErr.Code != "FORBIDDEN" {
		t.Errorf("unexpected error envelope: %+v", apiErr)
	}
}
