package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ikovic/relay/internal/domain"
)

func TestNotifyNewMessageTargetsReceiver(t *testing.T) {
	hub := newTestHub()
	notifier := NewHubNotifier(hub)

	senderID := uuid.New()
	receiverID := uuid.New()
	cSender := NewClient(hub, nil, senderID)
	cReceiver := NewClient(hub, nil, receiverID)
	hub.directory.Register(senderID, cSender)
	hub.directory.Register(receiverID, cReceiver)

	msg := &domain.Message{
		ID:         uuid.New(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    "hello",
		CreatedAt:  time.Now(),
	}
	notifier.NotifyNewMessage(msg)

	if len(cSender.send) != 0 {
		t.Error("expected the sender to receive nothing")
	}
	got := receive(t, cReceiver)
	if got.Type != EventTypeMessageNew {
		t.Fatalf("expected %q, got %q", EventTypeMessageNew, got.Type)
	}
	var p MessagePayload
	if err := json.Unmarshal(got.Payload, &p); err != nil {
		t.Fatal(err)
	}
	if p.ID != msg.ID || p.Content != "hello" {
		t.Errorf("unexpected message payload: %+v", p)
	}
}

func TestNotifyNewMessageOfflineReceiverIsSilent(t *testing.T) {
	hub := newTestHub()
	notifier := NewHubNotifier(hub)

	// Receiver has no live handles; the push is dropped without error.
	notifier.NotifyNewMessage(&domain.Message{
		ID:         uuid.New(),
		SenderID:   uuid.New(),
		ReceiverID: uuid.New(),
		Content:    "into the void",
	})
}

func TestNotifyMessagesReadTargetsSender(t *testing.T) {
	hub := newTestHub()
	notifier := NewHubNotifier(hub)

	senderID := uuid.New()
	readerID := uuid.New()
	cSender := NewClient(hub, nil, senderID)
	hub.directory.Register(senderID, cSender)

	notifier.NotifyMessagesRead(senderID, readerID)

	got := receive(t, cSender)
	if got.Type != EventTypeMessageRead {
		t.Fatalf("expected %q, got %q", EventTypeMessageRead, got.Type)
	}
	var p MessagesReadPayload
	if err := json.Unmarshal(got.Payload, &p); err != nil {
		t.Fatal(err)
	}
	if p.ReaderID != readerID || p.PeerID != readerID {
		t.Errorf("unexpected read payload: %+v", p)
	}
}

func TestNotifyMessageDeletedCarriesIdentifiers(t *testing.T) {
	hub := newTestHub()
	notifier := NewHubNotifier(hub)

	msg := &domain.Message{
		ID:         uuid.New(),
		SenderID:   uuid.New(),
		ReceiverID: uuid.New(),
		Content:    "gone",
	}
	cReceiver := NewClient(hub, nil, msg.ReceiverID)
	hub.directory.Register(msg.ReceiverID, cReceiver)

	notifier.NotifyMessageDeleted(msg)

	got := receive(t, cReceiver)
	if got.Type != EventTypeMessageDeleted {
		t.Fatalf("expected %q, got %q", EventTypeMessageDeleted, got.Type)
	}
	var p MessageDeletedPayload
	if err := json.Unmarshal(got.Payload, &p); err != nil {
		t.Fatal(err)
	}
	if p.ID != msg.ID || p.SenderID != msg.SenderID || p.ReceiverID != msg.ReceiverID {
		t.Errorf("unexpected delete payload: %+v", p)
	}
}

func TestNotifyMessageEditedCarriesNewContent(t *testing.T) {
	hub := newTestHub()
	notifier := NewHubNotifier(hub)

	msg := &domain.Message{
		ID:         uuid.New(),
		SenderID:   uuid.New(),
		ReceiverID: uuid.New(),
		Content:    "edited text",
	}
	cReceiver := NewClient(hub, nil, msg.ReceiverID)
	hub.directory.Register(msg.ReceiverID, cReceiver)

	notifier.NotifyMessageEdited(msg)

	got := receive(t, cReceiver)
	if got.Type != EventTypeMessageEdited {
		t.Fatalf("expected %q, got %q", EventTypeMessageEdited, got.Type)
	}
	var p MessagePayload
	if err := json.Unmarshal(got.Payload, &p); err != nil {
		t.Fatal(err)
	}
	if p.ID != msg.ID || p.Content != "edited text" {
		t.Errorf("unexpected edit payload: %+v", p)
	}
}

func TestNotifyFriendRemovedTargetsRemovedParty(t *testing.T) {
	hub := newTestHub()
	notifier := NewHubNotifier(hub)

	removedID := uuid.New()
	byID := uuid.New()
	cRemoved := NewClient(hub, nil, removedID)
	cBy := NewClient(hub, nil, byID)
	hub.directory.Register(removedID, cRemoved)
	hub.directory.Register(byID, cBy)

	notifier.NotifyFriendRemoved(removedID, byID)

	if len(cBy.send) != 0 {
		t.Error("expected the removing user to receive nothing")
	}
	got := receive(t, cRemoved)
	if got.Type != EventTypeFriendRemoved {
		t.Fatalf("expected %q, got %q", EventTypeFriendRemoved, got.Type)
	}
	var p FriendRemovedPayload
	if err := json.Unmarshal(got.Payload, &p); err != nil {
		t.Fatal(err)
	}
	if p.FriendID != byID {
		t.Errorf("expected friend_id %s, got %s", byID, p.FriendID)
	}
}

func TestNotifyPresenceChangedExcludesSubject(t *testing.T) {
	hub := newTestHub()
	notifier := NewHubNotifier(hub)

	subjectID := uuid.New()
	otherID := uuid.New()
	cSubject := NewClient(hub, nil, subjectID)
	cOther := NewClient(hub, nil, otherID)
	hub.directory.Register(subjectID, cSubject)
	hub.directory.Register(otherID, cOther)

	lastSeen := time.Now()
	notifier.NotifyPresenceChanged(subjectID, "offline", lastSeen)

	if len(cSubject.send) != 0 {
		t.Error("expected the subject to receive nothing")
	}
	got := receive(t, cOther)
	if got.Type != EventTypePresence {
		t.Fatalf("expected %q, got %q", EventTypePresence, got.Type)
	}
	var p PresencePayload
	if err := json.Unmarshal(got.Payload, &p); err != nil {
		t.Fatal(err)
	}
	if p.UserID != subjectID || p.Status != "offline" {
		t.Errorf("unexpected presence payload: %+v", p)
	}
}
