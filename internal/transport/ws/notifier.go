package ws

import (
	"time"

	"github.com/google/uuid"
	"github.com/ikovic/relay/internal/domain"
)

// HubNotifier implements service.Notifier on top of the WebSocket Hub. It
// resolves targets through the presence directory at call time; an
// unreachable target drops the event with no queue and no retry.
type HubNotifier struct {
	hub *Hub
}

func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) NotifyNewMessage(msg *domain.Message) {
	evt, err := NewEvent(EventTypeMessageNew, MessagePayload{Message: *msg})
	if err != nil {
		n.hub.logger.Error().Err(err).Msg("ws notifier: marshal error")
		return
	}
	n.hub.PushToUser(msg.ReceiverID, evt)
}

func (n *HubNotifier) NotifyMessagesRead(senderID, readerID uuid.UUID) {
	evt, err := NewEvent(EventTypeMessageRead, MessagesReadPayload{
		PeerID:   readerID,
		ReaderID: readerID,
	})
	if err != nil {
		n.hub.logger.Error().Err(err).Msg("ws notifier: marshal error")
		return
	}
	n.hub.PushToUser(senderID, evt)
}

func (n *HubNotifier) NotifyMessageDeleted(msg *domain.Message) {
	evt, err := NewEvent(EventTypeMessageDeleted, MessageDeletedPayload{
		ID:         msg.ID,
		SenderID:   msg.SenderID,
		ReceiverID: msg.ReceiverID,
	})
	if err != nil {
		n.hub.logger.Error().Err(err).Msg("ws notifier: marshal error")
		return
	}
	n.hub.PushToUser(msg.ReceiverID, evt)
}

func (n *HubNotifier) NotifyMessageEdited(msg *domain.Message) {
	evt, err := NewEvent(EventTypeMessageEdited, MessagePayload{Message: *msg})
	if err != nil {
		n.hub.logger.Error().Err(err).Msg("ws notifier: marshal error")
		return
	}
	n.hub.PushToUser(msg.ReceiverID, evt)
}

func (n *HubNotifier) NotifyPresenceChanged(userID uuid.UUID, status string, lastSeen time.Time) {
	evt, err := NewEvent(EventTypePresence, PresencePayload{
		UserID:   userID,
		Status:   status,
		LastSeen: lastSeen,
	})
	if err != nil {
		n.hub.logger.Error().Err(err).Msg("ws notifier: marshal error")
		return
	}
	n.hub.BroadcastAll(evt, userID)
}

func (n *HubNotifier) NotifyFriendRemoved(removedUserID, byUserID uuid.UUID) {
	evt, err := NewEvent(EventTypeFriendRemoved, FriendRemovedPayload{FriendID: byUserID})
	if err != nil {
		n.hub.logger.Error().Err(err).Msg("ws notifier: marshal error")
		return
	}
	n.hub.PushToUser(removedUserID, evt)
}
