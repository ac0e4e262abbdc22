package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ikovic/relay/internal/domain"
	"github.com/ikovic/relay/internal/metrics"
	"github.com/ikovic/relay/internal/repository"
)

var (
	ErrEmptyMessage    = errors.New("message needs text content or an image")
	ErrMissingReceiver = errors.New("receiver is required")
	ErrMessageNotFound = errors.New("message not found")
	ErrNotMessageOwner = errors.New("only the message sender can perform this action")
	ErrUserNotFound    = errors.New("user not found")
)

// Notifier broadcasts real-time events to connected clients. Every method
// is best-effort: an unreachable target is skipped, never an error, and a
// failed push must not affect the ledger mutation that triggered it.
type Notifier interface {
	NotifyNewMessage(msg *domain.Message)
	NotifyMessagesRead(senderID, readerID uuid.UUID)
	NotifyMessageDeleted(msg *domain.Message)
	NotifyMessageEdited(msg *domain.Message)
	NotifyPresenceChanged(userID uuid.UUID, status string, lastSeen time.Time)
	NotifyFriendRemoved(removedUserID, byUserID uuid.UUID)
}

type MessageService struct {
	messageRepo repository.MessageRepository
	userRepo    repository.UserRepository
	notifier    Notifier
}

func NewMessageService(messageRepo repository.MessageRepository, userRepo repository.UserRepository) *MessageService {
	return &MessageService{
		messageRepo: messageRepo,
		userRepo:    userRepo,
	}
}

// SetNotifier sets the real-time notifier (optional dependency).
func (s *MessageService) SetNotifier(n Notifier) {
	s.notifier = n
}

// Send validates and appends a message to the ledger, then notifies the
// receiver if reachable.
func (s *MessageService) Send(ctx context.Context, senderID, receiverID uuid.UUID, content, image string) (*domain.Message, error) {
	if receiverID == uuid.Nil {
		return nil, ErrMissingReceiver
	}
	if content == "" && image == "" {
		return nil, ErrEmptyMessage
	}

	receiver, err := s.userRepo.GetByID(ctx, receiverID)
	if err != nil {
		return nil, err
	}
	if receiver == nil {
		return nil, ErrUserNotFound
	}

	now := time.Now()
	msg := &domain.Message{
		ID:         uuid.New(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		Image:      image,
		IsRead:     false,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("creating message: %w", err)
	}
	metrics.MessagesSent.Inc()

	if s.notifier != nil {
		s.notifier.NotifyNewMessage(msg)
	}

	return msg, nil
}

// History returns the conversation between the caller and a peer, ascending
// by creation time. An empty conversation is not an error.
func (s *MessageService) History(ctx context.Context, userID, peerID uuid.UUID) ([]domain.Message, error) {
	messages, err := s.messageRepo.ListBetween(ctx, userID, peerID)
	if err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []domain.Message{}
	}
	return messages, nil
}

// MarkRead flips every unread message from peer to reader. It is
// idempotent; the sender is notified only when at least one message was
// actually affected. Returns the number of newly-read messages.
func (s *MessageService) MarkRead(ctx context.Context, readerID, peerID uuid.UUID) (int, error) {
	ids, err := s.messageRepo.MarkRead(ctx, peerID, readerID)
	if err != nil {
		return 0, fmt.Errorf("marking messages read: %w", err)
	}

	if len(ids) > 0 {
		metrics.MessagesRead.Add(float64(len(ids)))
		if s.notifier != nil {
			s.notifier.NotifyMessagesRead(peerID, readerID)
		}
	}

	return len(ids), nil
}

// Delete hard-deletes a message owned by the caller and notifies its
// receiver. There is no tombstone; History simply stops including it.
func (s *MessageService) Delete(ctx context.Context, callerID, messageID uuid.UUID) error {
	msg, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg == nil {
		return ErrMessageNotFound
	}
	if msg.SenderID != callerID {
		return ErrNotMessageOwner
	}

	deleted, err := s.messageRepo.Delete(ctx, messageID)
	if err != nil {
		return fmt.Errorf("deleting message: %w", err)
	}
	if deleted == nil {
		// Lost the race with a concurrent delete of the same id.
		return ErrMessageNotFound
	}

	if s.notifier != nil {
		s.notifier.NotifyMessageDeleted(deleted)
	}

	return nil
}

// Edit replaces the text content of a message owned by the caller. The
// image reference and creation timestamp are untouched; adding text to an
// image-only message is allowed.
func (s *MessageService) Edit(ctx context.Context, callerID, messageID uuid.UUID, content string) (*domain.Message, error) {
	if content == "" {
		return nil, ErrEmptyMessage
	}

	msg, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, ErrMessageNotFound
	}
	if msg.SenderID != callerID {
		return nil, ErrNotMessageOwner
	}

	updated, err := s.messageRepo.UpdateContent(ctx, messageID, content)
	if err != nil {
		return nil, fmt.Errorf("updating message: %w", err)
	}
	if updated == nil {
		return nil, ErrMessageNotFound
	}

	if s.notifier != nil {
		s.notifier.NotifyMessageEdited(updated)
	}

	return updated, nil
}
