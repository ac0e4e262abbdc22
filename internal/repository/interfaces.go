package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ikovic/relay/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateProfile(ctx context.Context, user *domain.User) error
	SetOnline(ctx context.Context, id uuid.UUID, online bool, lastSeen time.Time) error
}

// MessageRepository is the durable message ledger. It is the source of
// truth for content and read state; real-time pushes are derived from it.
type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error)
	// ListBetween returns the full conversation between two users,
	// ascending by (created_at, seq).
	ListBetween(ctx context.Context, userA, userB uuid.UUID) ([]domain.Message, error)
	// MarkRead flips read=false→true on every message from sender to
	// reader and returns the ids it touched. Idempotent.
	MarkRead(ctx context.Context, senderID, readerID uuid.UUID) ([]uuid.UUID, error)
	// Delete hard-deletes the message and returns the pre-deletion row,
	// or nil if no such message exists.
	Delete(ctx context.Context, id uuid.UUID) (*domain.Message, error)
	// UpdateContent replaces the text content (image untouched) and
	// returns the updated row, or nil if no such message exists.
	UpdateContent(ctx context.Context, id uuid.UUID, content string) (*domain.Message, error)
}

type FriendRepository interface {
	Create(ctx context.Context, f *domain.Friendship) error
	GetByUsers(ctx context.Context, user1ID, user2ID uuid.UUID) (*domain.Friendship, error)
	ListFriends(ctx context.Context, userID uuid.UUID) ([]domain.Friend, error)
	// Delete removes the friendship and reports whether a row existed.
	Delete(ctx context.Context, user1ID, user2ID uuid.UUID) (bool, error)
}
