package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ikovic/relay/internal/domain"
	"github.com/ikovic/relay/internal/repository"
)

var (
	ErrCannotFriendSelf   = errors.New("cannot add yourself as a friend")
	ErrAlreadyFriends     = errors.New("already friends")
	ErrFriendshipNotFound = errors.New("friendship not found")
)

type FriendService struct {
	friendRepo repository.FriendRepository
	userRepo   repository.UserRepository
	notifier   Notifier
}

func NewFriendService(friendRepo repository.FriendRepository, userRepo repository.UserRepository) *FriendService {
	return &FriendService{
		friendRepo: friendRepo,
		userRepo:   userRepo,
	}
}

func (s *FriendService) SetNotifier(n Notifier) {
	s.notifier = n
}

// AddFriend creates a friendship with the user behind the given email.
func (s *FriendService) AddFriend(ctx context.Context, userID uuid.UUID, email string) (*domain.Friend, error) {
	target, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, ErrUserNotFound
	}
	if target.ID == userID {
		return nil, ErrCannotFriendSelf
	}

	u1, u2 := canonicalPair(userID, target.ID)

	existing, err := s.friendRepo.GetByUsers(ctx, u1, u2)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyFriends
	}

	f := &domain.Friendship{
		ID:        uuid.New(),
		User1ID:   u1,
		User2ID:   u2,
		CreatedAt: time.Now(),
	}
	if err := s.friendRepo.Create(ctx, f); err != nil {
		return nil, fmt.Errorf("creating friendship: %w", err)
	}

	return &domain.Friend{
		ID:         target.ID,
		Name:       target.Name,
		Email:      target.Email,
		AvatarURL:  target.AvatarURL,
		StatusText: target.StatusText,
		IsOnline:   target.IsOnline,
		LastSeen:   target.LastSeen,
	}, nil
}

// ListFriends returns all friends for a user with their coarse presence.
func (s *FriendService) ListFriends(ctx context.Context, userID uuid.UUID) ([]domain.Friend, error) {
	friends, err := s.friendRepo.ListFriends(ctx, userID)
	if err != nil {
		return nil, err
	}
	if friends == nil {
		friends = []domain.Friend{}
	}
	return friends, nil
}

// RemoveFriend severs the friendship in both directions and notifies the
// removed party only.
func (s *FriendService) RemoveFriend(ctx context.Context, userID, friendID uuid.UUID) error {
	u1, u2 := canonicalPair(userID, friendID)

	removed, err := s.friendRepo.Delete(ctx, u1, u2)
	if err != nil {
		return fmt.Errorf("removing friendship: %w", err)
	}
	if !removed {
		return ErrFriendshipNotFound
	}

	if s.notifier != nil {
		s.notifier.NotifyFriendRemoved(friendID, userID)
	}

	return nil
}

// canonicalPair orders two user ids so friendship rows are unique
// regardless of who initiated.
func canonicalPair(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if a.String() > b.String() {
		return b, a
	}
	return a, b
}
