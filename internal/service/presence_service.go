package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ikovic/relay/internal/cache"
	"github.com/ikovic/relay/internal/repository"
	"github.com/rs/zerolog"
)

// PresenceService maintains the coarse, persisted presence approximation:
// the is_online flag and last_seen timestamp on the user profile, plus a
// redis last-seen cache. All writes are opportunistic; the in-memory
// presence directory alone decides whether a user is reachable for push.
type PresenceService struct {
	userRepo repository.UserRepository
	lastSeen *cache.LastSeen
	notifier Notifier
	logger   zerolog.Logger
}

func NewPresenceService(userRepo repository.UserRepository, lastSeen *cache.LastSeen, logger zerolog.Logger) *PresenceService {
	return &PresenceService{
		userRepo: userRepo,
		lastSeen: lastSeen,
		logger:   logger,
	}
}

func (s *PresenceService) SetNotifier(n Notifier) {
	s.notifier = n
}

// MarkOnline records that the user gained their first live connection.
func (s *PresenceService) MarkOnline(ctx context.Context, userID uuid.UUID) {
	s.persist(ctx, userID, true)
}

// MarkOffline records that the user lost their last live connection.
func (s *PresenceService) MarkOffline(ctx context.Context, userID uuid.UUID) {
	s.persist(ctx, userID, false)
}

// SetStatus is the explicit user-driven toggle. Unlike Mark*, it also
// broadcasts a presence event so peers update immediately.
func (s *PresenceService) SetStatus(ctx context.Context, userID uuid.UUID, online bool) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	now := time.Now()
	if err := s.userRepo.SetOnline(ctx, userID, online, now); err != nil {
		return err
	}
	s.touchCache(ctx, userID, now)

	if s.notifier != nil {
		status := "offline"
		if online {
			status = "online"
		}
		s.notifier.NotifyPresenceChanged(userID, status, now)
	}

	return nil
}

func (s *PresenceService) persist(ctx context.Context, userID uuid.UUID, online bool) {
	now := time.Now()
	if err := s.userRepo.SetOnline(ctx, userID, online, now); err != nil {
		s.logger.Warn().Err(err).Stringer("user_id", userID).Msg("presence flag update failed")
	}
	s.touchCache(ctx, userID, now)
}

func (s *PresenceService) touchCache(ctx context.Context, userID uuid.UUID, t time.Time) {
	if s.lastSeen == nil {
		return
	}
	if err := s.lastSeen.Touch(ctx, userID, t); err != nil {
		s.logger.Warn().Err(err).Stringer("user_id", userID).Msg("last-seen cache update failed")
	}
}
