package domain

import (
	"time"

	"github.com/google/uuid"
)

// Friendship is stored with User1ID < User2ID (canonical pair order).
type Friendship struct {
	ID        uuid.UUID `json:"id"`
	User1ID   uuid.UUID `json:"user1_id"`
	User2ID   uuid.UUID `json:"user2_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Friend is the other side of a friendship, joined with profile and the
// coarse persisted presence fields. IsOnline/LastSeen are display hints;
// the live presence directory is the only input to delivery decisions.
type Friend struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	AvatarURL  *string   `json:"avatar_url,omitempty"`
	StatusText string    `json:"status_text"`
	IsOnline   bool      `json:"is_online"`
	LastSeen   time.Time `json:"last_seen"`
}
