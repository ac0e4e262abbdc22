package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/ikovic/relay/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type FriendRepo struct {
	pool *pgxpool.Pool
}

func NewFriendRepo(pool *pgxpool.Pool) *FriendRepo {
	return &FriendRepo{pool: pool}
}

func (r *FriendRepo) Create(ctx context.Context, f *domain.Friendship) error {
	query := `
		INSERT INTO friendships (id, user1_id, user2_id, created_at)
		VALUES ($1, $2, $3, $4)`
	_, err := r.pool.Exec(ctx, query, f.ID, f.User1ID, f.User2ID, f.CreatedAt)
	return err
}

func (r *FriendRepo) GetByUsers(ctx context.Context, user1ID, user2ID uuid.UUID) (*domain.Friendship, error) {
	query := `
		SELECT id, user1_id, user2_id, created_at
		FROM friendships
		WHERE user1_id = $1 AND user2_id = $2`
	var f domain.Friendship
	err := r.pool.QueryRow(ctx, query, user1ID, user2ID).Scan(
		&f.ID, &f.User1ID, &f.User2ID, &f.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &f, err
}

func (r *FriendRepo) ListFriends(ctx context.Context, userID uuid.UUID) ([]domain.Friend, error) {
	query := `
		SELECT u.id, u.name, u.email, u.avatar_url, u.status_text, u.is_online, u.last_seen
		FROM friendships f
		JOIN users u ON u.id = CASE WHEN f.user1_id = $1 THEN f.user2_id ELSE f.user1_id END
		WHERE f.user1_id = $1 OR f.user2_id = $1
		ORDER BY u.name ASC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var friends []domain.Friend
	for rows.Next() {
		var fr domain.Friend
		if err := rows.Scan(
			&fr.ID, &fr.Name, &fr.Email, &fr.AvatarURL,
			&fr.StatusText, &fr.IsOnline, &fr.LastSeen,
		); err != nil {
			return nil, err
		}
		friends = append(friends, fr)
	}
	return friends, rows.Err()
}

func (r *FriendRepo) Delete(ctx context.Context, user1ID, user2ID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM friendships WHERE user1_id = $1 AND user2_id = $2`,
		user1ID, user2ID,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
