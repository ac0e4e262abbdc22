package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/ikovic/relay/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MessageRepo struct {
	pool *pgxpool.Pool
}

func NewMessageRepo(pool *pgxpool.Pool) *MessageRepo {
	return &MessageRepo{pool: pool}
}

const messageColumns = `id, sender_id, receiver_id, content, image, is_read, created_at, updated_at, seq`

func (r *MessageRepo) Create(ctx context.Context, msg *domain.Message) error {
	query := `
		INSERT INTO messages (id, sender_id, receiver_id, content, image, is_read, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING seq`
	return r.pool.QueryRow(ctx, query,
		msg.ID, msg.SenderID, msg.ReceiverID, msg.Content, msg.Image,
		msg.IsRead, msg.CreatedAt, msg.UpdatedAt,
	).Scan(&msg.Seq)
}

func (r *MessageRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id = $1`
	var msg domain.Message
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&msg.ID, &msg.SenderID, &msg.ReceiverID, &msg.Content, &msg.Image,
		&msg.IsRead, &msg.CreatedAt, &msg.UpdatedAt, &msg.Seq,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &msg, err
}

func (r *MessageRepo) ListBetween(ctx context.Context, userA, userB uuid.UUID) ([]domain.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE (sender_id = $1 AND receiver_id = $2)
		   OR (sender_id = $2 AND receiver_id = $1)
		ORDER BY created_at ASC, seq ASC`

	rows, err := r.pool.Query(ctx, query, userA, userB)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(
			&msg.ID, &msg.SenderID, &msg.ReceiverID, &msg.Content, &msg.Image,
			&msg.IsRead, &msg.CreatedAt, &msg.UpdatedAt, &msg.Seq,
		); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

func (r *MessageRepo) MarkRead(ctx context.Context, senderID, readerID uuid.UUID) ([]uuid.UUID, error) {
	query := `
		UPDATE messages SET is_read = TRUE
		WHERE sender_id = $1 AND receiver_id = $2 AND is_read = FALSE
		RETURNING id`

	rows, err := r.pool.Query(ctx, query, senderID, readerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *MessageRepo) Delete(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	query := `DELETE FROM messages WHERE id = $1 RETURNING ` + messageColumns
	var msg domain.Message
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&msg.ID, &msg.SenderID, &msg.ReceiverID, &msg.Content, &msg.Image,
		&msg.IsRead, &msg.CreatedAt, &msg.UpdatedAt, &msg.Seq,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &msg, err
}

func (r *MessageRepo) UpdateContent(ctx context.Context, id uuid.UUID, content string) (*domain.Message, error) {
	query := `
		UPDATE messages SET content = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING ` + messageColumns
	var msg domain.Message
	err := r.pool.QueryRow(ctx, query, content, id).Scan(
		&msg.ID, &msg.SenderID, &msg.ReceiverID, &msg.Content, &msg.Image,
		&msg.IsRead, &msg.CreatedAt, &msg.UpdatedAt, &msg.Seq,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &msg, err
}
