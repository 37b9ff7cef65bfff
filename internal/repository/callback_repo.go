package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fofrafo/dynamic-form/internal/models"
)

type CallbackRepo struct {
	pool *pgxpool.Pool
}

func NewCallbackRepo(pool *pgxpool.Pool) *CallbackRepo {
	return &CallbackRepo{pool: pool}
}

// Create inserts an open callback request. It returns false when the session
// already has one for the same reason.
func (r *CallbackRepo) Create(ctx context.Context, c *models.CallbackRequest) (bool, error) {
	c.ID = uuid.New()
	c.Status = models.CallbackOpen

	err := r.pool.QueryRow(ctx, `
		INSERT INTO callback_requests (id, session_id, reason, status, summary, duration)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (session_id, reason) DO NOTHING
		RETURNING created_at
	`, c.ID, c.SessionID, c.Reason, c.Status, c.Summary, c.Duration).Scan(&c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *CallbackRepo) ListByStatus(ctx context.Context, status string, limit, offset int) ([]*models.CallbackRequest, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, session_id, reason, status, summary, duration, created_at, done_at
		FROM callback_requests WHERE status = $1
		ORDER BY created_at LIMIT $2 OFFSET $3
	`, status, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.CallbackRequest
	for rows.Next() {
		c := &models.CallbackRequest{}
		if err := rows.Scan(&c.ID, &c.SessionID, &c.Reason, &c.Status, &c.Summary, &c.Duration, &c.CreatedAt, &c.DoneAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *CallbackRepo) MarkDone(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE callback_requests SET status = $1, done_at = NOW()
		WHERE id = $2 AND status = $3
	`, models.CallbackDone, id, models.CallbackOpen)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
