package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fofrafo/dynamic-form/internal/models"
)

type AnswerRepo struct {
	pool *pgxpool.Pool
}

func NewAnswerRepo(pool *pgxpool.Pool) *AnswerRepo {
	return &AnswerRepo{pool: pool}
}

// SaveHistory stores each pair at its position. Positions already stored are
// left untouched, so resending the full history is idempotent.
func (r *AnswerRepo) SaveHistory(ctx context.Context, sessionID uuid.UUID, history []models.QAPair) (int, error) {
	if len(history) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for i, qa := range history {
		batch.Queue(`
			INSERT INTO form_answers (id, session_id, position, question, answer)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (session_id, position) DO NOTHING
		`, uuid.New(), sessionID, i+1, qa.Question, qa.Answer)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	inserted := 0
	for i := range history {
		tag, err := results.Exec()
		if err != nil {
			return inserted, fmt.Errorf("failed to store answer %d: %w", i+1, err)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

func (r *AnswerRepo) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*models.FormAnswer, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, session_id, position, question, answer, created_at
		FROM form_answers WHERE session_id = $1 ORDER BY position
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []*models.FormAnswer
	for rows.Next() {
		a := &models.FormAnswer{}
		if err := rows.Scan(&a.ID, &a.SessionID, &a.Position, &a.Question, &a.Answer, &a.CreatedAt); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}
