package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fofrafo/dynamic-form/internal/models"
)

var ErrNotFound = errors.New("not found")

type SessionRepo struct {
	pool  *pgxpool.Pool
	cache *lru.Cache[uuid.UUID, models.FormSession]
}

func NewSessionRepo(pool *pgxpool.Pool, cacheSize int) (*SessionRepo, error) {
	if cacheSize <= 0 {
		cacheSize = 1024
	}
	cache, err := lru.New[uuid.UUID, models.FormSession](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create session cache: %w", err)
	}
	return &SessionRepo{pool: pool, cache: cache}, nil
}

func (r *SessionRepo) Create(ctx context.Context, s *models.FormSession) error {
	s.ID = uuid.New()
	s.Status = models.SessionInProgress

	query := `INSERT INTO form_sessions (id, species, age, name, reason, status)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		s.ID, s.Species, s.Age, s.Name, s.Reason, s.Status,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return err
	}
	r.cache.Add(s.ID, *s)
	return nil
}

// GetByID serves from the cache when possible. Returned sessions are copies.
func (r *SessionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.FormSession, error) {
	if cached, ok := r.cache.Get(id); ok {
		return &cached, nil
	}

	s := &models.FormSession{}
	var goals []byte
	query := `SELECT id, species, age, name, reason, status, summary, goals, created_at, updated_at
		FROM form_sessions WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.Species, &s.Age, &s.Name, &s.Reason, &s.Status,
		&s.Summary, &goals, &s.CreatedAt, &s.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(goals) > 0 {
		s.Goals = &models.Goals{}
		if err := json.Unmarshal(goals, s.Goals); err != nil {
			return nil, fmt.Errorf("failed to decode goals for session %s: %w", id, err)
		}
	}

	r.cache.Add(s.ID, *s)
	return s, nil
}

// Complete marks the session completed and stores the outcome. It reports
// ErrNotFound when no in-progress session matched.
func (r *SessionRepo) Complete(ctx context.Context, id uuid.UUID, c models.Completion) error {
	goals, err := json.Marshal(c.Goals)
	if err != nil {
		return err
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE form_sessions
		SET status = $1, summary = $2, goals = $3, updated_at = NOW()
		WHERE id = $4 AND status = $5
	`, models.SessionCompleted, c.Summary, goals, id, models.SessionInProgress)
	if err != nil {
		return err
	}
	r.cache.Remove(id)
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
