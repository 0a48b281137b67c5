package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tavoloai/tavolo-web/internal/domain"
)

// SessionRepository implements domain.SessionRepository using SQLite.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new SQLite-backed SessionRepository.
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db.SqlDB}
}

func (r *SessionRepository) Create(ctx context.Context, s *domain.StoredSession) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, refresh_token, created_at, expires_at) VALUES (?, ?, ?, ?, ?)`,
		s.ID, s.UserID, s.RefreshToken, s.CreatedAt.UTC(), s.ExpiresAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *SessionRepository) GetByID(ctx context.Context, id string) (*domain.StoredSession, error) {
	return r.get(ctx, `WHERE id = ?`, id)
}

func (r *SessionRepository) GetByRefreshToken(ctx context.Context, token string) (*domain.StoredSession, error) {
	return r.get(ctx, `WHERE refresh_token = ?`, token)
}

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *SessionRepository) get(ctx context.Context, where string, arg any) (*domain.StoredSession, error) {
	s := &domain.StoredSession{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, refresh_token, created_at, expires_at FROM sessions `+where, arg,
	).Scan(&s.ID, &s.UserID, &s.RefreshToken, &s.CreatedAt, &s.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query session: %w", err)
	}
	return s, nil
}
