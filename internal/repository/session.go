package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/rollcall/attendance-server-go/internal/model"
)

type RefreshSessionRepository interface {
	FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshSession, error)
	Create(ctx context.Context, params model.CreateRefreshSessionParams) (*model.RefreshSession, error)
	Delete(ctx context.Context, id string) error
	DeleteByUserID(ctx context.Context, userID string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

type refreshSessionDB interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

type refreshSessionRepo struct {
	db refreshSessionDB
}

func NewRefreshSessionRepository(db *sqlx.DB) RefreshSessionRepository {
	return &refreshSessionRepo{db: db}
}

func (r *refreshSessionRepo) FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshSession, error) {
	var session model.RefreshSession
	err := r.db.GetContext(ctx, &session, `
		SELECT * FROM refresh_sessions
		WHERE token_hash = $1 AND expires_at > NOW()
	`, tokenHash)
	return HandleNotFound(&session, err)
}

func (r *refreshSessionRepo) Create(ctx context.Context, params model.CreateRefreshSessionParams) (*model.RefreshSession, error) {
	var session model.RefreshSession
	err := r.db.GetContext(ctx, &session, `
		INSERT INTO refresh_sessions (user_id, token_hash, expires_at)
		VALUES ($1, $2, $3)
		RETURNING *
	`, params.UserID, params.TokenHash, params.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *refreshSessionRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM refresh_sessions WHERE id = $1`, id)
	return err
}

func (r *refreshSessionRepo) DeleteByUserID(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM refresh_sessions WHERE user_id = $1`, userID)
	return err
}

func (r *refreshSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM refresh_sessions WHERE expires_at < NOW()
	`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
