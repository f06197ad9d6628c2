package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/rollcall/attendance-server-go/internal/model"
)

type CodeRepository interface {
	Create(ctx context.Context, params model.CreateCodeParams) (*model.GeneratedCode, error)
	FindByID(ctx context.Context, id string) (*model.GeneratedCode, error)
	// FindActiveByLessonID returns the single redeemable code for a lesson at
	// the given instant, or nil. If the single-active invariant is ever
	// violated the most recently issued code wins.
	FindActiveByLessonID(ctx context.Context, lessonID string, now time.Time) (*model.GeneratedCode, error)
	// FindLatestByLessonID returns the most recently issued code regardless of
	// state, used to distinguish an expired submission from a plain miss.
	FindLatestByLessonID(ctx context.Context, lessonID string) (*model.GeneratedCode, error)
	ListByLessonID(ctx context.Context, lessonID string) ([]model.GeneratedCode, error)
	Deactivate(ctx context.Context, id string) error
	DeactivateByLessonID(ctx context.Context, lessonID string) (int64, error)
	// CountLapsed counts codes whose active flag is still set although their
	// window has passed. Codes are never deleted, so this only feeds the
	// cleanup job's report.
	CountLapsed(ctx context.Context, now time.Time) (int, error)
}

// codeDB is an interface satisfied by both *sqlx.DB and *sqlx.Tx
type codeDB interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

type codeRepo struct {
	db codeDB
}

func NewCodeRepository(db *sqlx.DB) CodeRepository {
	return &codeRepo{db: db}
}

func (r *codeRepo) Create(ctx context.Context, params model.CreateCodeParams) (*model.GeneratedCode, error) {
	var code model.GeneratedCode
	err := r.db.GetContext(ctx, &code, `
		INSERT INTO generated_codes (lesson_id, teacher_id, code, issued_at, expires_at, is_active)
		VALUES ($1, $2, $3, $4, $5, TRUE)
		RETURNING *
	`, params.LessonID, params.TeacherID, params.Code, params.IssuedAt, params.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return &code, nil
}

func (r *codeRepo) FindByID(ctx context.Context, id string) (*model.GeneratedCode, error) {
	var code model.GeneratedCode
	err := r.db.GetContext(ctx, &code, `
		SELECT * FROM generated_codes WHERE id = $1
	`, id)
	return HandleNotFound(&code, err)
}

func (r *codeRepo) FindActiveByLessonID(ctx context.Context, lessonID string, now time.Time) (*model.GeneratedCode, error) {
	var code model.GeneratedCode
	err := r.db.GetContext(ctx, &code, `
		SELECT * FROM generated_codes
		WHERE lesson_id = $1 AND is_active AND expires_at > $2
		ORDER BY issued_at DESC
		LIMIT 1
	`, lessonID, now)
	return HandleNotFound(&code, err)
}

func (r *codeRepo) FindLatestByLessonID(ctx context.Context, lessonID string) (*model.GeneratedCode, error) {
	var code model.GeneratedCode
	err := r.db.GetContext(ctx, &code, `
		SELECT * FROM generated_codes
		WHERE lesson_id = $1
		ORDER BY issued_at DESC
		LIMIT 1
	`, lessonID)
	return HandleNotFound(&code, err)
}

func (r *codeRepo) ListByLessonID(ctx context.Context, lessonID string) ([]model.GeneratedCode, error) {
	var codes []model.GeneratedCode
	err := r.db.SelectContext(ctx, &codes, `
		SELECT * FROM generated_codes
		WHERE lesson_id = $1
		ORDER BY issued_at DESC
	`, lessonID)
	return codes, err
}

func (r *codeRepo) Deactivate(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE generated_codes SET is_active = FALSE WHERE id = $1
	`, id)
	return err
}

func (r *codeRepo) DeactivateByLessonID(ctx context.Context, lessonID string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE generated_codes SET is_active = FALSE
		WHERE lesson_id = $1 AND is_active
	`, lessonID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *codeRepo) CountLapsed(ctx context.Context, now time.Time) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM generated_codes
		WHERE is_active AND expires_at < $1
	`, now)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return count, err
}
