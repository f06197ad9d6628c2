package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/rollcall/attendance-server-go/internal/model"
)

type LessonRepository interface {
	FindByID(ctx context.Context, id string) (*model.Lesson, error)
	List(ctx context.Context) ([]model.Lesson, error)
	ListByGroupID(ctx context.Context, groupID string) ([]model.Lesson, error)
}

type lessonRepo struct {
	db *sqlx.DB
}

func NewLessonRepository(db *sqlx.DB) LessonRepository {
	return &lessonRepo{db: db}
}

func (r *lessonRepo) FindByID(ctx context.Context, id string) (*model.Lesson, error) {
	var lesson model.Lesson
	err := r.db.GetContext(ctx, &lesson, `
		SELECT * FROM lessons WHERE id = $1
	`, id)
	return HandleNotFound(&lesson, err)
}

func (r *lessonRepo) List(ctx context.Context) ([]model.Lesson, error) {
	var lessons []model.Lesson
	err := r.db.SelectContext(ctx, &lessons, `
		SELECT * FROM lessons ORDER BY day, starts_at
	`)
	return lessons, err
}

func (r *lessonRepo) ListByGroupID(ctx context.Context, groupID string) ([]model.Lesson, error) {
	var lessons []model.Lesson
	err := r.db.SelectContext(ctx, &lessons, `
		SELECT * FROM lessons
		WHERE group_id = $1
		ORDER BY day, starts_at
	`, groupID)
	return lessons, err
}
