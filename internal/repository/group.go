package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/rollcall/attendance-server-go/internal/model"
)

type GroupRepository interface {
	FindByID(ctx context.Context, id string) (*model.Group, error)
	List(ctx context.Context) ([]model.Group, error)
}

type groupRepo struct {
	db *sqlx.DB
}

func NewGroupRepository(db *sqlx.DB) GroupRepository {
	return &groupRepo{db: db}
}

func (r *groupRepo) FindByID(ctx context.Context, id string) (*model.Group, error) {
	var group model.Group
	err := r.db.GetContext(ctx, &group, `
		SELECT * FROM groups WHERE id = $1
	`, id)
	return HandleNotFound(&group, err)
}

func (r *groupRepo) List(ctx context.Context) ([]model.Group, error) {
	var groups []model.Group
	err := r.db.SelectContext(ctx, &groups, `
		SELECT * FROM groups ORDER BY name
	`)
	return groups, err
}
