package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/rollcall/attendance-server-go/internal/model"
)

type UserRepository interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByIdentifier(ctx context.Context, identifier string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Create(ctx context.Context, params model.CreateUserParams) (*model.User, error)
	Update(ctx context.Context, id string, params model.UpdateUserParams) (*model.User, error)
	Delete(ctx context.Context, id string) error
}

type userDB interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

type userRepo struct {
	db userDB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `
		SELECT * FROM users WHERE id = $1
	`, id)
	return HandleNotFound(&user, err)
}

func (r *userRepo) FindByIdentifier(ctx context.Context, identifier string) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `
		SELECT * FROM users WHERE identifier = $1
	`, identifier)
	return HandleNotFound(&user, err)
}

func (r *userRepo) List(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := r.db.SelectContext(ctx, &users, `
		SELECT * FROM users ORDER BY identifier
	`)
	return users, err
}

func (r *userRepo) Create(ctx context.Context, params model.CreateUserParams) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `
		INSERT INTO users (identifier, password_hash, name, email, role, group_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING *
	`, params.Identifier, params.PasswordHash, params.Name, params.Email, params.Role, params.GroupID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) Update(ctx context.Context, id string, params model.UpdateUserParams) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `
		UPDATE users SET
			name = COALESCE($2, name),
			email = COALESCE($3, email),
			role = COALESCE($4, role),
			group_id = COALESCE($5, group_id),
			updated_at = NOW()
		WHERE id = $1
		RETURNING *
	`, id, params.Name, params.Email, params.Role, params.GroupID)
	return HandleNotFound(&user, err)
}

func (r *userRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	return err
}
