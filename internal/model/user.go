package model

import (
	"time"
)

type User struct {
	ID           string    `db:"id" json:"id"`
	Identifier   string    `db:"identifier" json:"identifier"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	Role         Role      `db:"role" json:"role"`
	GroupID      *string   `db:"group_id" json:"groupId,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

type CreateUserParams struct {
	Identifier   string
	PasswordHash string
	Name         string
	Email        string
	Role         Role
	GroupID      *string
}

type UpdateUserParams struct {
	Name    *string
	Email   *string
	Role    *Role
	GroupID *string
}
