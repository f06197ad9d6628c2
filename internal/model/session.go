package model

import "time"

// RefreshSession stores a hashed refresh token. The plaintext token is
// returned to the client once at login and never persisted.
type RefreshSession struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"userId"`
	TokenHash string    `db:"token_hash" json:"-"`
	ExpiresAt time.Time `db:"expires_at" json:"expiresAt"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

type CreateRefreshSessionParams struct {
	UserID    string
	TokenHash string
	ExpiresAt time.Time
}
