package models

import (
	"database/sql"
	"time"
)

// User represents a user.
type User struct {
	ID           int64          `db:"id"`
	Username     string         `db:"username"`
	Admin        bool           `db:"admin"`
	Password     sql.NullString `db:"password"`
	LastActiveAt sql.NullTime   `db:"last_active_at"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

// AccessToken represents a personal access token.
type AccessToken struct {
	ID        int64        `db:"id"`
	Name      string       `db:"name"`
	UserID    int64        `db:"user_id"`
	Token     string       `db:"token"`
	ExpiresAt sql.NullTime `db:"expires_at"`
	CreatedAt time.Time    `db:"created_at"`
	UpdatedAt time.Time    `db:"updated_at"`
}
