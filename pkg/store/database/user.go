package database

import (
	"context"
	"strings"
	"time"

	"github.com/gitgate/gitgate/pkg/db"
	"github.com/gitgate/gitgate/pkg/db/models"
	"github.com/gitgate/gitgate/pkg/store"
	"github.com/gitgate/gitgate/pkg/utils"
)

type userStore struct{}

var _ store.UserStore = (*userStore)(nil)

// GetUserByID implements store.UserStore.
func (*userStore) GetUserByID(ctx context.Context, tx db.Handler, id int64) (models.User, error) {
	var m models.User
	query := tx.Rebind(`SELECT * FROM users WHERE id = ?;`)
	err := tx.GetContext(ctx, &m, query, id)
	return m, err //nolint:wrapcheck
}

// FindUserByUsername implements store.UserStore.
func (*userStore) FindUserByUsername(ctx context.Context, tx db.Handler, username string) (models.User, error) {
	username = strings.ToLower(username)
	var m models.User
	query := tx.Rebind(`SELECT * FROM users WHERE username = ?;`)
	err := tx.GetContext(ctx, &m, query, username)
	return m, err //nolint:wrapcheck
}

// GetAllUsers implements store.UserStore.
func (*userStore) GetAllUsers(ctx context.Context, tx db.Handler) ([]models.User, error) {
	var ms []models.User
	query := tx.Rebind(`SELECT * FROM users ORDER BY username;`)
	err := tx.SelectContext(ctx, &ms, query)
	return ms, err //nolint:wrapcheck
}

// CreateUser implements store.UserStore.
func (*userStore) CreateUser(ctx context.Context, tx db.Handler, username string, isAdmin bool) (models.User, error) {
	var m models.User
	username = strings.ToLower(username)
	if err := utils.ValidateUsername(username); err != nil {
		return m, err //nolint:wrapcheck
	}

	query := tx.Rebind(`INSERT INTO users (username, admin, updated_at)
			VALUES (?, ?, CURRENT_TIMESTAMP) RETURNING *;`)
	err := tx.GetContext(ctx, &m, query, username, isAdmin)
	return m, err //nolint:wrapcheck
}

// DeleteUserByUsername implements store.UserStore.
func (*userStore) DeleteUserByUsername(ctx context.Context, tx db.Handler, username string) error {
	username = strings.ToLower(username)
	query := tx.Rebind(`DELETE FROM users WHERE username = ?;`)
	_, err := tx.ExecContext(ctx, query, username)
	return err //nolint:wrapcheck
}

// SetAdminByUsername implements store.UserStore.
func (*userStore) SetAdminByUsername(ctx context.Context, tx db.Handler, username string, isAdmin bool) error {
	username = strings.ToLower(username)
	query := tx.Rebind(`UPDATE users SET admin = ?, updated_at = CURRENT_TIMESTAMP WHERE username = ?;`)
	_, err := tx.ExecContext(ctx, query, isAdmin, username)
	return err //nolint:wrapcheck
}

// SetUserPasswordByUsername implements store.UserStore.
func (*userStore) SetUserPasswordByUsername(ctx context.Context, tx db.Handler, username string, passwordHash string) error {
	username = strings.ToLower(username)
	query := tx.Rebind(`UPDATE users SET password = ?, updated_at = CURRENT_TIMESTAMP WHERE username = ?;`)
	_, err := tx.ExecContext(ctx, query, passwordHash, username)
	return err //nolint:wrapcheck
}

// TouchUserActivity implements store.UserStore.
func (*userStore) TouchUserActivity(ctx context.Context, tx db.Handler, userID int64) error {
	query := tx.Rebind(`UPDATE users SET last_active_at = CURRENT_TIMESTAMP WHERE id = ?;`)
	_, err := tx.ExecContext(ctx, query, userID)
	return err //nolint:wrapcheck
}

// FindAccessToken implements store.UserStore.
func (*userStore) FindAccessToken(ctx context.Context, tx db.Handler, tokenHash string) (models.AccessToken, error) {
	var m models.AccessToken
	query := tx.Rebind(`SELECT * FROM access_tokens WHERE token = ?;`)
	err := tx.GetContext(ctx, &m, query, tokenHash)
	return m, err //nolint:wrapcheck
}

// CreateAccessToken implements store.UserStore.
func (*userStore) CreateAccessToken(ctx context.Context, tx db.Handler, name string, userID int64, tokenHash string, expiresAt time.Time) (models.AccessToken, error) {
	var m models.AccessToken
	var query string
	values := []interface{}{name, userID, tokenHash}
	if expiresAt.IsZero() {
		query = `INSERT INTO access_tokens (name, user_id, token, updated_at)
			VALUES (?, ?, ?, CURRENT_TIMESTAMP) RETURNING *;`
	} else {
		query = `INSERT INTO access_tokens (name, user_id, token, expires_at, updated_at)
			VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP) RETURNING *;`
		values = append(values, expiresAt)
	}

	err := tx.GetContext(ctx, &m, tx.Rebind(query), values...)
	return m, err //nolint:wrapcheck
}

// DeleteAccessTokenByID implements store.UserStore.
func (*userStore) DeleteAccessTokenByID(ctx context.Context, tx db.Handler, id int64) error {
	query := tx.Rebind(`DELETE FROM access_tokens WHERE id = ?;`)
	_, err := tx.ExecContext(ctx, query, id)
	return err //nolint:wrapcheck
}
