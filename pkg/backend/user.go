package backend

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gitgate/gitgate/pkg/db"
	"github.com/gitgate/gitgate/pkg/db/models"
	"github.com/gitgate/gitgate/pkg/proto"
)

type user struct {
	user models.User
}

var _ proto.User = (*user)(nil)

// ID implements proto.Identity.
func (u *user) ID() int64 {
	return u.user.ID
}

// Name implements proto.Identity.
func (u *user) Name() string {
	return u.user.Username
}

// Username implements proto.User.
func (u *user) Username() string {
	return u.user.Username
}

// IsAdmin implements proto.User.
func (u *user) IsAdmin() bool {
	return u.user.Admin
}

// Password implements proto.User.
func (u *user) Password() string {
	if u.user.Password.Valid {
		return u.user.Password.String
	}
	return ""
}

// User finds a user by username.
func (b *Backend) User(ctx context.Context, username string) (proto.User, error) {
	username = strings.ToLower(username)

	var m models.User
	if err := b.db.TransactionContext(ctx, func(tx *db.Tx) error {
		var err error
		m, err = b.store.FindUserByUsername(ctx, tx, username)
		return err
	}); err != nil {
		err = db.WrapError(err)
		if errors.Is(err, db.ErrRecordNotFound) {
			return nil, proto.ErrUserNotFound
		}
		return nil, err
	}

	return &user{user: m}, nil
}

// UserByID finds a user by ID.
func (b *Backend) UserByID(ctx context.Context, id int64) (proto.User, error) {
	var m models.User
	if err := b.db.TransactionContext(ctx, func(tx *db.Tx) error {
		var err error
		m, err = b.store.GetUserByID(ctx, tx, id)
		return err
	}); err != nil {
		err = db.WrapError(err)
		if errors.Is(err, db.ErrRecordNotFound) {
			return nil, proto.ErrUserNotFound
		}
		return nil, err
	}

	return &user{user: m}, nil
}

// UserByAccessToken finds a user by personal access token.
func (b *Backend) UserByAccessToken(ctx context.Context, token string) (proto.User, error) {
	var m models.User
	token = HashToken(token)

	if err := b.db.TransactionContext(ctx, func(tx *db.Tx) error {
		t, err := b.store.FindAccessToken(ctx, tx, token)
		if err != nil {
			return db.WrapError(err)
		}

		if t.ExpiresAt.Valid && t.ExpiresAt.Time.Before(time.Now()) {
			return proto.ErrTokenExpired
		}

		m, err = b.store.GetUserByID(ctx, tx, t.UserID)
		return err
	}); err != nil {
		err = db.WrapError(err)
		if errors.Is(err, db.ErrRecordNotFound) {
			return nil, proto.ErrUserNotFound
		}
		return nil, err
	}

	return &user{user: m}, nil
}

// CreateUser creates a new user. password may be empty, in which case the
// user cannot authenticate with Basic password credentials.
func (b *Backend) CreateUser(ctx context.Context, username, password string, isAdmin bool) (proto.User, error) {
	var m models.User
	if err := b.db.TransactionContext(ctx, func(tx *db.Tx) error {
		var err error
		m, err = b.store.CreateUser(ctx, tx, username, isAdmin)
		if err != nil {
			return err
		}

		if password != "" {
			hash, err := HashPassword(password)
			if err != nil {
				return err
			}
			if err := b.store.SetUserPasswordByUsername(ctx, tx, m.Username, hash); err != nil {
				return err
			}
			m.Password.String = hash
			m.Password.Valid = true
		}

		return nil
	}); err != nil {
		return nil, db.WrapError(err)
	}

	return &user{user: m}, nil
}

// SetPassword sets the user's password.
func (b *Backend) SetPassword(ctx context.Context, username, password string) error {
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}

	return b.db.TransactionContext(ctx, func(tx *db.Tx) error {
		return b.store.SetUserPasswordByUsername(ctx, tx, username, hash)
	})
}

// Usernames returns all usernames, sorted by the store.
func (b *Backend) Usernames(ctx context.Context) ([]string, error) {
	var usernames []string
	if err := b.db.TransactionContext(ctx, func(tx *db.Tx) error {
		users, err := b.store.GetAllUsers(ctx, tx)
		if err != nil {
			return err
		}
		usernames = make([]string, 0, len(users))
		for _, u := range users {
			usernames = append(usernames, u.Username)
		}
		return nil
	}); err != nil {
		return nil, db.WrapError(err)
	}

	return usernames, nil
}

// DeleteUser deletes the user and everything owned by it.
func (b *Backend) DeleteUser(ctx context.Context, username string) error {
	username = strings.ToLower(username)
	return b.db.TransactionContext(ctx, func(tx *db.Tx) error {
		return b.store.DeleteUserByUsername(ctx, tx, username)
	})
}

// CreateAccessToken creates an access token for user and returns the raw
// token. Only the hash is persisted.
func (b *Backend) CreateAccessToken(ctx context.Context, user proto.User, name string, expiresAt time.Time) (string, error) {
	token := GenerateToken()
	tokenHash := HashToken(token)
	if err := b.db.TransactionContext(ctx, func(tx *db.Tx) error {
		_, err := b.store.CreateAccessToken(ctx, tx, name, user.ID(), tokenHash, expiresAt)
		return err
	}); err != nil {
		return "", db.WrapError(err)
	}

	return token, nil
}

// TouchUserActivity updates the user's last activity timestamp.
func (b *Backend) TouchUserActivity(ctx context.Context, identity proto.Identity) {
	u, ok := identity.(proto.User)
	if !ok {
		return
	}
	if err := b.db.TransactionContext(ctx, func(tx *db.Tx) error {
		return b.store.TouchUserActivity(ctx, tx, u.ID())
	}); err != nil {
		b.logger.Error("failed to touch user activity", "username", u.Username(), "err", err)
	}
}
