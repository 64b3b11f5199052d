package store

import (
	"context"
	"time"

	"github.com/gitgate/gitgate/pkg/db"
	"github.com/gitgate/gitgate/pkg/db/models"
)

// UserStore is an interface for managing users and their access tokens.
type UserStore interface {
	GetUserByID(ctx context.Context, h db.Handler, id int64) (models.User, error)
	FindUserByUsername(ctx context.Context, h db.Handler, username string) (models.User, error)
	GetAllUsers(ctx context.Context, h db.Handler) ([]models.User, error)
	CreateUser(ctx context.Context, h db.Handler, username string, isAdmin bool) (models.User, error)
	DeleteUserByUsername(ctx context.Context, h db.Handler, username string) error
	SetAdminByUsername(ctx context.Context, h db.Handler, username string, isAdmin bool) error
	SetUserPasswordByUsername(ctx context.Context, h db.Handler, username string, passwordHash string) error
	TouchUserActivity(ctx context.Context, h db.Handler, userID int64) error

	FindAccessToken(ctx context.Context, h db.Handler, tokenHash string) (models.AccessToken, error)
	CreateAccessToken(ctx context.Context, h db.Handler, name string, userID int64, tokenHash string, expiresAt time.Time) (models.AccessToken, error)
	DeleteAccessTokenByID(ctx context.Context, h db.Handler, id int64) error
}
