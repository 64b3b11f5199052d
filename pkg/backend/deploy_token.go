package backend

import (
	"context"
	"errors"
	"time"

	"github.com/gitgate/gitgate/pkg/db"
	"github.com/gitgate/gitgate/pkg/db/models"
	"github.com/gitgate/gitgate/pkg/proto"
)

type deployToken struct {
	token models.DeployToken
}

var _ proto.DeployToken = (*deployToken)(nil)

// ID implements proto.Identity.
func (t *deployToken) ID() int64 {
	return t.token.ID
}

// Name implements proto.Identity.
func (t *deployToken) Name() string {
	return t.token.Username
}

// ContainerID implements proto.DeployToken.
func (t *deployToken) ContainerID() int64 {
	return t.token.ContainerID
}

// CanWrite implements proto.DeployToken.
func (t *deployToken) CanWrite() bool {
	return t.token.CanWrite
}

// DeployTokenByToken finds a deploy token by its raw token value.
func (b *Backend) DeployTokenByToken(ctx context.Context, token string) (proto.DeployToken, error) {
	tokenHash := HashToken(token)

	var m models.DeployToken
	if err := b.db.TransactionContext(ctx, func(tx *db.Tx) error {
		var err error
		m, err = b.store.FindDeployToken(ctx, tx, tokenHash)
		if err != nil {
			return db.WrapError(err)
		}

		if m.ExpiresAt.Valid && m.ExpiresAt.Time.Before(time.Now()) {
			return proto.ErrTokenExpired
		}

		return nil
	}); err != nil {
		err = db.WrapError(err)
		if errors.Is(err, db.ErrRecordNotFound) {
			return nil, proto.ErrTokenNotFound
		}
		return nil, err
	}

	return &deployToken{token: m}, nil
}

// CreateDeployToken creates a deploy token scoped to a container and returns
// the raw token. Only the hash is persisted.
func (b *Backend) CreateDeployToken(ctx context.Context, name, username string, containerID int64, canWrite bool, expiresAt time.Time) (string, error) {
	token := GenerateToken()
	tokenHash := HashToken(token)
	if err := b.db.TransactionContext(ctx, func(tx *db.Tx) error {
		_, err := b.store.CreateDeployToken(ctx, tx, name, username, containerID, tokenHash, canWrite, expiresAt)
		return err
	}); err != nil {
		return "", db.WrapError(err)
	}

	return token, nil
}
