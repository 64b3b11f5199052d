package backend

import (
	"context"
	"errors"

	"github.com/gitgate/gitgate/pkg/access"
	"github.com/gitgate/gitgate/pkg/proto"
)

var _ access.Authorizer = (*Backend)(nil)

// AccessLevel returns the access level of an identity for a container.
// identity may be nil for anonymous requests.
func (b *Backend) AccessLevel(ctx context.Context, identity proto.Identity, c proto.Container) (access.AccessLevel, error) {
	switch id := identity.(type) {
	case proto.User:
		if id.IsAdmin() {
			return access.AdminAccess, nil
		}

		if c.UserID() == id.ID() {
			return access.AdminAccess, nil
		}

		level, isCollab, err := b.CollaboratorLevel(ctx, c.ID(), id.ID())
		if err != nil {
			return access.NoAccess, err
		}
		if isCollab {
			return level, nil
		}

		if c.IsPrivate() {
			return access.NoAccess, nil
		}

		return access.ReadOnlyAccess, nil
	case proto.DeployToken:
		if id.ContainerID() != c.ID() {
			if c.IsPrivate() {
				return access.NoAccess, nil
			}
			return access.ReadOnlyAccess, nil
		}
		if id.CanWrite() {
			return access.ReadWriteAccess, nil
		}
		return access.ReadOnlyAccess, nil
	default:
		if !c.IsPrivate() && b.cfg.Auth.AnonymousEnabled {
			return access.ReadOnlyAccess, nil
		}
		return access.NoAccess, nil
	}
}

// Authorize implements access.Authorizer. It answers whether identity may
// perform ability on the container, with failures typed for the transport
// layer: a private container an identity cannot read at all appears absent.
func (b *Backend) Authorize(ctx context.Context, identity proto.Identity, ability access.Ability, c proto.Container) error {
	if c == nil {
		return access.ErrNotFound
	}

	level, err := b.AccessLevel(ctx, identity, c)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return access.ErrTimeout
		}
		return err
	}

	abilities := level.Abilities()
	if abilities.Has(ability) {
		return nil
	}

	// Without read access to a private container, its very existence is
	// withheld.
	if c.IsPrivate() && !abilities.Has(access.AbilityDownload) {
		return access.ErrNotFound
	}

	return access.ErrForbidden
}
