package backend

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/gitgate/gitgate/pkg/access"
	"github.com/gitgate/gitgate/pkg/db"
	"github.com/gitgate/gitgate/pkg/db/models"
	"github.com/gitgate/gitgate/pkg/git"
	"github.com/gitgate/gitgate/pkg/proto"
	"github.com/gitgate/gitgate/pkg/utils"
)

// wikiSuffix marks a wire path addressing a project's wiki repository.
const wikiSuffix = ".wiki"

type container struct {
	container      models.Container
	kind           models.ContainerKind
	redirectedFrom string
}

var _ proto.Container = (*container)(nil)

// ID implements proto.Container.
func (c *container) ID() int64 {
	return c.container.ID
}

// Path implements proto.Container.
func (c *container) Path() string {
	return c.container.Path
}

// Kind implements proto.Container.
func (c *container) Kind() models.ContainerKind {
	return c.kind
}

// IsPrivate implements proto.Container.
func (c *container) IsPrivate() bool {
	return c.container.Private
}

// UserID implements proto.Container.
func (c *container) UserID() int64 {
	return c.container.UserID
}

// ForkID implements proto.Container.
func (c *container) ForkID() (int64, bool) {
	return c.container.ForkID.Int64, c.container.ForkID.Valid
}

// RedirectedFrom implements proto.Container.
func (c *container) RedirectedFrom() string {
	return c.redirectedFrom
}

// ContainerByPath resolves a raw wire path into a container. A ".wiki"
// suffix addresses the wiki repository of the parent project. Renamed
// containers are found through their recorded redirects, with the requested
// path preserved in RedirectedFrom.
func (b *Backend) ContainerByPath(ctx context.Context, rawPath string) (proto.Container, error) {
	p := utils.SanitizeContainerPath(rawPath)

	kind := models.ContainerKindProject
	if strings.HasSuffix(p, wikiSuffix) {
		kind = models.ContainerKindWiki
		p = strings.TrimSuffix(p, wikiSuffix)
	}

	if m, ok := b.cache.Get(p); ok {
		return &container{container: m, kind: kind}, nil
	}

	var m models.Container
	var redirectedFrom string
	if err := b.db.TransactionContext(ctx, func(tx *db.Tx) error {
		var err error
		m, err = b.store.GetContainerByPath(ctx, tx, p)
		if err == nil {
			return nil
		}
		if !errors.Is(db.WrapError(err), db.ErrRecordNotFound) {
			return err
		}

		r, err := b.store.GetContainerRedirect(ctx, tx, p)
		if err != nil {
			return err
		}

		m, err = b.store.GetContainerByID(ctx, tx, r.ContainerID)
		if err != nil {
			return err
		}

		redirectedFrom = p
		return nil
	}); err != nil {
		err = db.WrapError(err)
		if errors.Is(err, db.ErrRecordNotFound) {
			return nil, proto.ErrContainerNotFound
		}
		return nil, err
	}

	if redirectedFrom == "" {
		b.cache.Set(p, m)
	}

	return &container{container: m, kind: kind, redirectedFrom: redirectedFrom}, nil
}

// ContainerByID resolves a container by its ID.
func (b *Backend) ContainerByID(ctx context.Context, id int64) (proto.Container, error) {
	var m models.Container
	if err := b.db.TransactionContext(ctx, func(tx *db.Tx) error {
		var err error
		m, err = b.store.GetContainerByID(ctx, tx, id)
		return err
	}); err != nil {
		err = db.WrapError(err)
		if errors.Is(err, db.ErrRecordNotFound) {
			return nil, proto.ErrContainerNotFound
		}
		return nil, err
	}

	return &container{container: m, kind: models.ContainerKindProject}, nil
}

// CreateContainer creates a container owned by owner and initializes its
// bare repository on disk.
func (b *Backend) CreateContainer(ctx context.Context, path string, owner proto.User, private bool) (proto.Container, error) {
	p := utils.SanitizeContainerPath(path)
	if err := utils.ValidateContainerPath(p); err != nil {
		return nil, err
	}

	var m models.Container
	if err := b.db.TransactionContext(ctx, func(tx *db.Tx) error {
		var err error
		m, err = b.store.CreateContainer(ctx, tx, p, models.ContainerKindProject, owner.ID(), private)
		return err
	}); err != nil {
		return nil, db.WrapError(err)
	}

	c := &container{container: m, kind: models.ContainerKindProject}
	if _, err := git.Init(b.RepoPath(c)); err != nil {
		b.logger.Error("failed to initialize repository", "path", p, "err", err)
		return nil, err
	}

	return c, nil
}

// CreateFork creates a fork of source owned by owner.
func (b *Backend) CreateFork(ctx context.Context, source proto.Container, path string, owner proto.User, private bool) (proto.Container, error) {
	c, err := b.CreateContainer(ctx, path, owner, private)
	if err != nil {
		return nil, err
	}

	if err := b.db.TransactionContext(ctx, func(tx *db.Tx) error {
		return b.store.SetContainerFork(ctx, tx, c.ID(), source.ID())
	}); err != nil {
		return nil, db.WrapError(err)
	}

	b.cache.Delete(c.Path())
	return b.ContainerByPath(ctx, path)
}

// RenameContainer moves a container to a new path, leaving a redirect at the
// old one.
func (b *Backend) RenameContainer(ctx context.Context, c proto.Container, newPath string) error {
	p := utils.SanitizeContainerPath(newPath)
	if err := utils.ValidateContainerPath(p); err != nil {
		return err
	}

	if err := b.db.TransactionContext(ctx, func(tx *db.Tx) error {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE containers SET path = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?;`), p, c.ID()); err != nil {
			return err
		}
		return b.store.CreateContainerRedirect(ctx, tx, c.Path(), c.ID())
	}); err != nil {
		return db.WrapError(err)
	}

	b.cache.Delete(c.Path())
	b.cache.Delete(p)
	return nil
}

// RepoPath returns the on-disk path of the container's bare repository for
// the addressed repository kind.
func (b *Backend) RepoPath(c proto.Container) string {
	name := c.Path()
	if c.Kind() == models.ContainerKindWiki {
		name += wikiSuffix
	}
	return filepath.Join(b.cfg.ReposPath(), name+".git")
}

// EnsureRepo makes sure the container's bare repository exists on disk,
// initializing it if needed. Wiki repositories are created on first use.
func (b *Backend) EnsureRepo(c proto.Container) error {
	rp := b.RepoPath(c)
	if git.Exists(rp) {
		return nil
	}
	_, err := git.Init(rp)
	return err
}

// IncrementContainerFetch bumps the container's fetch statistics.
func (b *Backend) IncrementContainerFetch(ctx context.Context, c proto.Container) error {
	return b.db.TransactionContext(ctx, func(tx *db.Tx) error {
		return b.store.IncrementContainerFetch(ctx, tx, c.ID())
	})
}

// AddCollaborator grants a user an access level on a container.
func (b *Backend) AddCollaborator(ctx context.Context, c proto.Container, username string, level access.AccessLevel) error {
	u, err := b.User(ctx, username)
	if err != nil {
		return err
	}

	return db.WrapError(b.db.TransactionContext(ctx, func(tx *db.Tx) error {
		return b.store.AddCollaborator(ctx, tx, c.ID(), u.ID(), level.String())
	}))
}

// RemoveCollaborator revokes a user's access level on a container.
func (b *Backend) RemoveCollaborator(ctx context.Context, c proto.Container, username string) error {
	u, err := b.User(ctx, username)
	if err != nil {
		return err
	}

	return db.WrapError(b.db.TransactionContext(ctx, func(tx *db.Tx) error {
		return b.store.RemoveCollaborator(ctx, tx, c.ID(), u.ID())
	}))
}

// CollaboratorLevel returns the user's collaborator access level on the
// container, if any.
func (b *Backend) CollaboratorLevel(ctx context.Context, containerID, userID int64) (access.AccessLevel, bool, error) {
	var m models.Collaborator
	if err := b.db.TransactionContext(ctx, func(tx *db.Tx) error {
		var err error
		m, err = b.store.GetCollaborator(ctx, tx, containerID, userID)
		return err
	}); err != nil {
		err = db.WrapError(err)
		if errors.Is(err, db.ErrRecordNotFound) {
			return access.NoAccess, false, nil
		}
		return access.NoAccess, false, err
	}

	return access.ParseAccessLevel(m.Level), true, nil
}
