// Package backend implements user, container, and authorization operations
// on top of the store.
package backend

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/gitgate/gitgate/pkg/config"
	"github.com/gitgate/gitgate/pkg/db"
	"github.com/gitgate/gitgate/pkg/store"
)

// Backend resolves identities and containers and answers capability checks
// for the protocol handlers.
type Backend struct {
	ctx    context.Context
	cfg    *config.Config
	db     *db.DB
	store  store.Store
	logger *log.Logger
	cache  *cache
}

// New returns a new Backend.
func New(ctx context.Context, cfg *config.Config, db *db.DB, st store.Store) *Backend {
	logger := log.FromContext(ctx).WithPrefix("backend")
	b := &Backend{
		ctx:    ctx,
		cfg:    cfg,
		db:     db,
		store:  st,
		logger: logger,
	}

	b.cache = newCache(b, 1000)

	return b
}
