package web

import (
	"context"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gitgate/gitgate/pkg/auth"
	"github.com/gitgate/gitgate/pkg/backend"
	"github.com/gitgate/gitgate/pkg/config"
	"github.com/gitgate/gitgate/pkg/db"
	"github.com/gitgate/gitgate/pkg/lfstoken"
	"github.com/gitgate/gitgate/pkg/storage"
	"github.com/gitgate/gitgate/pkg/store"
)

// NewContextHandler returns a middleware that injects the server dependencies
// into the request context.
func NewContextHandler(ctx context.Context) func(http.Handler) http.Handler {
	cfg := config.FromContext(ctx)
	be := backend.FromContext(ctx)
	logger := log.FromContext(ctx).WithPrefix("http")
	dbx := db.FromContext(ctx)
	datastore := store.FromContext(ctx)
	strg := storage.FromContext(ctx)
	tokens := lfstoken.FromContext(ctx)
	resolver := auth.FromContext(ctx)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ctx = config.WithContext(ctx, cfg)
			ctx = backend.WithContext(ctx, be)
			ctx = log.WithContext(ctx, logger)
			if dbx != nil {
				ctx = db.WithContext(ctx, dbx)
			}
			if datastore != nil {
				ctx = store.WithContext(ctx, datastore)
			}
			if strg != nil {
				ctx = storage.WithContext(ctx, strg)
			}
			if tokens != nil {
				ctx = lfstoken.WithContext(ctx, tokens)
			}
			if resolver != nil {
				ctx = auth.WithContext(ctx, resolver)
			}
			r = r.WithContext(ctx)
			next.ServeHTTP(w, r)
		})
	}
}
