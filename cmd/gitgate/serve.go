package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gitgate/gitgate/cmd"
	"github.com/gitgate/gitgate/pkg/auth"
	"github.com/gitgate/gitgate/pkg/backend"
	"github.com/gitgate/gitgate/pkg/config"
	"github.com/gitgate/gitgate/pkg/db"
	"github.com/gitgate/gitgate/pkg/db/migrate"
	"github.com/gitgate/gitgate/pkg/lfstoken"
	"github.com/gitgate/gitgate/pkg/stats"
	"github.com/gitgate/gitgate/pkg/storage"
	"github.com/gitgate/gitgate/pkg/web"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:                "serve",
	Short:              "Start the gateway",
	Args:               cobra.NoArgs,
	PersistentPreRunE:  cmd.InitBackendContext,
	PersistentPostRunE: cmd.CloseDBContext,
	RunE: func(c *cobra.Command, _ []string) error {
		ctx := c.Context()

		dbx := db.FromContext(ctx)
		if err := migrate.Migrate(ctx, dbx); err != nil {
			return fmt.Errorf("migration error: %w", err)
		}

		s, err := NewServer(ctx)
		if err != nil {
			return fmt.Errorf("start server: %w", err)
		}

		lch := make(chan error, 1)
		done := make(chan os.Signal, 1)
		doneOnce := sync.OnceFunc(func() { close(done) })

		signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

		go func() {
			lch <- s.Start()
			doneOnce()
		}()

		select {
		case err := <-lch:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
		case <-done:
		}

		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return s.Shutdown(ctx)
	},
}

// Server bundles the gateway's listeners.
type Server struct {
	HTTPServer  *web.HTTPServer
	StatsServer *stats.Server
	Config      *config.Config

	logger *log.Logger
	ctx    context.Context
}

// ticketVerifier is the SPNEGO verifier handed to the resolver. Builds
// that ship Kerberos support assign it from an init function.
var ticketVerifier auth.TicketVerifier

// NewServer returns a new *Server. It expects a context with
// *backend.Backend, *db.DB, store.Store, *log.Logger, and *config.Config
// attached.
func NewServer(ctx context.Context) (*Server, error) {
	cfg := config.FromContext(ctx)
	if cfg.Auth.KerberosEnabled && ticketVerifier == nil {
		return nil, fmt.Errorf("kerberos is enabled but this build carries no ticket verifier")
	}

	be := backend.FromContext(ctx)
	logger := log.FromContext(ctx).WithPrefix("server")

	strg, err := openStorage(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open lfs storage: %w", err)
	}
	ctx = storage.WithContext(ctx, strg)

	tokens, err := lfstoken.NewManager(cfg)
	if err != nil {
		return nil, fmt.Errorf("create transfer credential manager: %w", err)
	}
	ctx = lfstoken.WithContext(ctx, tokens)

	resolver := auth.NewResolver(ctx, be, tokens, ticketVerifier)
	ctx = auth.WithContext(ctx, resolver)

	srv := &Server{
		Config: cfg,
		logger: logger,
		ctx:    ctx,
	}

	srv.HTTPServer, err = web.NewHTTPServer(ctx)
	if err != nil {
		return nil, fmt.Errorf("create http server: %w", err)
	}

	if cfg.HTTP.TLSKeyPath != "" && cfg.HTTP.TLSCertPath != "" {
		reloader, err := web.NewCertReloader(cfg.HTTP.TLSCertPath, cfg.HTTP.TLSKeyPath, logger)
		if err != nil {
			return nil, fmt.Errorf("load tls certificate: %w", err)
		}
		srv.HTTPServer.SetTLSConfig(&tls.Config{
			GetCertificate: reloader.GetCertificateFunc(),
			MinVersion:     tls.VersionTLS12,
		})
	}

	srv.StatsServer, err = stats.NewServer(ctx)
	if err != nil {
		return nil, fmt.Errorf("create stats server: %w", err)
	}

	return srv, nil
}

func openStorage(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	if cfg.LFS.StorageURL != "" {
		return storage.OpenBlobStorage(ctx, cfg.LFS.StorageURL)
	}
	return storage.NewLocalStorage(cfg.LFSPath()), nil
}

// Start starts the gateway's listeners.
func (s *Server) Start() error {
	errg, _ := errgroup.WithContext(s.ctx)

	errg.Go(func() error {
		s.logger.Print("Starting HTTP server", "addr", s.Config.HTTP.ListenAddr)
		if err := s.HTTPServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if s.Config.Stats.Enabled {
		errg.Go(func() error {
			s.logger.Print("Starting Stats server", "addr", s.Config.Stats.ListenAddr)
			if err := s.StatsServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	return errg.Wait()
}

// Shutdown lets the server gracefully shutdown.
func (s *Server) Shutdown(ctx context.Context) error {
	errg, ctx := errgroup.WithContext(ctx)
	errg.Go(func() error {
		return s.HTTPServer.Shutdown(ctx)
	})
	errg.Go(func() error {
		return s.StatsServer.Shutdown(ctx)
	})
	return errg.Wait()
}

// Close closes the server listeners.
func (s *Server) Close() error {
	var errg errgroup.Group
	errg.Go(s.HTTPServer.Close)
	errg.Go(s.StatsServer.Close)
	return errg.Wait()
}
