package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/familytree/pkg/api"
	"github.com/matzehuels/familytree/pkg/config"
	"github.com/matzehuels/familytree/pkg/observability"
)

func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the REST API server",
		Long: `Run the REST API server.

The server opens the configured database, image bucket, layout cache and
snapshot archive once, serves until interrupted, and then drains open
requests for up to server.shutdown_timeout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			return c.runServe(cmd.Context(), cfg, nil)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

// runServe serves until ctx is done. When ready is non-nil it receives the
// bound address once the listener is open.
func (c *CLI) runServe(ctx context.Context, cfg config.Config, ready chan<- string) error {
	logger := loggerFromContext(ctx)

	st, err := c.openStore(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	bucket, err := openBucket(ctx, cfg.Blob)
	if err != nil {
		return err
	}
	defer bucket.Close()

	arch, err := openArchive(ctx, cfg.Archive)
	if err != nil {
		return err
	}
	defer arch.Close(context.Background())

	runner, err := c.newRunner(ctx, cfg.Cache, false)
	if err != nil {
		return err
	}
	defer runner.Close()

	observability.NewLogHooks(logger.With("component", "hooks")).Register()
	defer observability.Reset()

	srv := api.New(api.Options{
		Store:          st,
		Bucket:         bucket,
		Archive:        arch,
		Runner:         runner,
		Layout:         cfg.LayoutOptions(),
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		Logger:         logger,
	})
	httpSrv := &http.Server{
		Handler:           srv.Handler(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	ln, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		return err
	}
	logger.Info("listening", "addr", ln.Addr().String(), "db", cfg.Database.Driver,
		"blob", cfg.Blob.Backend, "cache", cfg.Cache.Backend, "archive", cfg.Archive.Backend)
	if ready != nil {
		ready <- ln.Addr().String()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down", "timeout", cfg.Server.ShutdownTimeout)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
