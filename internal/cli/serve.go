package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/flowboardhq/flowboard/internal/api"
	"github.com/flowboardhq/flowboard/pkg/cache"
	"github.com/flowboardhq/flowboard/pkg/topology"
)

type serveOpts struct {
	addr       string
	configPath string
	mongoURI   string
	dataDir    string
	redisAddr  string
	cacheDir   string
}

// newServeCmd creates the "serve" command, which runs the diagram API
// server until interrupted.
func newServeCmd() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the diagram HTTP API server",
		Long: `Serve the diagram API over HTTP.

Diagrams are persisted to MongoDB when --mongo-uri is given, to local
JSON files when --data-dir is given, otherwise they are held in memory
and lost on shutdown. Rendered artifacts are cached in Redis, on disk,
or in memory, in that order of preference.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&opts.configPath, "config", "", "path to a TOML config file")
	cmd.Flags().StringVar(&opts.mongoURI, "mongo-uri", "", "MongoDB connection URI for diagram persistence")
	cmd.Flags().StringVar(&opts.dataDir, "data-dir", "", "directory for file-backed diagram persistence")
	cmd.Flags().StringVar(&opts.redisAddr, "redis-addr", "", "Redis address for the artifact cache")
	cmd.Flags().StringVar(&opts.cacheDir, "cache-dir", "", "directory for the on-disk artifact cache")

	return cmd
}

func runServe(ctx context.Context, opts serveOpts) error {
	logger := loggerFromContext(ctx)

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}

	diagrams, err := openDiagramStore(ctx, opts)
	if err != nil {
		return err
	}
	defer func() {
		if err := diagrams.Close(context.Background()); err != nil {
			logger.Warn("Closing diagram store", "error", err)
		}
	}()

	c, err := openCache(ctx, opts)
	if err != nil {
		return err
	}
	defer func() {
		if err := c.Close(); err != nil {
			logger.Warn("Closing cache", "error", err)
		}
	}()

	srv := &http.Server{
		Addr:              opts.addr,
		Handler:           api.NewServer(cfg, diagrams, c, logger).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Serving diagram API", "addr", opts.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return ctx.Err()
	}
}

// openDiagramStore picks the persistence backend: MongoDB, then local
// JSON files, then memory.
func openDiagramStore(ctx context.Context, opts serveOpts) (topology.DiagramStore, error) {
	switch {
	case opts.mongoURI != "":
		return topology.NewMongoStore(ctx, topology.MongoConfig{URI: opts.mongoURI})
	case opts.dataDir != "":
		return topology.NewFileStore(opts.dataDir)
	default:
		loggerFromContext(ctx).Warn("No --mongo-uri or --data-dir given, diagrams are held in memory only")
		return topology.NewMemDiagramStore(), nil
	}
}

// openCache picks the artifact cache backend: Redis, then disk, then
// memory.
func openCache(ctx context.Context, opts serveOpts) (cache.Cache, error) {
	switch {
	case opts.redisAddr != "":
		return cache.NewRedisCache(ctx, cache.RedisConfig{Addr: opts.redisAddr})
	case opts.cacheDir != "":
		return cache.NewFileCache(opts.cacheDir)
	default:
		return cache.NewMemoryCache(), nil
	}
}
