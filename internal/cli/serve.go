package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/gravitylab/gravita/internal/api"
	"github.com/gravitylab/gravita/pkg/cache"
	"github.com/gravitylab/gravita/pkg/pipeline"
	"github.com/gravitylab/gravita/pkg/store"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr      string
	redisAddr string
	mongoURI  string
	noCache   bool
}

// serveCommand creates the serve command for running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	opts := serveOpts{addr: ":8080"}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the Gravita HTTP API",
		Long: `Run the Gravita HTTP API.

Without flags the server uses the local file cache and an in-memory
record store. Point --redis at a Redis instance to share the artifact
cache across instances, and --mongo at a MongoDB deployment to persist
layout records.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", opts.addr, "listen address")
	cmd.Flags().StringVar(&opts.redisAddr, "redis", "", "redis address for a shared cache (host:port)")
	cmd.Flags().StringVar(&opts.mongoURI, "mongo", "", "mongodb connection string for persistent records")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")

	return cmd
}

// runServe wires the cache, store, and runner, then serves until the
// context is canceled.
func (c *CLI) runServe(ctx context.Context, opts serveOpts) error {
	ch, err := c.serveCache(ctx, opts)
	if err != nil {
		return err
	}
	defer ch.Close()

	st, err := c.serveStore(ctx, opts)
	if err != nil {
		return err
	}
	defer st.Close(context.Background())

	runner := pipeline.NewRunner(ch, nil, c.Logger)
	server := api.New(api.Options{
		Addr:   opts.addr,
		Runner: runner,
		Store:  st,
		Logger: c.Logger,
	})

	return server.ListenAndServe(ctx)
}

func (c *CLI) serveCache(ctx context.Context, opts serveOpts) (cache.Cache, error) {
	if opts.noCache {
		return cache.NewNullCache(), nil
	}
	if opts.redisAddr != "" {
		c.Logger.Info("using redis cache", "addr", opts.redisAddr)
		return cache.NewRedisCache(ctx, cache.RedisOptions{Addr: opts.redisAddr})
	}
	return newCache(false), nil
}

func (c *CLI) serveStore(ctx context.Context, opts serveOpts) (store.Store, error) {
	if opts.mongoURI != "" {
		c.Logger.Info("using mongo store")
		return store.NewMongoStore(ctx, store.MongoOptions{URI: opts.mongoURI})
	}
	return store.NewMemoryStore(), nil
}
