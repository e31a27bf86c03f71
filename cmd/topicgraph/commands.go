package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/saulfrancisco-ruizacevedo/topicgraph"
	"github.com/saulfrancisco-ruizacevedo/topicgraph/config"
	"github.com/saulfrancisco-ruizacevedo/topicgraph/metrics"
	"github.com/saulfrancisco-ruizacevedo/topicgraph/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// app is what every subcommand needs once configuration is loaded.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	store    *topicgraph.Store
	relation topicgraph.Relation
	metrics  *metrics.Metrics
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "topicgraph",
		Short:        "Browse who created and edited which topic",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")

	root.AddCommand(
		newServeCmd(&configPath),
		newSeedCmd(&configPath),
	)
	return root
}

func newServeCmd(configPath *string) *cobra.Command {
	var skipSeed bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Seed the graph and serve HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := setup(ctx, *configPath, os.Stdout)
			if err != nil {
				return err
			}
			defer a.close()

			if !skipSeed {
				if err := a.seed(ctx); err != nil {
					return err
				}
			}
			return a.serve(ctx)
		},
	}
	cmd.Flags().BoolVar(&skipSeed, "skip-seed", false, "do not merge the built-in facts at startup")
	return cmd
}

func newSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Merge the built-in facts and print graph counts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := setup(ctx, *configPath, os.Stderr)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.seed(ctx); err != nil {
				return err
			}

			sess := a.store.OpenSession(ctx)
			defer sess.Close(ctx)
			stats, err := topicgraph.NewPersistenceManager(sess).Stats(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "persons=%d topics=%d relationships=%d\n",
				stats.Persons, stats.Topics, stats.Relationships)
			return nil
		},
	}
}

// setup loads configuration, builds the logger and connects to the store.
func setup(ctx context.Context, configPath string, logOut io.Writer) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	level, err := cfg.Log.SlogLevel()
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	rel, err := topicgraph.NewRelation(cfg.Orientation)
	if err != nil {
		return nil, err
	}

	store, err := topicgraph.NewStore(cfg.Neo4j)
	if err != nil {
		return nil, err
	}
	if err := store.Verify(ctx); err != nil {
		_ = store.Close(context.Background())
		return nil, fmt.Errorf("could not connect to %s: %w", cfg.Neo4j.URI, err)
	}
	logger.Info("connected to neo4j", "uri", cfg.Neo4j.URI, "database", cfg.Neo4j.Database)

	return &app{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		relation: rel,
		metrics:  metrics.New(),
	}, nil
}

func (a *app) close() {
	if err := a.store.Close(context.Background()); err != nil {
		a.logger.Warn("failed to close neo4j driver", "error", err)
	}
}

// seed merges the built-in facts inside one session.
func (a *app) seed(ctx context.Context) error {
	sess := a.store.OpenSession(ctx)
	defer sess.Close(ctx)

	seeder := topicgraph.NewSeeder(a.relation, a.logger)
	seeder.OnFact(func(f topicgraph.Fact) {
		a.metrics.SeedFactsTotal.WithLabelValues(f.Kind.String()).Inc()
	})
	return seeder.Seed(ctx, sess, topicgraph.DefaultFacts())
}

// serve runs the HTTP server until ctx is cancelled, then shuts it down.
func (a *app) serve(ctx context.Context) error {
	gin.SetMode(gin.ReleaseMode)

	srv := server.New(server.Options{
		Store:   a.store,
		Health:  a.store,
		Logger:  a.logger,
		Metrics: a.metrics,
	})
	httpServer := &http.Server{
		Addr:              a.cfg.HTTP.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("listening", "addr", a.cfg.HTTP.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down")
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
