package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/meikuraledutech/campusnav"
	"github.com/meikuraledutech/campusnav/campusfile"
	"github.com/meikuraledutech/campusnav/config"
	"github.com/meikuraledutech/campusnav/graph"
	"github.com/meikuraledutech/campusnav/memory"
	"github.com/meikuraledutech/campusnav/postgres"
	"github.com/meikuraledutech/campusnav/routing"
	"github.com/meikuraledutech/campusnav/sqlite"
)

// loadConfig layers command-line flags over the file and environment.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Read(configFile)
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("store") {
		cfg.Store.Driver = storeDriver
	}
	if flags.Changed("database-url") {
		cfg.Store.DatabaseURL = databaseURL
	}
	if flags.Changed("sqlite-path") {
		cfg.Store.SQLitePath = sqlitePath
	}
	if flags.Changed("campus") {
		cfg.CampusFile = campusFile
	}
	if flags.Changed("cache-graph") {
		cfg.Routing.CacheGraph = cacheGraph
	}
	if f := flags.Lookup("addr"); f != nil && f.Changed {
		cfg.ListenAddr = listenAddr
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// openStore connects the configured store. The returned func releases it.
func openStore(ctx context.Context, cfg config.Config) (campusnav.Store, func(), error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		pool, err := pgxpool.New(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("connect: %w", err)
		}
		return postgres.New(pool), pool.Close, nil
	case config.DriverSQLite:
		s, err := sqlite.Open(cfg.Store.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	case config.DriverMemory:
		return memory.New(), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}

// seedStore creates the schema and loads the campus file, when one is set.
func seedStore(ctx context.Context, store campusnav.Store, path string, log *slog.Logger) error {
	if path == "" {
		return nil
	}
	c, err := campusfile.Load(path)
	if err != nil {
		return err
	}
	if err := store.CreateSchema(ctx); err != nil {
		return err
	}
	if err := campusfile.Apply(ctx, store, c); err != nil {
		return err
	}
	log.Info("campus loaded", "file", path,
		"buildings", len(c.Buildings), "waypoints", len(c.Waypoints), "paths", len(c.Paths))
	return nil
}

// setup loads config, opens and seeds the store, and builds the service.
func setup(cmd *cobra.Command) (config.Config, campusnav.Store, *routing.Service, func(), error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return cfg, nil, nil, nil, err
	}
	log := cfg.Logger(os.Stderr)
	slog.SetDefault(log)

	mode, err := graph.ParseMode(cfg.Routing.BuildMode)
	if err != nil {
		return cfg, nil, nil, nil, err
	}

	ctx := cmd.Context()
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return cfg, nil, nil, nil, err
	}
	if err := seedStore(ctx, store, cfg.CampusFile, log); err != nil {
		closeStore()
		return cfg, nil, nil, nil, err
	}

	svc := routing.New(store, routing.Options{
		Mode:         mode,
		WalkingSpeed: cfg.Routing.WalkingSpeed,
		Cache:        cfg.Routing.CacheGraph,
		Timeout:      cfg.Routing.RequestTimeout,
		Logger:       log,
	})
	return cfg, store, svc, closeStore, nil
}
