package server

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/moonzhou/jwtgate"
	"github.com/moonzhou/jwtgate/directory"
	"github.com/moonzhou/jwtgate/internal/config"
)

// sqlDrivers maps a dialect onto its database/sql driver name.
var sqlDrivers = map[directory.Dialect]string{
	directory.SQLite:   "sqlite",
	directory.Postgres: "pgx",
}

type seeder interface {
	directory.Directory
	Save(ctx context.Context, user directory.User) error
}

// OpenDirectory opens the configured user directory, seeds it and wraps it
// in the Redis cache when one is configured. The returned close function
// releases every connection opened.
func OpenDirectory(ctx context.Context, cfg *config.Config, log *logrus.Logger) (directory.Directory, func() error, error) {
	var (
		store   seeder
		closers []func() error
	)
	closeAll := func() error {
		var first error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil && first == nil {
				first = err
			}
		}
		return first
	}

	switch cfg.Database.Driver {
	case config.DriverMemory:
		store = directory.NewMemory()
	default:
		dialect := directory.Dialect(cfg.Database.Driver)
		db, err := sql.Open(sqlDrivers[dialect], cfg.Database.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open %s database: %w", dialect, err)
		}
		closers = append(closers, db.Close)

		sqlStore, err := directory.NewSQL(db, dialect)
		if err != nil {
			_ = closeAll()
			return nil, nil, err
		}
		if err := sqlStore.Migrate(ctx); err != nil {
			_ = closeAll()
			return nil, nil, err
		}
		store = sqlStore
	}

	for _, entry := range cfg.Database.Seed {
		id, secret, err := config.ParseSeed(entry)
		if err != nil {
			_ = closeAll()
			return nil, nil, err
		}
		if err := store.Save(ctx, directory.User{ID: id, Secret: secret}); err != nil {
			_ = closeAll()
			return nil, nil, err
		}
	}
	log.WithFields(logrus.Fields{
		"driver": cfg.Database.Driver,
		"seeded": len(cfg.Database.Seed),
	}).Info("user directory ready")

	if cfg.Redis.URL == "" {
		return store, closeAll, nil
	}

	client, err := directory.NewRedisClient(ctx, cfg.Redis.URL)
	if err != nil {
		_ = closeAll()
		return nil, nil, err
	}
	closers = append(closers, client.Close)

	cached, err := directory.NewCached(store, client, cfg.Redis.TTL,
		directory.WithCacheLogger(jwtgate.NewLogrusLogger(log)))
	if err != nil {
		_ = closeAll()
		return nil, nil, err
	}
	log.WithField("ttl", cfg.Redis.TTL).Info("user cache enabled")

	return cached, closeAll, nil
}
