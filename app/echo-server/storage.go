package main

import (
	"fmt"

	"myLearnCore/internal/repository/badger"
	"myLearnCore/internal/repository/memory"
	"myLearnCore/internal/repository/postgres"
	redisRepo "myLearnCore/internal/repository/redis"
	"myLearnCore/pkg/config"
	"myLearnCore/pkg/database"
	redisdb "myLearnCore/pkg/database/redis"
	"myLearnCore/pkg/kvstore"
)

// openStore builds the configured backend and returns it with its closer.
func openStore(cfg *config.Config) (kvstore.Store, func() error, error) {
	noop := func() error { return nil }

	var (
		store  kvstore.Store
		closer func() error
	)

	switch cfg.Storage.Backend {
	case config.BackendMemory:
		store, closer = memory.NewKVRepository(), noop

	case config.BackendBadger:
		db, err := database.OpenBadger(cfg)
		if err != nil {
			return nil, nil, err
		}
		store, closer = badger.NewKVRepository(db), db.Close

	case config.BackendRedis:
		client, err := redisdb.NewRedisClient(cfg)
		if err != nil {
			return nil, nil, err
		}
		store = redisRepo.NewKVRepository(client, redisRepo.DefaultBreakerConfig())
		closer = func() error { return redisdb.CloseRedisClient(client) }

	case config.BackendPostgres:
		db, err := database.InitPostgres(cfg)
		if err != nil {
			return nil, nil, err
		}
		repo, err := postgres.NewKVRepository(db)
		if err != nil {
			_ = database.ClosePostgres(db)
			return nil, nil, err
		}
		store = repo
		closer = func() error { return database.ClosePostgres(db) }

	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	return kvstore.Namespaced(store, cfg.Storage.Namespace), closer, nil
}
