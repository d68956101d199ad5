package session

import (
	"context"
	"fmt"

	"github.com/nexusforge/console/pkg/common/config"
	"github.com/nexusforge/console/pkg/common/database"
)

// OpenStore builds the store named by cfg.SessionBackend. The returned
// closer releases any connection the store holds.
func OpenStore(ctx context.Context, cfg *config.Config) (Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.SessionBackend {
	case "", config.SessionBackendFile:
		return NewFileStore(cfg.SessionFile), noop, nil

	case config.SessionBackendRedis:
		client, err := database.OpenRedis(ctx, cfg)
		if err != nil {
			return nil, noop, err
		}
		return NewRedisStore(client, cfg.SessionProfile), client.Close, nil

	case config.SessionBackendPostgres:
		db, err := database.OpenPostgres(cfg)
		if err != nil {
			return nil, noop, err
		}
		store := NewDBStore(db, cfg.SessionProfile)
		if err := store.AutoMigrate(); err != nil {
			_ = database.ClosePostgres(db)
			return nil, noop, fmt.Errorf("migrate session table: %w", err)
		}
		return store, func() error { return database.ClosePostgres(db) }, nil

	default:
		return nil, noop, fmt.Errorf("unknown session backend %q", cfg.SessionBackend)
	}
}
