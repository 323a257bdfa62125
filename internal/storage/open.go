package storage

import (
	"context"
	"fmt"

	"github.com/at-ishikawa/studydesk/internal/config"
	"github.com/at-ishikawa/studydesk/internal/database"
)

// Open builds the Store selected by cfg.Storage.Driver. The returned close
// function releases any underlying connection and is never nil.
func Open(ctx context.Context, cfg config.Config) (Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Storage.Driver {
	case "memory":
		return NewMemoryStore(), noop, nil
	case "file", "":
		store, err := NewFileStore(cfg.Storage.Directory)
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil
	case "mysql":
		db, err := database.Open(cfg.Database)
		if err != nil {
			return nil, noop, fmt.Errorf("database.Open() > %w", err)
		}
		if err := database.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, noop, fmt.Errorf("database.Migrate() > %w", err)
		}
		return NewDBStore(db), db.Close, nil
	default:
		return nil, noop, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}
}
