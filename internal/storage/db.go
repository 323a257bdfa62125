package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/at-ishikawa/studydesk/internal/database"
)

// DBStore keeps keys in the kv_entries table.
type DBStore struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewDBStore(db *sqlx.DB) *DBStore {
	return &DBStore{db: db, now: time.Now}
}

func (s *DBStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.GetContext(ctx, &value, "SELECT `value` FROM kv_entries WHERE `key` = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select kv entry(%s): %w", key, err)
	}
	return value, nil
}

func (s *DBStore) Put(ctx context.Context, key string, value []byte) error {
	return database.RunInTx(ctx, s.db, func(ctx context.Context, tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO kv_entries (`key`, `value`, updated_at) VALUES (?, ?, ?) "+
				"ON DUPLICATE KEY UPDATE `value` = VALUES(`value`), updated_at = VALUES(updated_at)",
			key, value, s.now().UTC(),
		); err != nil {
			return fmt.Errorf("upsert kv entry(%s): %w", key, err)
		}
		return nil
	})
}

func (s *DBStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM kv_entries WHERE `key` = ?", key); err != nil {
		return fmt.Errorf("delete kv entry(%s): %w", key, err)
	}
	return nil
}
