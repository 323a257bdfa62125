// Package storage persists whole collections as JSON blobs under fixed keys,
// the way a browser keeps them in local storage.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
)

//go:generate mockgen -source=storage.go -destination=../mocks/storage/mock_storage.go -package=mock_storage

// Keys under which the application keeps its collections.
const (
	NotesKey    = "notes"
	EventsKey   = "calendar-events"
	SettingsKey = "settings"
)

// ErrNotFound is returned by Get when nothing is stored under a key.
var ErrNotFound = errors.New("storage: key not found")

// Store is a durable key-value store.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// LoadJSON decodes the value stored under key into a T.
// A missing key or any read/decode failure yields fallback; failures other
// than a missing key are logged.
func LoadJSON[T any](ctx context.Context, store Store, key string, fallback T, logger *slog.Logger) T {
	raw, err := store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			logger.Warn("failed to load a key", slog.String("key", key), slog.Any("error", err))
		}
		return fallback
	}
	if len(raw) == 0 {
		return fallback
	}

	var value T
	if err := json.Unmarshal(raw, &value); err != nil {
		logger.Warn("failed to decode a key", slog.String("key", key), slog.Any("error", err))
		return fallback
	}
	return value
}

// SaveJSON encodes value and stores it under key. Failures are logged and
// otherwise ignored: the caller's in-memory state stays authoritative.
func SaveJSON(ctx context.Context, store Store, key string, value any, logger *slog.Logger) {
	raw, err := json.Marshal(value)
	if err != nil {
		logger.Warn("failed to encode a key", slog.String("key", key), slog.Any("error", err))
		return
	}
	if err := store.Put(ctx, key, raw); err != nil {
		logger.Warn("failed to save a key", slog.String("key", key), slog.Any("error", err))
	}
}
