// Package datasync copies the stored collections from one storage backend to
// another, e.g. from the local files into the database.
package datasync

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/at-ishikawa/studydesk/internal/storage"
)

// Keys are the collections copied by default.
var Keys = []string{storage.NotesKey, storage.EventsKey, storage.SettingsKey}

// ImportResult tracks counts for each key.
type ImportResult struct {
	New     int
	Skipped int
	Updated int
	Missing int
}

// ImportOptions controls import behavior.
type ImportOptions struct {
	DryRun         bool
	UpdateExisting bool
}

// Importer reads collections from source and writes them to target.
type Importer struct {
	source storage.Store
	target storage.Store
	writer io.Writer
}

func NewImporter(source, target storage.Store, writer io.Writer) *Importer {
	return &Importer{
		source: source,
		target: target,
		writer: writer,
	}
}

// Import copies every key in keys. A key the target already holds with the
// same value is skipped; a different value is only replaced with
// UpdateExisting.
func (imp *Importer) Import(ctx context.Context, keys []string, opts ImportOptions) (*ImportResult, error) {
	var result ImportResult
	for _, key := range keys {
		if err := imp.importKey(ctx, key, opts, &result); err != nil {
			return nil, fmt.Errorf("importKey(%s) > %w", key, err)
		}
	}
	return &result, nil
}

func (imp *Importer) importKey(ctx context.Context, key string, opts ImportOptions, result *ImportResult) error {
	value, err := imp.source.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		fmt.Fprintf(imp.writer, "  [MISSING]  %s\n", key)
		result.Missing++
		return nil
	}
	if err != nil {
		return fmt.Errorf("source.Get() > %w", err)
	}

	existing, err := imp.target.Get(ctx, key)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		if !opts.DryRun {
			if err := imp.target.Put(ctx, key, value); err != nil {
				return fmt.Errorf("target.Put() > %w", err)
			}
		}
		fmt.Fprintf(imp.writer, "  [NEW]  %s\n", key)
		result.New++
	case err != nil:
		return fmt.Errorf("target.Get() > %w", err)
	case bytes.Equal(existing, value) || !opts.UpdateExisting:
		fmt.Fprintf(imp.writer, "  [SKIP]  %s\n", key)
		result.Skipped++
	default:
		if !opts.DryRun {
			if err := imp.target.Put(ctx, key, value); err != nil {
				return fmt.Errorf("target.Put() > %w", err)
			}
		}
		fmt.Fprintf(imp.writer, "  [UPDATE]  %s\n", key)
		result.Updated++
	}
	return nil
}
