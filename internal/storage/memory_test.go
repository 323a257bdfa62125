package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Get(ctx, NotesKey)
	assert.ErrorIs(t, err, ErrNotFound)

	value := []byte(`[{"id":"1"}]`)
	require.NoError(t, store.Put(ctx, NotesKey, value))
	value[0] = 'x'

	got, err := store.Get(ctx, NotesKey)
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"1"}]`, string(got))

	got[0] = 'y'
	again, err := store.Get(ctx, NotesKey)
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"1"}]`, string(again))

	require.NoError(t, store.Delete(ctx, NotesKey))
	_, err = store.Get(ctx, NotesKey)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, store.Delete(ctx, NotesKey))
}
