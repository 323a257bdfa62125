package bootstrap

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApp_Run(t *testing.T) {
	t.Run("run returns nil", func(t *testing.T) {
		app := New(nil)
		err := app.Run(context.Background(), func(ctx context.Context) error {
			return nil
		})
		assert.NoError(t, err)
	})

	t.Run("run returns error", func(t *testing.T) {
		app := New(nil)
		want := errors.New("listen failed")
		err := app.Run(context.Background(), func(ctx context.Context) error {
			return want
		})
		assert.ErrorIs(t, err, want)
	})

	t.Run("shutdown hooks run in LIFO order on cancel", func(t *testing.T) {
		app := New(nil)
		var mu sync.Mutex
		var order []string
		for _, name := range []string{"store", "database", "http"} {
			app.AddShutdownHook(func(ctx context.Context) error {
				mu.Lock()
				defer mu.Unlock()
				order = append(order, name)
				return nil
			})
		}

		ctx, cancel := context.WithCancel(context.Background())
		err := app.Run(ctx, func(ctx context.Context) error {
			cancel()
			<-ctx.Done()
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"http", "database", "store"}, order)
	})

	t.Run("hook errors are joined", func(t *testing.T) {
		app := New(nil)
		first := errors.New("close database")
		second := errors.New("close server")
		app.AddShutdownHook(func(ctx context.Context) error { return first })
		app.AddShutdownHook(func(ctx context.Context) error { return second })

		ctx, cancel := context.WithCancel(context.Background())
		err := app.Run(ctx, func(ctx context.Context) error {
			cancel()
			<-ctx.Done()
			return nil
		})
		assert.ErrorIs(t, err, first)
		assert.ErrorIs(t, err, second)
	})

	t.Run("hooks get a live context", func(t *testing.T) {
		app := New(nil)
		var hookErr error
		app.AddShutdownHook(func(ctx context.Context) error {
			hookErr = ctx.Err()
			return nil
		})

		ctx, cancel := context.WithCancel(context.Background())
		err := app.Run(ctx, func(ctx context.Context) error {
			cancel()
			<-ctx.Done()
			return nil
		})
		require.NoError(t, err)
		assert.NoError(t, hookErr)
	})
}
