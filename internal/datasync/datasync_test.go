package datasync

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	mock_storage "github.com/at-ishikawa/studydesk/internal/mocks/storage"
	"github.com/at-ishikawa/studydesk/internal/storage"
)

func newStore(t *testing.T, values map[string]string) *storage.MemoryStore {
	t.Helper()
	store := storage.NewMemoryStore()
	for key, value := range values {
		require.NoError(t, store.Put(context.Background(), key, []byte(value)))
	}
	return store
}

func TestImporter_Import(t *testing.T) {
	tests := []struct {
		name       string
		source     map[string]string
		target     map[string]string
		opts       ImportOptions
		want       *ImportResult
		wantTarget map[string]string
		wantOutput string
	}{
		{
			name:       "new keys are copied",
			source:     map[string]string{storage.NotesKey: `[{"id":"a"}]`, storage.SettingsKey: `{"fontScale":"lg"}`},
			want:       &ImportResult{New: 2, Missing: 1},
			wantTarget: map[string]string{storage.NotesKey: `[{"id":"a"}]`, storage.SettingsKey: `{"fontScale":"lg"}`},
			wantOutput: "  [NEW]  notes\n  [MISSING]  calendar-events\n  [NEW]  settings\n",
		},
		{
			name:       "equal values are skipped",
			source:     map[string]string{storage.NotesKey: `[]`, storage.EventsKey: `[]`, storage.SettingsKey: `{}`},
			target:     map[string]string{storage.NotesKey: `[]`, storage.EventsKey: `[]`, storage.SettingsKey: `{}`},
			opts:       ImportOptions{UpdateExisting: true},
			want:       &ImportResult{Skipped: 3},
			wantTarget: map[string]string{storage.NotesKey: `[]`, storage.EventsKey: `[]`, storage.SettingsKey: `{}`},
			wantOutput: "  [SKIP]  notes\n  [SKIP]  calendar-events\n  [SKIP]  settings\n",
		},
		{
			name:       "different values are kept without update",
			source:     map[string]string{storage.EventsKey: `[{"id":"new"}]`},
			target:     map[string]string{storage.EventsKey: `[{"id":"old"}]`},
			want:       &ImportResult{Skipped: 1, Missing: 2},
			wantTarget: map[string]string{storage.EventsKey: `[{"id":"old"}]`},
			wantOutput: "  [MISSING]  notes\n  [SKIP]  calendar-events\n  [MISSING]  settings\n",
		},
		{
			name:       "different values are replaced with update",
			source:     map[string]string{storage.EventsKey: `[{"id":"new"}]`},
			target:     map[string]string{storage.EventsKey: `[{"id":"old"}]`},
			opts:       ImportOptions{UpdateExisting: true},
			want:       &ImportResult{Updated: 1, Missing: 2},
			wantTarget: map[string]string{storage.EventsKey: `[{"id":"new"}]`},
			wantOutput: "  [MISSING]  notes\n  [UPDATE]  calendar-events\n  [MISSING]  settings\n",
		},
		{
			name:       "dry run writes nothing",
			source:     map[string]string{storage.NotesKey: `[]`, storage.EventsKey: `[{"id":"new"}]`},
			target:     map[string]string{storage.EventsKey: `[{"id":"old"}]`},
			opts:       ImportOptions{DryRun: true, UpdateExisting: true},
			want:       &ImportResult{New: 1, Updated: 1, Missing: 1},
			wantTarget: map[string]string{storage.EventsKey: `[{"id":"old"}]`},
			wantOutput: "  [NEW]  notes\n  [UPDATE]  calendar-events\n  [MISSING]  settings\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			source := newStore(t, tt.source)
			target := newStore(t, tt.target)
			var out bytes.Buffer

			got, err := NewImporter(source, target, &out).Import(ctx, Keys, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOutput, out.String())

			for _, key := range Keys {
				value, err := target.Get(ctx, key)
				want, ok := tt.wantTarget[key]
				if !ok {
					assert.ErrorIs(t, err, storage.ErrNotFound, key)
					continue
				}
				require.NoError(t, err, key)
				assert.Equal(t, want, string(value), key)
			}
		})
	}
}

func TestImporter_Import_Errors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(source, target *mock_storage.MockStore)
	}{
		{
			name: "source read fails",
			setup: func(source, target *mock_storage.MockStore) {
				source.EXPECT().Get(gomock.Any(), storage.NotesKey).Return(nil, assert.AnError)
			},
		},
		{
			name: "target read fails",
			setup: func(source, target *mock_storage.MockStore) {
				source.EXPECT().Get(gomock.Any(), storage.NotesKey).Return([]byte(`[]`), nil)
				target.EXPECT().Get(gomock.Any(), storage.NotesKey).Return(nil, assert.AnError)
			},
		},
		{
			name: "target write fails",
			setup: func(source, target *mock_storage.MockStore) {
				source.EXPECT().Get(gomock.Any(), storage.NotesKey).Return([]byte(`[]`), nil)
				target.EXPECT().Get(gomock.Any(), storage.NotesKey).Return(nil, storage.ErrNotFound)
				target.EXPECT().Put(gomock.Any(), storage.NotesKey, []byte(`[]`)).Return(assert.AnError)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			source := mock_storage.NewMockStore(ctrl)
			target := mock_storage.NewMockStore(ctrl)
			tt.setup(source, target)

			_, err := NewImporter(source, target, &bytes.Buffer{}).Import(context.Background(), []string{storage.NotesKey}, ImportOptions{})
			assert.ErrorIs(t, err, assert.AnError)
		})
	}
}
