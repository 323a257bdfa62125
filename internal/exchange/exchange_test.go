package exchange

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/at-ishikawa/studydesk/internal/calendar"
	"github.com/at-ishikawa/studydesk/internal/module"
	"github.com/at-ishikawa/studydesk/internal/note"
)

func strictReader(t *testing.T) *Reader {
	t.Helper()
	registry, err := module.Load("")
	require.NoError(t, err)
	reader, err := NewStrictReader(registry)
	require.NoError(t, err)
	return reader
}

func TestReader_ReadNotes(t *testing.T) {
	validNote := `{"id":"note-1","title":"Optics","module":"experimentalphysik-1","tags":["light"],"content":"$n_1 \\sin\\theta_1$","updatedAt":"2024-10-14T09:00:00.000Z","createdAt":"2024-10-01T09:00:00.000Z"}`

	tests := []struct {
		name      string
		strict    bool
		input     string
		want      []note.Note
		wantErr   bool
		wantInErr []string
	}{
		{
			name:  "trusting reader",
			input: "[" + validNote + "]",
			want: []note.Note{{
				ID:        "note-1",
				Title:     "Optics",
				Module:    "experimentalphysik-1",
				Tags:      []string{"light"},
				Content:   `$n_1 \sin\theta_1$`,
				UpdatedAt: time.Date(2024, 10, 14, 9, 0, 0, 0, time.UTC),
				CreatedAt: time.Date(2024, 10, 1, 9, 0, 0, 0, time.UTC),
			}},
		},
		{
			name:  "trusting reader accepts unknown modules",
			input: `[{"id":"x","title":"","module":"chemistry"}]`,
			want:  []note.Note{{ID: "x", Module: "chemistry"}},
		},
		{
			name:    "object instead of array",
			input:   `{"notes":[]}`,
			wantErr: true,
		},
		{
			name:    "malformed JSON",
			input:   `[{"id":`,
			wantErr: true,
		},
		{
			name:   "strict reader accepts valid file",
			strict: true,
			input:  "[" + validNote + "]",
			want: []note.Note{{
				ID:        "note-1",
				Title:     "Optics",
				Module:    "experimentalphysik-1",
				Tags:      []string{"light"},
				Content:   `$n_1 \sin\theta_1$`,
				UpdatedAt: time.Date(2024, 10, 14, 9, 0, 0, 0, time.UTC),
				CreatedAt: time.Date(2024, 10, 1, 9, 0, 0, 0, time.UTC),
			}},
		},
		{
			name:    "strict reader rejects the whole file",
			strict:  true,
			input:   "[" + validNote + `,{"id":"note-2","title":"","module":"chemistry"},{"id":"note-1","title":"Again","module":"mathe-physiker-1"}]`,
			wantErr: true,
			wantInErr: []string{
				"invalid records",
				"note #2: title is a required field",
				"module must be a registered module",
				`record #3 repeats the id "note-1" of record #1`,
			},
		},
		{
			name:      "strict reader checks timestamps",
			strict:    true,
			input:     `[{"id":"a","title":"A","module":"mathe-physiker-1","createdAt":"2024-10-14T00:00:00Z","updatedAt":"2024-10-13T00:00:00Z"}]`,
			wantErr:   true,
			wantInErr: []string{"updatedAt is before createdAt"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := NewReader()
			if tt.strict {
				reader = strictReader(t)
			}

			got, err := reader.ReadNotes(strings.NewReader(tt.input))
			if tt.wantErr {
				require.Error(t, err)
				for _, want := range tt.wantInErr {
					assert.Contains(t, err.Error(), want)
				}
				if len(tt.wantInErr) > 0 {
					assert.ErrorIs(t, err, ErrInvalidRecords)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReader_ReadEvents(t *testing.T) {
	tests := []struct {
		name      string
		strict    bool
		input     string
		wantLen   int
		wantInErr []string
	}{
		{
			name:    "trusting reader keeps order",
			input:   `[{"id":"b","title":"B","start":"2024-11-01T00:00:00Z","kind":"special","allDay":true},{"id":"a","title":"A","start":"2024-10-01T09:00:00Z","end":"2024-10-01T08:00:00Z","kind":"exam"}]`,
			wantLen: 2,
		},
		{
			name:    "strict reader accepts valid file",
			strict:  true,
			input:   `[{"id":"a","title":"A","start":"2024-10-01T09:00:00Z","end":"2024-10-01T10:00:00Z","kind":"exam","module":"mathe-physiker-1"}]`,
			wantLen: 1,
		},
		{
			name:   "strict reader rejects inverted range and bad kind",
			strict: true,
			input:  `[{"id":"a","title":"A","start":"2024-10-01T09:00:00Z","end":"2024-10-01T08:00:00Z","kind":"exam"},{"id":"b","title":"B","start":"2024-10-01T09:00:00Z","kind":"party"}]`,
			wantInErr: []string{
				"event #1: end is before start",
				"event #2: kind must be one of [class exam special]",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := NewReader()
			if tt.strict {
				reader = strictReader(t)
			}

			got, err := reader.ReadEvents(strings.NewReader(tt.input))
			if len(tt.wantInErr) > 0 {
				require.ErrorIs(t, err, ErrInvalidRecords)
				for _, want := range tt.wantInErr {
					assert.Contains(t, err.Error(), want)
				}
				return
			}
			require.NoError(t, err)
			assert.Len(t, got, tt.wantLen)
		})
	}
}

func TestReader_RejectsNonArrays(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "null", input: "null"},
		{name: "null with whitespace", input: "  null\n"},
		{name: "empty file", input: ""},
		{name: "object", input: `{"notes":[]}`},
		{name: "string", input: `"[]"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewReader().ReadNotes(strings.NewReader(tt.input))
			assert.ErrorIs(t, err, ErrNotArray)

			_, err = NewReader().ReadEvents(strings.NewReader(tt.input))
			assert.ErrorIs(t, err, ErrNotArray)
		})
	}

	t.Run("empty array", func(t *testing.T) {
		notes, err := NewReader().ReadNotes(strings.NewReader(" [] "))
		require.NoError(t, err)
		assert.Empty(t, notes)
	})
}

func TestWriteJSON(t *testing.T) {
	end := time.Date(2024, 10, 1, 10, 0, 0, 0, time.UTC)
	events := []calendar.Event{{
		ID:    "event-1",
		Title: "Exam <1>",
		Start: time.Date(2024, 10, 1, 9, 0, 0, 0, time.UTC),
		End:   &end,
		Kind:  calendar.KindExam,
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, events))
	assert.Equal(t, `[
  {
    "id": "event-1",
    "title": "Exam <1>",
    "start": "2024-10-01T09:00:00Z",
    "end": "2024-10-01T10:00:00Z",
    "kind": "exam"
  }
]
`, buf.String())

	read, err := NewReader().ReadEvents(&buf)
	require.NoError(t, err)
	assert.Equal(t, events, read)
}
