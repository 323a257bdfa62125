package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEventsCommand(t *testing.T) {
	cmd := newEventsCommand()

	assert.Equal(t, "events", cmd.Use)
	assert.Len(t, cmd.Commands(), 8)

	create, _, err := cmd.Find([]string{"create"})
	require.NoError(t, err)
	kind := create.Flags().Lookup("kind")
	require.NotNil(t, kind)
	assert.Equal(t, "exam", kind.DefValue)
}

func TestEventsCommand_Lifecycle(t *testing.T) {
	setupDesk(t)

	id := mustExecute(t, "events", "create",
		"--title", "Klausur Analysis",
		"--start", "2030-02-10T09:00:00+01:00",
		"--end", "2030-02-10T11:00:00+01:00",
		"--module", "mathe-physiker-1",
	)
	assert.True(t, strings.HasPrefix(id, "event-"), id)

	specialID := mustExecute(t, "events", "create",
		"--title", "Semesterferien",
		"--start", "2030-02-15",
		"--all-day",
		"--kind", "special",
	)

	out := mustExecute(t, "events", "list")
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Klausur Analysis")
	assert.Contains(t, lines[0], "exam")
	assert.Contains(t, lines[1], "Semesterferien")
	assert.Contains(t, lines[1], "(all day)")

	out = mustExecute(t, "events", "upcoming", "--limit", "1")
	assert.Contains(t, out, "Klausur Analysis")
	assert.NotContains(t, out, "Semesterferien")

	assert.Equal(t, id, mustExecute(t, "events", "update", id, "--title", "Klausur Analysis I"))
	assert.Contains(t, mustExecute(t, "events", "list"), "Klausur Analysis I")

	_, err := execute(t, "events", "update", id, "--end", "2030-02-10T07:00:00Z")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "end is before start")

	mustExecute(t, "events", "delete", specialID)
	assert.NotContains(t, mustExecute(t, "events", "list"), "Semesterferien")
}

func TestEventsCommand_CreateValidation(t *testing.T) {
	setupDesk(t)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{
			name:    "end before start",
			args:    []string{"--title", "Klausur", "--start", "2030-02-10T09:00:00Z", "--end", "2030-02-10T08:00:00Z"},
			wantErr: "end is before start",
		},
		{
			name:    "unparseable start",
			args:    []string{"--title", "Klausur", "--start", "tomorrow"},
			wantErr: "invalid start date",
		},
		{
			name:    "unknown module",
			args:    []string{"--title", "Klausur", "--start", "2030-02-10", "--module", "chemie"},
			wantErr: "must be a registered module",
		},
		{
			name:    "class kind",
			args:    []string{"--title", "Vorlesung", "--start", "2030-02-10", "--kind", "class"},
			wantErr: "invalid value",
		},
		{
			name:    "missing title",
			args:    []string{"--start", "2030-02-10"},
			wantErr: "title",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, append([]string{"events", "create"}, tt.args...)...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
	assert.Empty(t, mustExecute(t, "events", "list"))
}

func TestEventsCommand_NotFound(t *testing.T) {
	setupDesk(t)

	for _, args := range [][]string{
		{"events", "update", "event-missing", "--title", "x"},
		{"events", "delete", "event-missing"},
	} {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			_, err := execute(t, args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), `event "event-missing" not found`)
		})
	}
}

func TestEventsCommand_ListRange(t *testing.T) {
	setupDesk(t)
	mustExecute(t, "events", "create", "--title", "Probeklausur", "--start", "2025-01-07T12:00:00Z")
	mustExecute(t, "events", "create", "--title", "Nachklausur", "--start", "2025-03-01T12:00:00Z")

	out := mustExecute(t, "events", "list", "--from", "2025-01-06", "--to", "2025-01-07T23:59:59Z")
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "Vorlesung Experimentalphysik I")
	assert.Contains(t, lines[1], "Übung Mathematik für Physiker I")
	assert.Contains(t, lines[2], "Probeklausur")
}

func TestEventsCommand_ExportImportICS(t *testing.T) {
	tmpDir := setupDesk(t)
	mustExecute(t, "events", "create", "--title", "Klausur", "--start", "2025-01-08T09:00:00Z", "--end", "2025-01-08T11:00:00Z")

	exported := filepath.Join(tmpDir, "events.json")
	mustExecute(t, "events", "export", exported)
	mustExecute(t, "events", "create", "--title", "Scratch", "--start", "2025-01-09")
	assert.Equal(t, "imported 1 events", mustExecute(t, "events", "import", "--strict", exported))
	assert.NotContains(t, mustExecute(t, "events", "list"), "Scratch")

	out := mustExecute(t, "events", "ics", "-", "--from", "2025-01-06", "--to", "2025-01-12T23:59:59Z")
	assert.Contains(t, out, "BEGIN:VCALENDAR")
	assert.Contains(t, out, "SUMMARY:Klausur")
	assert.Contains(t, out, "SUMMARY:Vorlesung Experimentalphysik I")
	assert.Equal(t, 6, strings.Count(out, "BEGIN:VEVENT"))

	icsFile := filepath.Join(tmpDir, "week.ics")
	mustExecute(t, "events", "ics", icsFile, "--from", "2025-01-06", "--to", "2025-01-06T23:59:59Z")
	content, err := os.ReadFile(icsFile)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(content), "BEGIN:VEVENT"))
}
