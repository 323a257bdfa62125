package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/at-ishikawa/studydesk/internal/calendar"
	"github.com/at-ishikawa/studydesk/internal/module"
	"github.com/at-ishikawa/studydesk/internal/note"
)

func fixtureNotes() []note.Note {
	return []note.Note{
		{ID: "1", Title: "Newton's laws", Module: "experimentalphysik-1", Tags: []string{"Mechanics"}, Content: "F = ma"},
		{ID: "2", Title: "Eigenvalues", Module: "mathe-physiker-1", Tags: []string{"linear-algebra", "exam"}, Content: "$\\det(A - \\lambda I) = 0$"},
		{ID: "3", Title: "Lab safety", Module: "einfuehrungspraktikum", Tags: nil, Content: "Wear goggles"},
		{ID: "4", Title: "Energy", Module: "experimentalphysik-1", Tags: []string{"mechanics", "Exam"}, Content: "Conservation of energy"},
	}
}

func noteIDs(notes []note.Note) []string {
	ids := []string{}
	for _, n := range notes {
		ids = append(ids, n.ID)
	}
	return ids
}

func TestFilterByModule(t *testing.T) {
	tests := []struct {
		name   string
		module module.Slug
		want   []string
	}{
		{name: "no module keeps everything", module: "", want: []string{"1", "2", "3", "4"}},
		{name: "exact slug", module: "experimentalphysik-1", want: []string{"1", "4"}},
		{name: "unknown slug", module: "chemistry", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notes := fixtureNotes()
			got := FilterByModule(notes, tt.module)
			assert.Equal(t, tt.want, noteIDs(got))
			assert.Equal(t, fixtureNotes(), notes)
		})
	}
}

func TestFilterByTags(t *testing.T) {
	tests := []struct {
		name string
		tags []string
		want []string
	}{
		{name: "no tags keeps everything", tags: nil, want: []string{"1", "2", "3", "4"}},
		{name: "case-insensitive membership", tags: []string{"MECHANICS"}, want: []string{"1", "4"}},
		{name: "any tag matches", tags: []string{"exam", "nothing"}, want: []string{"2", "4"}},
		{name: "no substring matching", tags: []string{"mech"}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, noteIDs(FilterByTags(fixtureNotes(), tt.tags)))
		})
	}
}

func TestSearch(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{name: "empty query keeps everything", text: "", want: []string{"1", "2", "3", "4"}},
		{name: "blank query keeps everything", text: "   ", want: []string{"1", "2", "3", "4"}},
		{name: "title", text: "NEWTON", want: []string{"1"}},
		{name: "content", text: "goggles", want: []string{"3"}},
		{name: "tag substring", text: "algebra", want: []string{"2"}},
		{name: "trimmed", text: "  energy ", want: []string{"4"}},
		{name: "no match", text: "thermodynamics", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, noteIDs(Search(fixtureNotes(), tt.text)))
		})
	}
}

func TestSearch_IdentityOnBlankQuery(t *testing.T) {
	notes := fixtureNotes()
	assert.Equal(t, notes, Search(notes, ""))
	assert.Equal(t, notes, FilterByModule(notes, ""))
}

func TestNoteFilter_Apply(t *testing.T) {
	tests := []struct {
		name   string
		filter NoteFilter
		want   []string
	}{
		{name: "zero filter", filter: NoteFilter{}, want: []string{"1", "2", "3", "4"}},
		{name: "module and tag", filter: NoteFilter{Module: "experimentalphysik-1", Tags: []string{"exam"}}, want: []string{"4"}},
		{name: "module and text", filter: NoteFilter{Module: "experimentalphysik-1", Text: "newton"}, want: []string{"1"}},
		{name: "all stages", filter: NoteFilter{Module: "mathe-physiker-1", Tags: []string{"exam"}, Text: "lambda"}, want: []string{"2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, noteIDs(tt.filter.Apply(fixtureNotes())))
		})
	}
}

func fixtureEvents() []calendar.Event {
	at := func(day int) time.Time {
		return time.Date(2024, 10, day, 9, 0, 0, 0, time.UTC)
	}
	return []calendar.Event{
		{ID: "late", Start: at(30), Kind: calendar.KindSpecial},
		{ID: "class", Start: at(1), Kind: calendar.KindClass},
		{ID: "past", Start: at(2), Kind: calendar.KindExam},
		{ID: "soon", Start: at(15), Kind: calendar.KindExam},
		{ID: "mid", Start: at(20), Kind: calendar.KindSpecial},
		{ID: "later", Start: at(25), Kind: calendar.KindExam},
	}
}

func eventIDs(events []calendar.Event) []string {
	ids := []string{}
	for _, e := range events {
		ids = append(ids, e.ID)
	}
	return ids
}

func TestUpcoming(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		want  []string
	}{
		{name: "limit 2", limit: 2, want: []string{"past", "soon"}},
		{name: "default limit", limit: 0, want: []string{"past", "soon", "mid", "later"}},
		{name: "limit above size", limit: 10, want: []string{"past", "soon", "mid", "later", "late"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := fixtureEvents()
			got := Upcoming(events, tt.limit)
			assert.Equal(t, tt.want, eventIDs(got))
			assert.Equal(t, fixtureEvents(), events)
		})
	}
}

func TestUpcomingAfter(t *testing.T) {
	now := time.Date(2024, 10, 15, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, []string{"soon", "mid"}, eventIDs(UpcomingAfter(fixtureEvents(), now, 2)))
}

func TestCollectTags(t *testing.T) {
	assert.Equal(t, []string{"exam", "linear-algebra", "Mechanics"}, CollectTags(fixtureNotes()))
	assert.Equal(t, []string{}, CollectTags(nil))
}
