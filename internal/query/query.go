// Package query filters and orders snapshots of notes and events. Every
// function is pure: inputs are never modified.
package query

import (
	"sort"
	"strings"
	"time"

	"github.com/at-ishikawa/studydesk/internal/calendar"
	"github.com/at-ishikawa/studydesk/internal/module"
	"github.com/at-ishikawa/studydesk/internal/note"
)

// DefaultUpcomingLimit is the number of events shown in upcoming views.
const DefaultUpcomingLimit = 4

// FilterByModule keeps notes of slug. An empty slug keeps everything.
func FilterByModule(notes []note.Note, slug module.Slug) []note.Note {
	if slug == "" {
		return notes
	}
	return filter(notes, func(n note.Note) bool {
		return n.Module == slug
	})
}

// FilterByTags keeps notes carrying at least one of tags, compared
// case-insensitively. No tags keeps everything.
func FilterByTags(notes []note.Note, tags []string) []note.Note {
	if len(tags) == 0 {
		return notes
	}
	wanted := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		wanted[strings.ToLower(tag)] = struct{}{}
	}
	return filter(notes, func(n note.Note) bool {
		for _, tag := range n.Tags {
			if _, ok := wanted[strings.ToLower(tag)]; ok {
				return true
			}
		}
		return false
	})
}

// Search keeps notes whose title, content or any tag contains text,
// case-insensitively. Blank text keeps everything.
func Search(notes []note.Note, text string) []note.Note {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return notes
	}
	return filter(notes, func(n note.Note) bool {
		if strings.Contains(strings.ToLower(n.Title), normalized) ||
			strings.Contains(strings.ToLower(n.Content), normalized) {
			return true
		}
		for _, tag := range n.Tags {
			if strings.Contains(strings.ToLower(tag), normalized) {
				return true
			}
		}
		return false
	})
}

// NoteFilter is the notes list pipeline: module, then tags, then text.
type NoteFilter struct {
	Module module.Slug
	Tags   []string
	Text   string
}

func (f NoteFilter) Apply(notes []note.Note) []note.Note {
	return Search(FilterByTags(FilterByModule(notes, f.Module), f.Tags), f.Text)
}

// Upcoming returns at most limit non-class events ordered by start. Past
// events are included. A limit below one uses DefaultUpcomingLimit.
func Upcoming(events []calendar.Event, limit int) []calendar.Event {
	if limit < 1 {
		limit = DefaultUpcomingLimit
	}
	result := make([]calendar.Event, 0, len(events))
	for _, e := range events {
		if e.Kind != calendar.KindClass {
			result = append(result, e)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Start.Before(result[j].Start)
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result
}

// UpcomingAfter is Upcoming restricted to events starting at or after now.
func UpcomingAfter(events []calendar.Event, now time.Time, limit int) []calendar.Event {
	future := make([]calendar.Event, 0, len(events))
	for _, e := range events {
		if !e.Start.Before(now) {
			future = append(future, e)
		}
	}
	return Upcoming(future, limit)
}

// CollectTags returns the distinct tags of notes sorted alphabetically.
// Tags differing only in case are reported once, spelled as first seen.
func CollectTags(notes []note.Note) []string {
	seen := make(map[string]struct{})
	tags := []string{}
	for _, n := range notes {
		for _, tag := range n.Tags {
			key := strings.ToLower(tag)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			tags = append(tags, tag)
		}
	}
	sort.SliceStable(tags, func(i, j int) bool {
		return strings.ToLower(tags[i]) < strings.ToLower(tags[j])
	})
	return tags
}

func filter(notes []note.Note, keep func(n note.Note) bool) []note.Note {
	result := make([]note.Note, 0, len(notes))
	for _, n := range notes {
		if keep(n) {
			result = append(result, n)
		}
	}
	return result
}
