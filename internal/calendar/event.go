// Package calendar keeps one-off calendar events such as exams and special
// dates, and validates event candidates coming from outside the process.
package calendar

import (
	"fmt"
	"sort"
	"time"

	"github.com/at-ishikawa/studydesk/internal/module"
)

type Kind string

const (
	// KindClass marks sessions synthesized from the weekly timetable.
	// They are never stored.
	KindClass   Kind = "class"
	KindExam    Kind = "exam"
	KindSpecial Kind = "special"
)

func (k Kind) String() string {
	return string(k)
}

type Event struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Start       time.Time   `json:"start"`
	End         *time.Time  `json:"end,omitempty"`
	AllDay      *bool       `json:"allDay,omitempty"`
	Module      module.Slug `json:"module,omitempty"`
	Kind        Kind        `json:"kind"`
	Description string      `json:"description,omitempty"`
}

// IsAllDay reports whether the event lasts whole days. A missing allDay
// means a timed event.
func (e Event) IsAllDay() bool {
	return e.AllDay != nil && *e.AllDay
}

// AllDay returns v as an explicit allDay value.
func AllDay(v bool) *bool {
	return &v
}

var instantLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseInstant parses an RFC 3339 timestamp. Timestamps without an offset and
// bare dates are read as UTC.
func ParseInstant(value string) (time.Time, error) {
	for _, layout := range instantLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q as a date-time", value)
}

// Merge combines synthesized class sessions with stored events into one
// list ordered by start. Events starting at the same instant keep their
// relative order, classes first.
func Merge(expanded, stored []Event) []Event {
	merged := make([]Event, 0, len(expanded)+len(stored))
	merged = append(merged, expanded...)
	merged = append(merged, stored...)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Start.Before(merged[j].Start)
	})
	return merged
}
