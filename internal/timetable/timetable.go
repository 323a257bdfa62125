// Package timetable materializes the static weekly class schedule into
// dated calendar events.
package timetable

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/at-ishikawa/studydesk/internal/assets"
	"github.com/at-ishikawa/studydesk/internal/module"
	"github.com/at-ishikawa/studydesk/internal/validation"
)

// clockLayout is the time-of-day format of Entry. Parsing also accepts a
// single-digit hour such as "9:00".
const clockLayout = "15:04"

// Entry is one weekly recurring session. DayOfWeek runs from 1 (Monday) to
// 7 (Sunday); Start and End are "HH:MM".
type Entry struct {
	DayOfWeek int         `json:"dow" yaml:"day_of_week" validate:"min=1,max=7"`
	Start     string      `json:"start" yaml:"start" validate:"required,datetime=15:04"`
	End       string      `json:"end" yaml:"end" validate:"required,datetime=15:04"`
	Title     string      `json:"title" yaml:"title" validate:"required"`
	Module    module.Slug `json:"module" yaml:"module" validate:"required,module"`
	Location  string      `json:"location,omitempty" yaml:"location,omitempty"`
}

// Timetable lists entries in declaration order.
type Timetable []Entry

// ISOWeekday converts Go's Sunday-first weekday to Monday=1 .. Sunday=7.
func ISOWeekday(day time.Weekday) int {
	if day == time.Sunday {
		return 7
	}
	return int(day)
}

// Validate checks every entry against the registry. An entry must end after
// it starts.
func (t Timetable) Validate(registry *module.Registry) error {
	validate, err := validation.New(
		validation.WithTagName("json"),
		registry.ValidationRule(),
	)
	if err != nil {
		return fmt.Errorf("validation.New() > %w", err)
	}

	for i, entry := range t {
		if err := validate.Struct(entry); err != nil {
			return fmt.Errorf("timetable entry #%d: %w", i+1, err)
		}
		start, _ := time.Parse(clockLayout, entry.Start)
		end, _ := time.Parse(clockLayout, entry.End)
		if !end.After(start) {
			return fmt.Errorf("timetable entry #%d: end %s must be after start %s", i+1, entry.End, entry.Start)
		}
	}
	return nil
}

// Load reads the timetable at path, or the embedded timetable when path is
// empty or unreadable, and validates it.
func Load(path string, registry *module.Registry) (Timetable, error) {
	var entries Timetable
	if err := yaml.Unmarshal(assets.ReadTimetable(path), &entries); err != nil {
		return nil, fmt.Errorf("yaml.Unmarshal() > %w", err)
	}
	if err := entries.Validate(registry); err != nil {
		return nil, err
	}
	entries.normalize()
	return entries, nil
}

// normalize rewrites validated clocks as two-digit "HH:MM".
func (t Timetable) normalize() {
	for i := range t {
		start, _ := time.Parse(clockLayout, t[i].Start)
		end, _ := time.Parse(clockLayout, t[i].End)
		t[i].Start = start.Format(clockLayout)
		t[i].End = end.Format(clockLayout)
	}
}
