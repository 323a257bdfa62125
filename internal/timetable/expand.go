package timetable

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/at-ishikawa/studydesk/internal/calendar"
)

const dateLayout = "2006-01-02"

// Expander turns the timetable into class events. It holds no mutable state
// and is safe for concurrent use.
type Expander struct {
	entries  Timetable
	location *time.Location
}

// NewExpander places the HH:MM times of entries in location. A nil location
// means UTC.
func NewExpander(entries Timetable, location *time.Location) *Expander {
	if location == nil {
		location = time.UTC
	}
	return &Expander{
		entries:  append(Timetable(nil), entries...),
		location: location,
	}
}

// Entries returns a copy of the timetable.
func (e *Expander) Entries() Timetable {
	return append(Timetable(nil), e.entries...)
}

// Expand parses both instants and expands the range between them. Unparsable
// input yields an empty list.
func (e *Expander) Expand(startISO, endISO string) []calendar.Event {
	start, err := calendar.ParseInstant(startISO)
	if err != nil {
		return []calendar.Event{}
	}
	end, err := calendar.ParseInstant(endISO)
	if err != nil {
		return []calendar.Event{}
	}
	return e.ExpandRange(start, end)
}

// ExpandRange emits one class event per matching entry for every UTC
// calendar day from start's date through end's date. Events are ordered by
// day, then by declaration order. An end before start yields an empty list.
func (e *Expander) ExpandRange(start, end time.Time) []calendar.Event {
	events := []calendar.Event{}
	if end.Before(start) {
		return events
	}

	for _, day := range days(start, end) {
		weekday := ISOWeekday(day.Weekday())
		date := day.Format(dateLayout)
		for _, entry := range e.entries {
			if entry.DayOfWeek != weekday {
				continue
			}
			event, err := e.synthesize(entry, day, date)
			if err != nil {
				slog.Default().Warn("skip a timetable entry",
					slog.String("title", entry.Title),
					slog.Any("error", err),
				)
				continue
			}
			events = append(events, event)
		}
	}
	return events
}

func (e *Expander) synthesize(entry Entry, day time.Time, date string) (calendar.Event, error) {
	startClock, err := time.Parse(clockLayout, entry.Start)
	if err != nil {
		return calendar.Event{}, fmt.Errorf("start: %w", err)
	}
	endClock, err := time.Parse(clockLayout, entry.End)
	if err != nil {
		return calendar.Event{}, fmt.Errorf("end: %w", err)
	}
	start := e.at(day, startClock)
	end := e.at(day, endClock)

	event := calendar.Event{
		ID:     fmt.Sprintf("class-%s-%s-%s", entry.Module, date, startClock.Format(clockLayout)),
		Title:  entry.Title,
		Start:  start,
		End:    &end,
		AllDay: calendar.AllDay(false),
		Module: entry.Module,
		Kind:   calendar.KindClass,
	}
	if entry.Location != "" {
		event.Description = "Location: " + entry.Location
	}
	return event, nil
}

func (e *Expander) at(day, clock time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), 0, 0, e.location).UTC()
}

// days lists UTC midnights from start's date through end's date.
func days(start, end time.Time) []time.Time {
	first := truncateToDay(start)
	last := truncateToDay(end)
	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:    rrule.DAILY,
		Dtstart: first,
		Until:   last,
	})
	if err != nil {
		return nil
	}
	return rule.All()
}

func truncateToDay(t time.Time) time.Time {
	utc := t.UTC()
	return time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)
}

// WeekRange returns Monday 00:00:00.000 and Sunday 23:59:59.999 UTC of the
// week containing now.
func WeekRange(now time.Time) (time.Time, time.Time) {
	today := truncateToDay(now)
	monday := today.AddDate(0, 0, 1-ISOWeekday(today.Weekday()))
	sunday := monday.AddDate(0, 0, 6).Add(24*time.Hour - time.Millisecond)
	return monday, sunday
}
