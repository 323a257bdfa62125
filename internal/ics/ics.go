// Package ics exports calendar events as an iCalendar feed.
package ics

import (
	"fmt"
	"io"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/at-ishikawa/studydesk/internal/calendar"
	"github.com/at-ishikawa/studydesk/internal/module"
)

const (
	productID = "-//studydesk//Calendar Export//EN"

	// PropertyModule carries the module display name of an event.
	PropertyModule = ical.ComponentProperty("X-STUDYDESK-MODULE")
)

// Encoder writes events as VEVENTs.
type Encoder struct {
	registry *module.Registry
	now      func() time.Time
}

func NewEncoder(registry *module.Registry) *Encoder {
	return &Encoder{
		registry: registry,
		now:      time.Now,
	}
}

// Encode writes one VEVENT per event to w. All-day events use DATE values
// with an exclusive end.
func (e *Encoder) Encode(w io.Writer, name string, events []calendar.Event) error {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	cal.SetXWRCalName(name)

	stamp := e.now().UTC()
	for _, event := range events {
		vevent := cal.AddEvent(event.ID)
		vevent.SetDtStampTime(stamp)
		vevent.SetSummary(event.Title)

		if event.IsAllDay() {
			vevent.SetAllDayStartAt(event.Start.UTC())
			last := event.Start
			if event.End != nil {
				last = *event.End
			}
			vevent.SetAllDayEndAt(last.UTC().AddDate(0, 0, 1))
		} else {
			vevent.SetStartAt(event.Start)
			if event.End != nil {
				vevent.SetEndAt(*event.End)
			}
		}

		if event.Description != "" {
			vevent.SetDescription(event.Description)
		}
		vevent.AddCategory(string(event.Kind))
		if event.Module != "" {
			vevent.SetProperty(PropertyModule, e.registry.Name(event.Module))
		}
	}

	if err := cal.SerializeTo(w); err != nil {
		return fmt.Errorf("cal.SerializeTo() > %w", err)
	}
	return nil
}
