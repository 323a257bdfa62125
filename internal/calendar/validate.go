package calendar

import (
	"errors"
	"fmt"
	"time"

	"github.com/at-ishikawa/studydesk/internal/module"
	"github.com/at-ishikawa/studydesk/internal/validation"
)

var (
	ErrInvalidStart   = errors.New("invalid start date")
	ErrInvalidEnd     = errors.New("invalid end date")
	ErrEndBeforeStart = errors.New("end is before start")
)

// Candidate is an event proposed from outside the process, with its
// instants still in text form.
type Candidate struct {
	Title       string      `json:"title" validate:"required"`
	Start       string      `json:"start" validate:"required"`
	End         string      `json:"end,omitempty"`
	AllDay      *bool       `json:"allDay,omitempty"`
	Module      module.Slug `json:"module,omitempty" validate:"omitempty,module"`
	Kind        Kind        `json:"kind" validate:"required,oneof=exam special"`
	Description string      `json:"description,omitempty"`
}

// Validator normalizes candidates into events.
type Validator struct {
	validator *validation.Validator
	newID     func() string
}

func NewValidator(registry *module.Registry) (*Validator, error) {
	v, err := validation.New(
		validation.WithTagName("json"),
		registry.ValidationRule(),
	)
	if err != nil {
		return nil, fmt.Errorf("validation.New() > %w", err)
	}
	return &Validator{
		validator: v,
		newID:     NewEventID,
	}, nil
}

// Validate checks the field rules, then the start, the end, and their order.
// Field rule failures are returned as *validation.Error; instant failures as
// ErrInvalidStart, ErrInvalidEnd or ErrEndBeforeStart. The returned event has
// a fresh id and UTC instants.
func (v *Validator) Validate(c Candidate) (Event, error) {
	if err := v.validator.Struct(c); err != nil {
		return Event{}, err
	}

	start, err := ParseInstant(c.Start)
	if err != nil {
		return Event{}, ErrInvalidStart
	}

	var end *time.Time
	if c.End != "" {
		parsed, err := ParseInstant(c.End)
		if err != nil {
			return Event{}, ErrInvalidEnd
		}
		if parsed.Before(start) {
			return Event{}, ErrEndBeforeStart
		}
		utc := parsed.UTC()
		end = &utc
	}

	var allDay *bool
	if c.AllDay != nil {
		allDay = AllDay(*c.AllDay)
	}

	return Event{
		ID:          v.newID(),
		Title:       c.Title,
		Start:       start.UTC(),
		End:         end,
		AllDay:      allDay,
		Module:      c.Module,
		Kind:        c.Kind,
		Description: c.Description,
	}, nil
}
