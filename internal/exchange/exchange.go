// Package exchange reads and writes the import/export files: a bare JSON
// array of notes or of events.
package exchange

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/at-ishikawa/studydesk/internal/calendar"
	"github.com/at-ishikawa/studydesk/internal/module"
	"github.com/at-ishikawa/studydesk/internal/note"
	"github.com/at-ishikawa/studydesk/internal/validation"
)

// ErrNotArray is returned when a file does not hold a JSON array. A
// top-level null is rejected so that an import never wipes a collection by
// accident.
var ErrNotArray = errors.New("file must contain a JSON array")

// ErrInvalidRecords is returned in strict mode when any record fails
// validation. The whole file is rejected.
var ErrInvalidRecords = errors.New("invalid records")

// Reader decodes import files. With a registry it runs in strict mode and
// validates every record.
type Reader struct {
	validator *validation.Validator
}

// NewReader returns a Reader that trusts the file.
func NewReader() *Reader {
	return &Reader{}
}

// NewStrictReader returns a Reader that validates every record against registry.
func NewStrictReader(registry *module.Registry) (*Reader, error) {
	v, err := validation.New(
		validation.WithTagName("json"),
		registry.ValidationRule(),
	)
	if err != nil {
		return nil, fmt.Errorf("validation.New() > %w", err)
	}
	return &Reader{validator: v}, nil
}

type noteRecord struct {
	ID     string      `json:"id" validate:"required"`
	Title  string      `json:"title" validate:"required"`
	Module module.Slug `json:"module" validate:"required,module"`
}

type eventRecord struct {
	ID     string        `json:"id" validate:"required"`
	Title  string        `json:"title" validate:"required"`
	Module module.Slug   `json:"module" validate:"omitempty,module"`
	Kind   calendar.Kind `json:"kind" validate:"required,oneof=class exam special"`
}

func (r *Reader) ReadNotes(in io.Reader) ([]note.Note, error) {
	var notes []note.Note
	if err := decodeArray(in, &notes); err != nil {
		return nil, err
	}
	if r.validator == nil {
		return notes, nil
	}

	var problems []error
	for i, n := range notes {
		if err := r.validator.Struct(noteRecord{ID: n.ID, Title: n.Title, Module: n.Module}); err != nil {
			problems = append(problems, fmt.Errorf("note #%d: %w", i+1, err))
		}
		if n.UpdatedAt.Before(n.CreatedAt) {
			problems = append(problems, fmt.Errorf("note #%d: updatedAt is before createdAt", i+1))
		}
	}
	if err := duplicateIDs(len(notes), func(i int) string { return notes[i].ID }); err != nil {
		problems = append(problems, err)
	}
	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRecords, errors.Join(problems...))
	}
	return notes, nil
}

func (r *Reader) ReadEvents(in io.Reader) ([]calendar.Event, error) {
	var events []calendar.Event
	if err := decodeArray(in, &events); err != nil {
		return nil, err
	}
	if r.validator == nil {
		return events, nil
	}

	var problems []error
	for i, e := range events {
		if err := r.validator.Struct(eventRecord{ID: e.ID, Title: e.Title, Module: e.Module, Kind: e.Kind}); err != nil {
			problems = append(problems, fmt.Errorf("event #%d: %w", i+1, err))
		}
		if e.End != nil && e.End.Before(e.Start) {
			problems = append(problems, fmt.Errorf("event #%d: %w", i+1, calendar.ErrEndBeforeStart))
		}
	}
	if err := duplicateIDs(len(events), func(i int) string { return events[i].ID }); err != nil {
		problems = append(problems, err)
	}
	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRecords, errors.Join(problems...))
	}
	return events, nil
}

// WriteJSON writes v as JSON indented with two spaces and a trailing newline.
func WriteJSON(out io.Writer, v any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("encoder.Encode() > %w", err)
	}
	return nil
}

func decodeArray(in io.Reader, v any) error {
	content, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("io.ReadAll() > %w", err)
	}
	if trimmed := bytes.TrimSpace(content); len(trimmed) == 0 || trimmed[0] != '[' {
		return ErrNotArray
	}
	if err := json.Unmarshal(content, v); err != nil {
		return fmt.Errorf("%w: %w", ErrNotArray, err)
	}
	return nil
}

func duplicateIDs(n int, id func(i int) string) error {
	seen := make(map[string]int, n)
	for i := 0; i < n; i++ {
		if first, ok := seen[id(i)]; ok {
			return fmt.Errorf("record #%d repeats the id %q of record #%d", i+1, id(i), first+1)
		}
		seen[id(i)] = i
	}
	return nil
}
