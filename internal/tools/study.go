package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/at-ishikawa/studydesk/internal/calendar"
	"github.com/at-ishikawa/studydesk/internal/module"
	"github.com/at-ishikawa/studydesk/internal/note"
	"github.com/at-ishikawa/studydesk/internal/query"
	"github.com/at-ishikawa/studydesk/internal/render"
	"github.com/at-ishikawa/studydesk/internal/timetable"
	"github.com/at-ishikawa/studydesk/internal/validation"
)

const (
	mimeJSON = "application/json"
	mimeText = "text/plain"

	weekResourceHost = "this-week"
	isoMillis        = "2006-01-02T15:04:05.000Z07:00"
)

// Deps are the components the study desk tools operate on.
type Deps struct {
	Renderer *render.Renderer
	Modules  *module.Registry
	Expander *timetable.Expander
	Events   *calendar.Validator
	Now      func() time.Time
}

type studyTools struct {
	Deps
	arguments *validation.Validator
}

type renderArgs struct {
	Markdown string `json:"markdown" validate:"required"`
}

type rangeArgs struct {
	StartISO string `json:"startISO" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	EndISO   string `json:"endISO" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
}

type searchArgs struct {
	Notes []noteRecord `json:"notes" validate:"required,dive"`
	Query string       `json:"query" validate:"required"`
}

// noteRecord is a note sent by a client. Every field must be present;
// strings may be empty.
type noteRecord struct {
	ID        *string     `json:"id" validate:"required"`
	Title     *string     `json:"title" validate:"required"`
	Module    module.Slug `json:"module" validate:"required,module"`
	Tags      []string    `json:"tags" validate:"required"`
	Content   *string     `json:"content" validate:"required"`
	UpdatedAt *time.Time  `json:"updatedAt" validate:"required"`
	CreatedAt *time.Time  `json:"createdAt" validate:"required"`
}

func (r noteRecord) note() note.Note {
	return note.Note{
		ID:        *r.ID,
		Title:     *r.Title,
		Module:    r.Module,
		Tags:      r.Tags,
		Content:   *r.Content,
		UpdatedAt: *r.UpdatedAt,
		CreatedAt: *r.CreatedAt,
	}
}

type validateEventResult struct {
	OK    bool            `json:"ok"`
	Event *calendar.Event `json:"event,omitempty"`
	Error string          `json:"error,omitempty"`
}

type weekRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type weekSnapshot struct {
	Range     weekRange           `json:"range"`
	Modules   []module.Module     `json:"modules"`
	Timetable timetable.Timetable `json:"timetable"`
	Events    []calendar.Event    `json:"events"`
	Source    string              `json:"source"`
}

// RegisterDefaults adds the render, module, timetable, event and search
// tools plus the module:// and timetable:// resources to r.
func RegisterDefaults(r *Registry, deps Deps) error {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	arguments, err := validation.New(
		validation.WithTagName("json"),
		deps.Modules.ValidationRule(),
	)
	if err != nil {
		return fmt.Errorf("validation.New() > %w", err)
	}
	s := &studyTools{Deps: deps, arguments: arguments}

	for _, tool := range []Tool{
		{
			Name:        "render_math_markdown",
			Description: "Render Markdown + LaTeX ($ ... $ / $$ ... $$) into sanitized HTML",
			Handler:     s.renderMathMarkdown,
		},
		{
			Name:        "list_modules",
			Description: "List configured modules",
			Handler:     s.listModules,
		},
		{
			Name:        "compile_timetable_range",
			Description: "Expand static timetable into a date range",
			Handler:     s.compileTimetableRange,
		},
		{
			Name:        "validate_event",
			Description: "Validate and normalize an event (returns id)",
			Handler:     s.validateEvent,
		},
		{
			Name:        "search_notes_in_payload",
			Description: "Fulltext search over provided notes array",
			Handler:     s.searchNotes,
		},
	} {
		if err := r.Register(tool); err != nil {
			return err
		}
	}

	for _, provider := range []ResourceProvider{
		{Scheme: "module", List: s.listModuleResources, Read: s.readModule},
		{Scheme: "timetable", List: s.listTimetableResources, Read: s.readTimetable},
	} {
		if err := r.RegisterResource(provider); err != nil {
			return err
		}
	}
	return nil
}

func (s *studyTools) renderMathMarkdown(_ context.Context, args map[string]any) (map[string]any, error) {
	var in renderArgs
	if err := s.decode(args, &in); err != nil {
		return nil, err
	}
	html, err := s.Renderer.Render(in.Markdown)
	if err != nil {
		return nil, fmt.Errorf("Render() > %w", err)
	}
	return map[string]any{"html": html}, nil
}

func (s *studyTools) listModules(_ context.Context, _ map[string]any) (map[string]any, error) {
	return toMap(map[string]any{"modules": s.Modules.All()})
}

func (s *studyTools) compileTimetableRange(_ context.Context, args map[string]any) (map[string]any, error) {
	var in rangeArgs
	if err := s.decode(args, &in); err != nil {
		return nil, err
	}
	events := []calendar.Event{}
	for _, event := range s.Expander.Expand(in.StartISO, in.EndISO) {
		if event.Kind == calendar.KindClass {
			events = append(events, event)
		}
	}
	return toMap(map[string]any{"events": events})
}

func (s *studyTools) validateEvent(_ context.Context, args map[string]any) (map[string]any, error) {
	var candidate calendar.Candidate
	if err := s.decode(args, &candidate); err != nil {
		return nil, err
	}

	event, err := s.Events.Validate(candidate)
	switch {
	case err == nil:
		return toMap(validateEventResult{OK: true, Event: &event})
	case errors.Is(err, calendar.ErrInvalidStart),
		errors.Is(err, calendar.ErrInvalidEnd),
		errors.Is(err, calendar.ErrEndBeforeStart):
		return toMap(validateEventResult{OK: false, Error: err.Error()})
	default:
		return nil, argumentError(err)
	}
}

func (s *studyTools) searchNotes(_ context.Context, args map[string]any) (map[string]any, error) {
	var in searchArgs
	if err := s.decode(args, &in); err != nil {
		return nil, err
	}
	notes := make([]note.Note, 0, len(in.Notes))
	for _, record := range in.Notes {
		notes = append(notes, record.note())
	}
	hits := query.Search(notes, in.Query)
	if hits == nil {
		hits = []note.Note{}
	}
	return toMap(map[string]any{"hits": hits})
}

func (s *studyTools) listModuleResources() []Resource {
	resources := make([]Resource, 0, len(s.Modules.All()))
	for _, slug := range s.Modules.Slugs() {
		resources = append(resources, Resource{URI: "module://" + string(slug), MimeType: mimeJSON})
	}
	return resources
}

func (s *studyTools) readModule(_ context.Context, uri *url.URL) (Contents, error) {
	found, ok := s.Modules.Lookup(module.Slug(uri.Host))
	if !ok {
		return Contents{URI: "module://" + uri.Host, MimeType: mimeText, Text: "Module not found"}, nil
	}
	body, err := json.Marshal(found)
	if err != nil {
		return Contents{}, fmt.Errorf("json.Marshal() > %w", err)
	}
	return Contents{URI: "module://" + string(found.Slug), MimeType: mimeJSON, Text: string(body)}, nil
}

func (s *studyTools) listTimetableResources() []Resource {
	return []Resource{{URI: "timetable://" + weekResourceHost, MimeType: mimeJSON}}
}

func (s *studyTools) readTimetable(_ context.Context, uri *url.URL) (Contents, error) {
	if uri.Host != weekResourceHost {
		return Contents{}, fmt.Errorf("%w: %s", ErrUnknownResource, uri)
	}
	start, end := timetable.WeekRange(s.Now())
	body, err := json.Marshal(weekSnapshot{
		Range: weekRange{
			Start: start.Format(isoMillis),
			End:   end.Format(isoMillis),
		},
		Modules:   s.Modules.All(),
		Timetable: s.Expander.Entries(),
		Events:    s.Expander.ExpandRange(start, end),
		Source:    "static-timetable",
	})
	if err != nil {
		return Contents{}, fmt.Errorf("json.Marshal() > %w", err)
	}
	return Contents{URI: "timetable://" + weekResourceHost, MimeType: mimeJSON, Text: string(body)}, nil
}

// decode copies JSON-like args into target and checks its validate tags.
func (s *studyTools) decode(args map[string]any, target any) error {
	raw, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("json.Marshal() > %w", err)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		field := ""
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			field = typeErr.Field
		}
		return &ArgumentError{Violations: []validation.Violation{{Field: field, Message: err.Error()}}}
	}
	if err := s.arguments.Struct(target); err != nil {
		return argumentError(err)
	}
	return nil
}

func argumentError(err error) error {
	var validationErr *validation.Error
	if errors.As(err, &validationErr) {
		return &ArgumentError{Violations: validationErr.Violations}
	}
	return err
}

// toMap turns v into the JSON object form handlers return.
func toMap(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("json.Marshal() > %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("json.Unmarshal() > %w", err)
	}
	return out, nil
}
