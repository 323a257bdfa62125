package calendar

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/at-ishikawa/studydesk/internal/module"
	"github.com/at-ishikawa/studydesk/internal/storage"
)

// Draft holds the user supplied fields of a new event.
type Draft struct {
	Title       string
	Start       time.Time
	End         *time.Time
	AllDay      bool
	Module      module.Slug
	Kind        Kind
	Description string
}

// Store owns the event collection. Every mutation persists the whole
// collection; persistence failures are logged and never returned.
type Store struct {
	mu     sync.Mutex
	kv     storage.Store
	logger *slog.Logger
	newID  func() string
	events []Event
}

type Option func(s *Store)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Store) {
		s.newID = newID
	}
}

// NewStore loads the stored events, or starts empty.
func NewStore(ctx context.Context, kv storage.Store, opts ...Option) *Store {
	s := &Store{
		kv:     kv,
		logger: slog.Default(),
		newID:  NewEventID,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.events = storage.LoadJSON(ctx, kv, storage.EventsKey, []Event{}, s.logger)
	return s
}

// NewEventID returns a fresh "event-<uuid>" identifier.
func NewEventID() string {
	return "event-" + uuid.NewString()
}

// Events returns a snapshot in insertion order.
func (s *Store) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

func (s *Store) Get(id string) (Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.events {
		if e.ID == id {
			return e, true
		}
	}
	return Event{}, false
}

// Create appends a new event. The kind defaults to exam.
func (s *Store) Create(ctx context.Context, draft Draft) Event {
	kind := draft.Kind
	if kind == "" {
		kind = KindExam
	}
	event := Event{
		ID:          s.newID(),
		Title:       draft.Title,
		Start:       draft.Start,
		End:         draft.End,
		AllDay:      AllDay(draft.AllDay),
		Module:      draft.Module,
		Kind:        kind,
		Description: draft.Description,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	events := make([]Event, 0, len(s.events)+1)
	events = append(events, s.events...)
	s.commit(ctx, append(events, event))
	return event
}

// Update replaces the event with the same id in place. It reports whether
// such an event existed; a missing id leaves the collection untouched.
func (s *Store) Update(ctx context.Context, event Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	events := append([]Event(nil), s.events...)
	for i := range events {
		if events[i].ID == event.ID {
			events[i] = event
			s.commit(ctx, events)
			return true
		}
	}
	return false
}

// Delete removes the event with id and reports whether it existed.
func (s *Store) Delete(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	events := make([]Event, 0, len(s.events))
	for _, e := range s.events {
		if e.ID != id {
			events = append(events, e)
		}
	}
	if len(events) == len(s.events) {
		return false
	}
	s.commit(ctx, events)
	return true
}

// Import replaces the whole collection, keeping the given order.
func (s *Store) Import(ctx context.Context, events []Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commit(ctx, append(make([]Event, 0, len(events)), events...))
}

func (s *Store) commit(ctx context.Context, events []Event) {
	s.events = events
	storage.SaveJSON(ctx, s.kv, storage.EventsKey, events, s.logger)
}
