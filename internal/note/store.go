package note

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/at-ishikawa/studydesk/internal/assets"
	"github.com/at-ishikawa/studydesk/internal/module"
	"github.com/at-ishikawa/studydesk/internal/storage"
)

const (
	welcomeTitle = "Welcome to the note tracker"
	copySuffix   = " (Copy)"
	welcomeTag   = "intro"
)

// Store owns the note collection, most recently updated first. Every
// mutation persists the whole collection; persistence failures are logged
// and never returned.
type Store struct {
	mu            sync.Mutex
	kv            storage.Store
	logger        *slog.Logger
	now           func() time.Time
	newID         func() string
	defaultModule module.Slug
	notes         []Note
}

type Option func(s *Store)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Store) {
		s.newID = newID
	}
}

// NewStore loads the stored notes. An empty collection is seeded with a
// welcome note in defaultModule.
func NewStore(ctx context.Context, kv storage.Store, defaultModule module.Slug, opts ...Option) *Store {
	s := &Store{
		kv:            kv,
		logger:        slog.Default(),
		now:           time.Now,
		newID:         NewNoteID,
		defaultModule: defaultModule,
	}
	for _, opt := range opts {
		opt(s)
	}

	notes := storage.LoadJSON(ctx, kv, storage.NotesKey, []Note{}, s.logger)
	if len(notes) == 0 {
		s.commit(ctx, []Note{s.newNote(Draft{
			Title:   welcomeTitle,
			Module:  defaultModule,
			Tags:    []string{welcomeTag},
			Content: assets.WelcomeNote(),
		})})
		return s
	}
	s.notes = notes
	return s
}

// Notes returns a snapshot of the collection.
func (s *Store) Notes() []Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	notes := make([]Note, 0, len(s.notes))
	for _, n := range s.notes {
		notes = append(notes, n.clone())
	}
	return notes
}

func (s *Store) Get(id string) (Note, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		return s.notes[i].clone(), true
	}
	return Note{}, false
}

// Create prepends a new note.
func (s *Store) Create(ctx context.Context, draft Draft) Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.newNote(draft)
	s.prepend(ctx, n)
	return n.clone()
}

// Update replaces the note with the same id and re-sorts the collection by
// UpdatedAt. It reports whether the note existed; a missing id leaves the
// collection untouched.
func (s *Store) Update(ctx context.Context, n Note) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.update(ctx, n.clone())
}

// Edit applies change to the note with id, bumps its UpdatedAt and stores it.
func (s *Store) Edit(ctx context.Context, id string, change func(n *Note)) (Note, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return Note{}, false
	}
	n := s.notes[i].clone()
	change(&n)
	n.ID = id
	n.UpdatedAt = s.now().UTC()
	s.update(ctx, n)
	return n.clone(), true
}

// Delete removes the note with id and reports whether it existed.
func (s *Store) Delete(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	notes := make([]Note, 0, len(s.notes)-1)
	notes = append(notes, s.notes[:i]...)
	notes = append(notes, s.notes[i+1:]...)
	s.commit(ctx, notes)
	return true
}

// Duplicate prepends a copy of the note with id under a new id, a marked
// title and fresh timestamps.
func (s *Store) Duplicate(ctx context.Context, id string) (Note, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return Note{}, false
	}
	now := s.now().UTC()
	dup := s.notes[i].clone()
	dup.ID = s.newID()
	dup.Title += copySuffix
	dup.CreatedAt = now
	dup.UpdatedAt = now
	s.prepend(ctx, dup)
	return dup.clone(), true
}

// Import replaces the whole collection, sorted by UpdatedAt descending.
func (s *Store) Import(ctx context.Context, notes []Note) {
	s.mu.Lock()
	defer s.mu.Unlock()

	imported := make([]Note, 0, len(notes))
	for _, n := range notes {
		imported = append(imported, n.clone())
	}
	sortByUpdatedAt(imported)
	s.commit(ctx, imported)
}

func (s *Store) newNote(draft Draft) Note {
	now := s.now().UTC()
	n := Note{
		ID:        s.newID(),
		Title:     draft.Title,
		Module:    draft.Module,
		Tags:      append([]string{}, draft.Tags...),
		Content:   draft.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if n.Title == "" {
		n.Title = DefaultTitle
	}
	if n.Module == "" {
		n.Module = s.defaultModule
	}
	return n
}

func (s *Store) update(ctx context.Context, n Note) bool {
	i := s.indexOf(n.ID)
	if i < 0 {
		return false
	}
	notes := append([]Note(nil), s.notes...)
	notes[i] = n
	sortByUpdatedAt(notes)
	s.commit(ctx, notes)
	return true
}

func (s *Store) prepend(ctx context.Context, n Note) {
	notes := make([]Note, 0, len(s.notes)+1)
	notes = append(notes, n)
	s.commit(ctx, append(notes, s.notes...))
}

func (s *Store) indexOf(id string) int {
	for i, n := range s.notes {
		if n.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) commit(ctx context.Context, notes []Note) {
	s.notes = notes
	storage.SaveJSON(ctx, s.kv, storage.NotesKey, notes, s.logger)
}

func sortByUpdatedAt(notes []Note) {
	sort.SliceStable(notes, func(i, j int) bool {
		return notes[i].UpdatedAt.After(notes[j].UpdatedAt)
	})
}
