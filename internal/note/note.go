// Package note provides the note domain model and the store that owns the
// note collection.
package note

import (
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/at-ishikawa/studydesk/internal/module"
)

// DefaultTitle is used for notes created without a title.
const DefaultTitle = "New note"

// Note is a Markdown+math document assigned to a module.
type Note struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	Module    module.Slug `json:"module"`
	Tags      []string    `json:"tags"`
	Content   string      `json:"content"`
	UpdatedAt time.Time   `json:"updatedAt"`
	CreatedAt time.Time   `json:"createdAt"`
}

// Draft holds the fields of a new note. Empty fields get defaults.
type Draft struct {
	Title   string
	Module  module.Slug
	Tags    []string
	Content string
}

// NewNoteID returns a fresh "note-<uuid>" identifier.
func NewNoteID() string {
	return "note-" + uuid.NewString()
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9-_]+`)

// ExportFilename is the PDF file name of n: the UTC date of its last update
// followed by its title with every run of unsafe characters replaced by "-".
func ExportFilename(n Note) string {
	return n.UpdatedAt.UTC().Format("2006-01-02") + "-" + unsafeFilenameChars.ReplaceAllString(n.Title, "-") + ".pdf"
}

func (n Note) clone() Note {
	if n.Tags != nil {
		n.Tags = append([]string{}, n.Tags...)
	}
	return n
}
