// Package assets embeds the default module catalog, weekly timetable,
// welcome note and HTML document template. Each can be replaced by a file
// on disk; the embedded copy is used when the file is missing or unusable.
package assets

import (
	_ "embed"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

var (
	//go:embed catalog/modules.yml
	fallbackModules []byte
	//go:embed catalog/timetable.yml
	fallbackTimetable []byte
	//go:embed notes/welcome.md
	welcomeNote string
	//go:embed templates/note-document.html.go.tmpl
	fallbackDocumentTemplate string
)

const documentTemplateName = "note-document.html.go.tmpl"

// ReadModules returns the module catalog YAML at path, or the embedded catalog.
func ReadModules(path string) []byte {
	return readWithFallback(path, fallbackModules)
}

// ReadTimetable returns the timetable YAML at path, or the embedded timetable.
func ReadTimetable(path string) []byte {
	return readWithFallback(path, fallbackTimetable)
}

// WelcomeNote is the Markdown content of the note seeded into an empty collection.
func WelcomeNote() string {
	return welcomeNote
}

// ParseDocumentTemplate parses the standalone note document template.
func ParseDocumentTemplate(templatePath string) (*template.Template, error) {
	funcMap := template.FuncMap{
		"join": strings.Join,
	}

	if templatePath != "" {
		if _, err := os.Stat(templatePath); err == nil {
			tmpl, err := template.New(filepath.Base(templatePath)).
				Funcs(funcMap).
				ParseFiles(templatePath)
			if err == nil {
				return tmpl, nil
			}
			slog.Default().Warn("failed to parse a templatePath",
				slog.String("templatePath", templatePath),
				slog.Any("error", err),
			)
		}
	}

	tmpl, err := template.New(documentTemplateName).
		Funcs(funcMap).
		Parse(fallbackDocumentTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded template: %w", err)
	}
	return tmpl, nil
}

func readWithFallback(path string, fallback []byte) []byte {
	if path == "" {
		return fallback
	}
	content, err := os.ReadFile(path)
	if err != nil {
		slog.Default().Warn("failed to read a file, using the embedded default",
			slog.String("path", path),
			slog.Any("error", err),
		)
		return fallback
	}
	return content
}
