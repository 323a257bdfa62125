// Package pdf exports notes as A4 portrait PDF files.
package pdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/at-ishikawa/studydesk/internal/config"
	"github.com/at-ishikawa/studydesk/internal/note"
	"github.com/at-ishikawa/studydesk/internal/render"
	"github.com/at-ishikawa/studydesk/internal/settings"
)

const (
	EngineMarkdown = "markdown"
	EngineChromium = "chromium"
)

// Document is a note together with how it should be presented.
type Document struct {
	Note       note.Note
	ModuleName string
	Color      string
	FontScale  settings.FontScale
}

// Exporter writes a Document as a PDF and returns the absolute path.
type Exporter interface {
	Export(ctx context.Context, doc Document) (string, error)
}

// NewExporter selects the exporter named by cfg.Engine.
func NewExporter(cfg config.PDFConfig, renderer *render.Renderer) (Exporter, error) {
	if err := os.MkdirAll(cfg.OutputDirectory, 0755); err != nil {
		return nil, fmt.Errorf("os.MkdirAll(%s) > %w", cfg.OutputDirectory, err)
	}

	switch cfg.Engine {
	case EngineMarkdown, "":
		return NewMarkdownExporter(cfg.OutputDirectory), nil
	case EngineChromium:
		return NewChromiumExporter(cfg.OutputDirectory, renderer, time.Duration(cfg.TimeoutSeconds)*time.Second), nil
	default:
		return nil, fmt.Errorf("unsupported pdf engine %q", cfg.Engine)
	}
}

func outputPath(directory string, n note.Note) string {
	path := filepath.Join(directory, note.ExportFilename(n))
	if absPath, err := filepath.Abs(path); err == nil {
		return absPath
	}
	return path
}
