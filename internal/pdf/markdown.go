package pdf

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/mandolyte/mdtopdf"

	"github.com/at-ishikawa/studydesk/internal/render"
)

// boldPattern matches **bold** text in markdown
var boldPattern = regexp.MustCompile(`\*\*([^*]+)\*\*`)

// MarkdownExporter lays out the Markdown source directly. Math cannot be
// typeset, so it is kept as code.
type MarkdownExporter struct {
	directory string
}

func NewMarkdownExporter(directory string) *MarkdownExporter {
	return &MarkdownExporter{directory: directory}
}

func (e *MarkdownExporter) Export(_ context.Context, doc Document) (string, error) {
	pdfPath := outputPath(e.directory, doc.Note)

	renderer := mdtopdf.NewPdfRenderer("P", "A4", pdfPath, "", nil, mdtopdf.LIGHT)
	renderer.UpdateBlockquoteStyler()
	if err := renderer.Process(markdownSource(doc)); err != nil {
		return "", fmt.Errorf("renderer.Process() > %w", err)
	}
	return pdfPath, nil
}

func markdownSource(doc Document) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", doc.Note.Title)

	var meta []string
	if doc.ModuleName != "" {
		meta = append(meta, doc.ModuleName)
	}
	for _, tag := range doc.Note.Tags {
		meta = append(meta, "#"+tag)
	}
	if len(meta) > 0 {
		fmt.Fprintf(&b, "*%s*\n\n", strings.Join(meta, " | "))
	}

	b.WriteString(render.ReplaceMath(doc.Note.Content, func(tex string, display bool) string {
		if display {
			return "\n\n```\n" + tex + "\n```\n\n"
		}
		return "`" + tex + "`"
	}))
	b.WriteString("\n")

	return convertBoldToItalicInBlockquotes([]byte(b.String()))
}

// convertBoldToItalicInBlockquotes removes **bold** markers in blockquote lines
// mdtopdf's blockquote multiCell doesn't handle inline bold properly
// Blockquotes are already rendered in italic, so the text remains styled
func convertBoldToItalicInBlockquotes(content []byte) []byte {
	lines := strings.Split(string(content), "\n")

	for i, line := range lines {
		if strings.HasPrefix(line, "> ") {
			lines[i] = boldPattern.ReplaceAllString(line, "$1")
		}
	}
	return []byte(strings.Join(lines, "\n"))
}
