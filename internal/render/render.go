// Package render turns note Markdown with $...$ and $$...$$ math into
// sanitized HTML. Math is emitted with \( \) and \[ \] delimiters for
// client-side typesetting.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"html/template"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/russross/blackfriday/v2"

	"github.com/at-ishikawa/studydesk/internal/assets"
	"github.com/at-ishikawa/studydesk/internal/settings"
)

var ErrEmptyMarkdown = errors.New("markdown must not be empty")

const extensions = blackfriday.CommonExtensions |
	blackfriday.Footnotes |
	blackfriday.AutoHeadingIDs

var mathTags = []string{
	"math", "annotation", "semantics", "mrow", "mi", "mn", "mo", "ms",
	"mfrac", "msup", "msub", "msubsup", "mtable", "mtr", "mtd", "mspace",
	"mfenced", "mstyle", "menclose",
}


type Renderer struct {
	policy   *bluemonday.Policy
	document *template.Template
}

// NewRenderer loads the document template from templatePath, falling back to
// the embedded one.
func NewRenderer(templatePath string) (*Renderer, error) {
	document, err := assets.ParseDocumentTemplate(templatePath)
	if err != nil {
		return nil, fmt.Errorf("assets.ParseDocumentTemplate() > %w", err)
	}
	return &Renderer{
		policy:   newPolicy(),
		document: document,
	}, nil
}

func newPolicy() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class").Globally()
	policy.AllowStyles("color", "background-color", "text-align", "font-weight", "font-style").Globally()
	policy.AllowElements(mathTags...)
	policy.AllowAttrs("display", "xmlns").OnElements("math")
	policy.AllowAttrs("encoding").OnElements("annotation")
	return policy
}

// Render converts markdown into sanitized HTML.
func (r *Renderer) Render(markdown string) (string, error) {
	if strings.TrimSpace(markdown) == "" {
		return "", ErrEmptyMarkdown
	}

	// the placeholder prefix never occurs in the note itself
	prefix := "STUDYDESKMATH" + placeholderNonce(markdown)
	placeholder := regexp.MustCompile(prefix + `(\d+)X`)
	paragraphPlaceholder := regexp.MustCompile(`<p>` + prefix + `(\d+)X</p>`)

	var spans []string
	protected := ReplaceMath(markdown, func(tex string, display bool) string {
		spans = append(spans, mathHTML(tex, display))
		token := fmt.Sprintf("%s%dX", prefix, len(spans)-1)
		if display {
			return "\n\n" + token + "\n\n"
		}
		return token
	})

	rendered := string(blackfriday.Run([]byte(protected), blackfriday.WithExtensions(extensions)))
	restored := paragraphPlaceholder.ReplaceAllStringFunc(rendered, func(match string) string {
		span, ok := lookupSpan(spans, paragraphPlaceholder.FindStringSubmatch(match)[1])
		if !ok {
			return match
		}
		if strings.HasPrefix(span, "<div") {
			return span
		}
		return "<p>" + span + "</p>"
	})
	restored = placeholder.ReplaceAllStringFunc(restored, func(match string) string {
		span, ok := lookupSpan(spans, placeholder.FindStringSubmatch(match)[1])
		if !ok {
			return match
		}
		return span
	})

	return strings.TrimSpace(r.policy.Sanitize(restored)), nil
}

// Meta describes the note wrapped by Document.
type Meta struct {
	Title     string
	Module    string
	Color     string
	Tags      []string
	FontScale settings.FontScale
}

// Document renders markdown into a standalone HTML page that typesets math
// once loaded in a browser.
func (r *Renderer) Document(meta Meta, markdown string) (string, error) {
	body, err := r.Render(markdown)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := r.document.Execute(&buf, struct {
		Title    string
		Module   string
		Color    string
		FontSize string
		Tags     []string
		Body     template.HTML
	}{
		Title:    meta.Title,
		Module:   meta.Module,
		Color:    meta.Color,
		FontSize: meta.FontScale.CSSSize(),
		Tags:     meta.Tags,
		// body has been sanitized by Render
		Body: template.HTML(body),
	}); err != nil {
		return "", fmt.Errorf("template.Execute() > %w", err)
	}
	return buf.String(), nil
}

// placeholderNonce returns a random hex string that does not occur in text.
func placeholderNonce(text string) string {
	for {
		nonce := strings.ReplaceAll(uuid.NewString(), "-", "")
		if !strings.Contains(text, nonce) {
			return nonce
		}
	}
}

func lookupSpan(spans []string, index string) (string, bool) {
	i, err := strconv.Atoi(index)
	if err != nil || i >= len(spans) {
		return "", false
	}
	return spans[i], true
}

func mathHTML(tex string, display bool) string {
	if display {
		return `<div class="math math-display">\[` + html.EscapeString(tex) + `\]</div>`
	}
	return `<span class="math math-inline">\(` + html.EscapeString(tex) + `\)</span>`
}
