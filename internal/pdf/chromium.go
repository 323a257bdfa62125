package pdf

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/at-ishikawa/studydesk/internal/render"
)

// A4 portrait with 0.6 cm margins, in inches.
const (
	paperWidthInches  = 8.27
	paperHeightInches = 11.69
	marginInches      = 0.6 / 2.54

	defaultTimeout = 30 * time.Second
	// typesetDelay gives the math typesetting script time to run.
	typesetDelay = 750 * time.Millisecond
)

// ChromiumExporter prints the rendered HTML document with headless Chromium,
// so math is typeset the same way as in a browser.
type ChromiumExporter struct {
	directory string
	renderer  *render.Renderer
	timeout   time.Duration
}

func NewChromiumExporter(directory string, renderer *render.Renderer, timeout time.Duration) *ChromiumExporter {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &ChromiumExporter{
		directory: directory,
		renderer:  renderer,
		timeout:   timeout,
	}
}

func (e *ChromiumExporter) Export(parentCtx context.Context, doc Document) (string, error) {
	html, err := e.renderer.Document(render.Meta{
		Title:     doc.Note.Title,
		Module:    doc.ModuleName,
		Color:     doc.Color,
		Tags:      doc.Note.Tags,
		FontScale: doc.FontScale,
	}, doc.Note.Content)
	if err != nil {
		return "", fmt.Errorf("renderer.Document() > %w", err)
	}

	ctx, cancel := chromedp.NewContext(parentCtx)
	defer cancel()
	ctx, timeoutCancel := context.WithTimeout(ctx, e.timeout)
	defer timeoutCancel()

	var content []byte
	tasks := chromedp.Tasks{
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return fmt.Errorf("page.GetFrameTree() > %w", err)
			}
			return page.SetDocumentContent(frameTree.Frame.ID, html).Do(ctx)
		}),
		chromedp.Sleep(typesetDelay),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(paperWidthInches).
				WithPaperHeight(paperHeightInches).
				WithMarginTop(marginInches).
				WithMarginBottom(marginInches).
				WithMarginLeft(marginInches).
				WithMarginRight(marginInches).
				Do(ctx)
			if err != nil {
				return fmt.Errorf("page.PrintToPDF() > %w", err)
			}
			content = buf
			return nil
		}),
	}
	if err := chromedp.Run(ctx, tasks); err != nil {
		return "", fmt.Errorf("chromedp.Run() > %w", err)
	}

	pdfPath := outputPath(e.directory, doc.Note)
	if err := os.WriteFile(pdfPath, content, 0644); err != nil {
		return "", fmt.Errorf("os.WriteFile(%s) > %w", pdfPath, err)
	}
	return pdfPath, nil
}
