package rendering

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/jonathan/ranking-reports/internal/types"
)

// DefaultPDFTimeout bounds a headless browser print when none is configured.
const DefaultPDFTimeout = 60 * time.Second

// PrintFunc converts an HTML document to PDF bytes.
type PrintFunc func(ctx context.Context, html string, timeout time.Duration) ([]byte, error)

// PDFRenderer prints the HTML document to PDF with headless Chrome.
// Requires Chrome/Chromium to be installed on the system.
type PDFRenderer struct {
	OutputDir string
	Timeout   time.Duration
	Print     PrintFunc
}

// NewPDFRenderer creates a renderer that prints with chromedp.
func NewPDFRenderer(outputDir string, timeout time.Duration) *PDFRenderer {
	if timeout <= 0 {
		timeout = DefaultPDFTimeout
	}
	return &PDFRenderer{OutputDir: outputDir, Timeout: timeout, Print: PrintWithChrome}
}

// Render builds the HTML document, prints it and stores the PDF.
func (p *PDFRenderer) Render(ctx context.Context, r *types.Report) (Artifact, error) {
	doc, err := BuildHTML(r)
	if err != nil {
		return Artifact{}, &RenderError{Format: FormatPDF, Message: "failed to build document", Cause: err}
	}

	printFn := p.Print
	if printFn == nil {
		printFn = PrintWithChrome
	}
	data, err := printFn(ctx, doc, p.Timeout)
	if err != nil {
		return Artifact{}, &RenderError{Format: FormatPDF, Message: "failed to print document", Cause: err}
	}
	if len(data) == 0 {
		return Artifact{}, &RenderError{Format: FormatPDF, Message: "printer returned an empty document"}
	}
	return writeArtifact(p.OutputDir, r, FormatPDF, data)
}

// PrintWithChrome loads html into a blank headless Chrome page and prints it.
func PrintWithChrome(ctx context.Context, html string, timeout time.Duration) ([]byte, error) {
	allocCtx, cancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)...,
	)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, timeout)
	defer cancel()

	var pdf []byte
	err := chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
		}),
		chromedp.WaitReady("body"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			data, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPreferCSSPageSize(true).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = data
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("browser printing failed: %w", err)
	}

	log.Printf("[RENDER] Printed PDF: %d bytes", len(pdf))
	return pdf, nil
}
