package rendering

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jonathan/ranking-reports/internal/types"
)

// Supported artifact formats.
const (
	FormatHTML = "html"
	FormatPDF  = "pdf"
	FormatXLSX = "xlsx"
)

// Artifact describes a rendered document.
type Artifact struct {
	Location    string
	Format      string
	ContentType string
}

// Renderer produces a durable document from a populated report.
type Renderer interface {
	Render(ctx context.Context, r *types.Report) (Artifact, error)
}

// Options configure the file-backed renderers.
type Options struct {
	OutputDir string
	// PDFTimeout bounds one headless browser session.
	PDFTimeout time.Duration
}

// New returns the renderer for format.
func New(format string, opts Options) (Renderer, error) {
	if opts.OutputDir == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	switch format {
	case FormatHTML:
		return &HTMLRenderer{OutputDir: opts.OutputDir}, nil
	case FormatPDF:
		return NewPDFRenderer(opts.OutputDir, opts.PDFTimeout), nil
	case FormatXLSX:
		return &XLSXRenderer{OutputDir: opts.OutputDir}, nil
	default:
		return nil, fmt.Errorf("unsupported report format %q", format)
	}
}

// ContentType returns the MIME type of an artifact format.
func ContentType(format string) string {
	switch format {
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatPDF:
		return "application/pdf"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}

func artifactPath(dir string, r *types.Report, format string) string {
	return filepath.Join(dir, fmt.Sprintf("report-%s.%s", r.ID, format))
}

// writeArtifact writes data next to its final path and renames it into place so
// readers never observe a partial document.
func writeArtifact(dir string, r *types.Report, format string, data []byte) (Artifact, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Artifact{}, &RenderError{Format: format, Message: "failed to create output directory", Cause: err}
	}

	final := artifactPath(dir, r, format)
	tmp, err := os.CreateTemp(dir, ".report-*.tmp")
	if err != nil {
		return Artifact{}, &RenderError{Format: format, Message: "failed to create temp file", Cause: err}
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return Artifact{}, &RenderError{Format: format, Message: "failed to write artifact", Cause: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return Artifact{}, &RenderError{Format: format, Message: "failed to close artifact", Cause: err}
	}
	if err := os.Rename(tmpName, final); err != nil {
		os.Remove(tmpName)
		return Artifact{}, &RenderError{Format: format, Message: "failed to move artifact into place", Cause: err}
	}

	return Artifact{Location: final, Format: format, ContentType: ContentType(format)}, nil
}

// HTMLRenderer writes the HTML document to OutputDir.
type HTMLRenderer struct {
	OutputDir string
}

// Render builds and stores the HTML document.
func (h *HTMLRenderer) Render(ctx context.Context, r *types.Report) (Artifact, error) {
	if err := ctx.Err(); err != nil {
		return Artifact{}, &RenderError{Format: FormatHTML, Message: "rendering cancelled", Cause: err}
	}
	doc, err := BuildHTML(r)
	if err != nil {
		return Artifact{}, &RenderError{Format: FormatHTML, Message: "failed to build document", Cause: err}
	}
	return writeArtifact(h.OutputDir, r, FormatHTML, []byte(doc))
}
