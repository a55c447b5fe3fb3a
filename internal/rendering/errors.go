// Package rendering turns a populated ranking report into a durable document.
package rendering

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrNilReport is returned when a renderer is handed no report.
var ErrNilReport = errors.New("no report to render")

// TemplateError is a failure executing the HTML document template for a report.
type TemplateError struct {
	ReportID uuid.UUID
	Cause    error
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("document template failed for report %s: %v", e.ReportID, e.Cause)
}

func (e *TemplateError) Unwrap() error {
	return e.Cause
}

// RenderError is a failure producing the artifact of one output format.
// Message names the step that failed.
type RenderError struct {
	Format  string
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	var b strings.Builder
	b.WriteString("rendering")
	if e.Format != "" {
		b.WriteString(" " + e.Format)
	}
	b.WriteString(" failed")
	for _, part := range []string{e.Message, causeText(e.Cause)} {
		if part != "" {
			b.WriteString(": " + part)
		}
	}
	return b.String()
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

func causeText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
