package rendering

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"math"
	"strings"

	"github.com/jonathan/ranking-reports/internal/types"
)

//go:embed templates/report.html.tmpl
var reportTemplate string

var documentTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"num":  FormatNumber,
	"join": func(items []string) string { return strings.Join(items, ", ") },
	"date": func(r *types.Report) string {
		if r.StartedAt != nil {
			return r.StartedAt.Format("2006-01-02 15:04 MST")
		}
		return r.CreatedAt.Format("2006-01-02 15:04 MST")
	},
}).Parse(reportTemplate))

// documentData is what the report template renders.
type documentData struct {
	Report     *types.Report
	Entries    []types.CandidateRankEntry
	TopNames   []string
	FullList   bool
	Statistics types.Statistics
}

// DocumentEntries returns the ranking entries a document lists: the full ranking
// when the report was requested with IncludeAll, otherwise only the top entries.
func DocumentEntries(r *types.Report) []types.CandidateRankEntry {
	if r.IncludeAll {
		return r.Ranking
	}
	return r.TopEntries
}

// BuildHTML renders the report as a standalone HTML document.
func BuildHTML(r *types.Report) (string, error) {
	if r == nil {
		return "", ErrNilReport
	}

	names := make([]string, 0, len(r.TopEntries))
	for _, e := range r.TopEntries {
		names = append(names, e.Name)
	}

	var buf bytes.Buffer
	err := documentTemplate.Execute(&buf, documentData{
		Report:     r,
		Entries:    DocumentEntries(r),
		TopNames:   names,
		FullList:   r.IncludeAll,
		Statistics: r.Statistics,
	})
	if err != nil {
		return "", &TemplateError{ReportID: r.ID, Cause: err}
	}
	return buf.String(), nil
}

// FormatNumber prints whole numbers without decimals and others with two.
func FormatNumber(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.2f", v)
}
