// Package observability provides formatted report output for the CLI.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/ranking-reports/internal/rendering"
	"github.com/jonathan/ranking-reports/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 64
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	inner := boxWidth - 4
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %s │\n", pad(title, inner))
	fmt.Fprintf(p.out, "├%s┤\n", border)
	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %s │\n", pad(truncate(line, inner), inner))
	}
	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-3]) + "..."
}

func pad(s string, n int) string {
	if c := utf8.RuneCountInString(s); c < n {
		return s + strings.Repeat(" ", n-c)
	}
	return s
}

// PrintReport outputs every section of a report.
func (p *Printer) PrintReport(r *types.Report) {
	if r == nil {
		return
	}
	p.PrintStatus(r)
	if r.State != types.ReportCompleted {
		return
	}
	p.PrintExecutiveSummary(r.ExecutiveSummary)
	p.PrintRanking(r)
	p.PrintStatistics(r.Statistics)
	p.PrintRecommendations(r.Recommendations)
}

// PrintStatus outputs the identity and lifecycle of a report.
func (p *Printer) PrintStatus(r *types.Report) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Report:   %s\n", r.ID))
	sb.WriteString(fmt.Sprintf("Job:      %s\n", r.JobTitle))
	sb.WriteString(fmt.Sprintf("State:    %s\n", r.State))
	if r.CompletedAt != nil && r.StartedAt != nil {
		sb.WriteString(fmt.Sprintf("Took:     %s\n", r.CompletedAt.Sub(*r.StartedAt).Round(1e6)))
	}
	switch r.State {
	case types.ReportCompleted:
		sb.WriteString(fmt.Sprintf("Artifact: %s (%s)", r.ArtifactLocation, r.ArtifactFormat))
	case types.ReportFailed:
		sb.WriteString(fmt.Sprintf("Reason:   %s", r.FailureReason))
	}
	p.printBox("RANKING REPORT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintExecutiveSummary outputs the best candidate and the reasons behind it.
func (p *Printer) PrintExecutiveSummary(exec *types.ExecutiveSummary) {
	if exec == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Best candidate: %s (%s/100)\n\n",
		exec.BestCandidate.Name, rendering.FormatNumber(exec.BestCandidate.Score)))
	for _, reason := range exec.SecondaryReasons {
		sb.WriteString(fmt.Sprintf("  • %s\n", reason))
	}
	sb.WriteString("\n")
	sb.WriteString(exec.FinalRecommendation)

	p.printBox("EXECUTIVE SUMMARY", sb.String())
}

// PrintRanking outputs the leading entries of the ranking.
func (p *Printer) PrintRanking(r *types.Report) {
	if len(r.Ranking) == 0 {
		return
	}

	var sb strings.Builder
	count := min(len(r.Ranking), maxItemsToShow)
	for i := 0; i < count; i++ {
		e := r.Ranking[i]
		sb.WriteString(fmt.Sprintf("#%d  %-30s %6s\n", e.Position, truncate(e.Name, 30), rendering.FormatNumber(e.Score)))
		if len(e.KeySkills) > 0 {
			sb.WriteString(fmt.Sprintf("    Skills: %s\n", strings.Join(e.KeySkills, ", ")))
		}
	}
	if len(r.Ranking) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("... and %d more candidates", len(r.Ranking)-maxItemsToShow))
	}

	p.printBox("CANDIDATE RANKING", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintStatistics outputs aggregate figures over all applications.
func (p *Printer) PrintStatistics(stats types.Statistics) {
	content := fmt.Sprintf("Candidates:      %d\nAverage score:   %s\nTop candidates:  %d\nCompletion rate: %s%%",
		stats.CandidateCount,
		rendering.FormatNumber(stats.AverageScore),
		stats.TopCandidates,
		rendering.FormatNumber(stats.CompletionRate))
	p.printBox("STATISTICS", content)
}

// PrintRecommendations outputs the recommended next steps.
func (p *Printer) PrintRecommendations(recs []string) {
	if len(recs) == 0 {
		return
	}
	var sb strings.Builder
	for i, rec := range recs {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, rec))
	}
	p.printBox("RECOMMENDATIONS", strings.TrimSuffix(sb.String(), "\n"))
}
