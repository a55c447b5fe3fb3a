package rendering

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonathan/ranking-reports/internal/types"
	"github.com/xuri/excelize/v2"
)

// Sheet names of the XLSX workbook.
const (
	SheetSummary    = "Summary"
	SheetRanking    = "Ranking"
	SheetComparison = "Comparison"
)

// XLSXRenderer writes the report as an Excel workbook.
type XLSXRenderer struct {
	OutputDir string
}

// Render builds and stores the workbook.
func (x *XLSXRenderer) Render(ctx context.Context, r *types.Report) (Artifact, error) {
	if err := ctx.Err(); err != nil {
		return Artifact{}, &RenderError{Format: FormatXLSX, Message: "rendering cancelled", Cause: err}
	}
	data, err := BuildWorkbook(r)
	if err != nil {
		return Artifact{}, &RenderError{Format: FormatXLSX, Message: "failed to build workbook", Cause: err}
	}
	return writeArtifact(x.OutputDir, r, FormatXLSX, data)
}

// BuildWorkbook returns the XLSX bytes of the report.
func BuildWorkbook(r *types.Report) ([]byte, error) {
	if r == nil {
		return nil, ErrNilReport
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(SheetRanking); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, err
	}

	if err := writeSummarySheet(f, r, headerStyle); err != nil {
		return nil, fmt.Errorf("failed to create summary sheet: %w", err)
	}
	if err := writeRankingSheet(f, r, headerStyle); err != nil {
		return nil, fmt.Errorf("failed to create ranking sheet: %w", err)
	}
	if len(r.ComparisonMatrix) > 0 {
		if _, err := f.NewSheet(SheetComparison); err != nil {
			return nil, err
		}
		if err := writeComparisonSheet(f, r, headerStyle); err != nil {
			return nil, fmt.Errorf("failed to create comparison sheet: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values ...any) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}

func styleRow(f *excelize.File, sheet string, row, cols, style int) error {
	first, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(cols, row)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, first, last, style)
}

func writeSummarySheet(f *excelize.File, r *types.Report, headerStyle int) error {
	sheet := SheetSummary
	if err := f.SetColWidth(sheet, "A", "A", 24); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "B", "B", 80); err != nil {
		return err
	}

	rows := [][]any{
		{"Job", r.JobTitle},
		{"Report", r.ID.String()},
		{"Candidates", r.Statistics.CandidateCount},
		{"Average score", r.Statistics.AverageScore},
		{"Top candidates", r.Statistics.TopCandidates},
		{"Completion rate %", r.Statistics.CompletionRate},
	}
	if exec := r.ExecutiveSummary; exec != nil {
		rows = append(rows,
			[]any{"Best candidate", exec.BestCandidate.Name},
			[]any{"Best score", exec.BestCandidate.Score},
			[]any{"Primary reason", exec.PrimaryReason},
			[]any{"Secondary reasons", strings.Join(exec.SecondaryReasons, "; ")},
			[]any{"Final recommendation", exec.FinalRecommendation},
		)
	}
	for i, rec := range r.Recommendations {
		rows = append(rows, []any{fmt.Sprintf("Recommendation %d", i+1), rec})
	}

	if err := writeRow(f, sheet, 1, "Field", "Value"); err != nil {
		return err
	}
	if err := styleRow(f, sheet, 1, 2, headerStyle); err != nil {
		return err
	}
	for i, values := range rows {
		if err := writeRow(f, sheet, i+2, values...); err != nil {
			return err
		}
	}
	return nil
}

func writeRankingSheet(f *excelize.File, r *types.Report, headerStyle int) error {
	sheet := SheetRanking
	headers := []any{"Position", "Candidate", "Score", "Match %", "Years of experience",
		"Cultural fit %", "Key skills", "Strengths", "Growth areas", "Email", "Phone", "Location", "LinkedIn"}
	if err := writeRow(f, sheet, 1, headers...); err != nil {
		return err
	}
	if err := styleRow(f, sheet, 1, len(headers), headerStyle); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "B", "B", 25); err != nil {
		return err
	}

	for i, e := range DocumentEntries(r) {
		var score any = e.Score
		if !e.Scored {
			score = "n/a"
		}
		if err := writeRow(f, sheet, i+2,
			e.Position, e.Name, score, e.MatchPercentage, e.YearsExperience, e.CulturalFit,
			strings.Join(e.KeySkills, ", "), strings.Join(e.Strengths, ", "), strings.Join(e.GrowthAreas, ", "),
			e.Email, e.Phone, e.Location, e.LinkedInURL,
		); err != nil {
			return err
		}
	}
	return nil
}

func writeComparisonSheet(f *excelize.File, r *types.Report, headerStyle int) error {
	sheet := SheetComparison
	headers := []any{"Criterion"}
	for _, e := range r.TopEntries {
		headers = append(headers, e.Name)
	}
	if err := writeRow(f, sheet, 1, headers...); err != nil {
		return err
	}
	if err := styleRow(f, sheet, 1, len(headers), headerStyle); err != nil {
		return err
	}

	for i, row := range r.ComparisonMatrix {
		values := []any{row.Criterion}
		for _, v := range row.Values {
			values = append(values, v)
		}
		if err := writeRow(f, sheet, i+2, values...); err != nil {
			return err
		}
	}
	return nil
}
