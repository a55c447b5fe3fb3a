package rendering

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestNew(t *testing.T) {
	dir := t.TempDir()

	for format, want := range map[string]any{
		FormatHTML: &HTMLRenderer{},
		FormatPDF:  &PDFRenderer{},
		FormatXLSX: &XLSXRenderer{},
	} {
		r, err := New(format, Options{OutputDir: dir})
		require.NoError(t, err, format)
		assert.IsType(t, want, r)
	}

	_, err := New("docx", Options{OutputDir: dir})
	assert.Error(t, err)
	_, err = New(FormatHTML, Options{})
	assert.Error(t, err)
}

func TestHTMLRenderer_WritesArtifact(t *testing.T) {
	dir := t.TempDir()
	r := sampleReport()

	artifact, err := (&HTMLRenderer{OutputDir: dir}).Render(context.Background(), r)
	require.NoError(t, err)

	assert.Equal(t, FormatHTML, artifact.Format)
	assert.Equal(t, "text/html; charset=utf-8", artifact.ContentType)
	assert.Equal(t, filepath.Join(dir, "report-"+r.ID.String()+".html"), artifact.Location)

	data, err := os.ReadFile(artifact.Location)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Ranking report: Backend Engineer")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files are left behind")
}

func TestHTMLRenderer_Failures(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	_, err := (&HTMLRenderer{OutputDir: blocker}).Render(context.Background(), sampleReport())
	var renderErr *RenderError
	require.ErrorAs(t, err, &renderErr)
	assert.Equal(t, FormatHTML, renderErr.Format)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = (&HTMLRenderer{OutputDir: t.TempDir()}).Render(ctx, sampleReport())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPDFRenderer_UsesPrinter(t *testing.T) {
	dir := t.TempDir()
	var printed string
	renderer := &PDFRenderer{
		OutputDir: dir,
		Timeout:   time.Second,
		Print: func(_ context.Context, html string, timeout time.Duration) ([]byte, error) {
			printed = html
			assert.Equal(t, time.Second, timeout)
			return []byte("%PDF-1.4 fake"), nil
		},
	}

	artifact, err := renderer.Render(context.Background(), sampleReport())
	require.NoError(t, err)

	assert.Contains(t, printed, "<title>Ranking report: Backend Engineer</title>")
	assert.Equal(t, "application/pdf", artifact.ContentType)
	data, err := os.ReadFile(artifact.Location)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestPDFRenderer_PrinterFailures(t *testing.T) {
	dir := t.TempDir()
	boom := errors.New("chrome not found")

	failing := &PDFRenderer{OutputDir: dir, Print: func(context.Context, string, time.Duration) ([]byte, error) {
		return nil, boom
	}}
	_, err := failing.Render(context.Background(), sampleReport())
	var renderErr *RenderError
	require.ErrorAs(t, err, &renderErr)
	assert.ErrorIs(t, err, boom)

	empty := &PDFRenderer{OutputDir: dir, Print: func(context.Context, string, time.Duration) ([]byte, error) {
		return nil, nil
	}}
	_, err = empty.Render(context.Background(), sampleReport())
	assert.ErrorAs(t, err, &renderErr)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPrintWithChrome(t *testing.T) {
	found := false
	for _, name := range []string{"google-chrome", "chromium", "chromium-browser", "headless-shell"} {
		if _, err := exec.LookPath(name); err == nil {
			found = true
			break
		}
	}
	if !found {
		t.Skip("Chrome not installed, skipping browser test")
	}

	html, err := BuildHTML(sampleReport())
	require.NoError(t, err)

	pdf, err := PrintWithChrome(context.Background(), html, 30*time.Second)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
}

func TestXLSXRenderer_Workbook(t *testing.T) {
	dir := t.TempDir()
	r := sampleReport()
	r.IncludeAll = true

	artifact, err := (&XLSXRenderer{OutputDir: dir}).Render(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, artifact.Format)

	f, err := excelize.OpenFile(artifact.Location)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetSummary, SheetRanking, SheetComparison}, f.GetSheetList())

	ranking, err := f.GetRows(SheetRanking)
	require.NoError(t, err)
	require.Len(t, ranking, 5, "header plus every candidate")
	assert.Equal(t, "Candidate", ranking[0][1])
	assert.Equal(t, "Ana", ranking[1][1])
	assert.Equal(t, "Pablo", ranking[4][1])

	comparison, err := f.GetRows(SheetComparison)
	require.NoError(t, err)
	require.Len(t, comparison, 6)
	assert.Equal(t, []string{"Criterion", "Ana", "Luis", "Marta"}, comparison[0])
	assert.Equal(t, "IA score", comparison[1][0])

	summary, err := f.GetRows(SheetSummary)
	require.NoError(t, err)
	assert.Equal(t, []string{"Job", "Backend Engineer"}, summary[1])
}

func TestBuildWorkbook_TopOnlyWithoutMatrix(t *testing.T) {
	r := sampleReport()
	r.ComparisonMatrix = nil
	r.ExecutiveSummary = nil

	data, err := BuildWorkbook(r)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetSummary, SheetRanking}, f.GetSheetList())
	rows, err := f.GetRows(SheetRanking)
	require.NoError(t, err)
	assert.Len(t, rows, 4)

	_, err = BuildWorkbook(nil)
	assert.ErrorIs(t, err, ErrNilReport)
}

func TestRenderError(t *testing.T) {
	cause := errors.New("disk full")
	err := &RenderError{Format: FormatPDF, Message: "failed to write", Cause: cause}
	assert.Equal(t, "rendering pdf failed: failed to write: disk full", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "rendering failed: boom", (&RenderError{Message: "boom"}).Error())
	assert.Equal(t, "rendering xlsx failed: context canceled", (&RenderError{Format: FormatXLSX, Cause: context.Canceled}).Error())
}
