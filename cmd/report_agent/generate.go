package main

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/jonathan/ranking-reports/internal/config"
	"github.com/jonathan/ranking-reports/internal/observability"
	"github.com/jonathan/ranking-reports/internal/pipeline"
	"github.com/jonathan/ranking-reports/internal/types"
	"github.com/spf13/cobra"
)

type generateOptions struct {
	JobID      string
	OwnerID    string
	Format     string
	OutputDir  string
	IncludeAll bool
	Verbose    bool
}

var genOpts generateOptions

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate one report and print it",
	Long:  `Run the report pipeline for a closed job in the foreground, then print the report summary.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		_, err = runGenerate(commandContext(cmd), cmd.OutOrStdout(), cfg, genOpts)
		return err
	},
}

func init() {
	generateCmd.Flags().StringVar(&genOpts.JobID, "job", "", "Job ID (required)")
	generateCmd.Flags().StringVar(&genOpts.OwnerID, "owner", "", "Requesting owner ID (defaults to the job owner)")
	generateCmd.Flags().StringVar(&genOpts.Format, "format", "", "Artifact format: html, pdf or xlsx (overrides config)")
	generateCmd.Flags().StringVar(&genOpts.OutputDir, "out", "", "Artifact output directory (overrides config)")
	generateCmd.Flags().BoolVar(&genOpts.IncludeAll, "include-all", false, "Include every candidate in the document")
	generateCmd.Flags().BoolVarP(&genOpts.Verbose, "verbose", "v", false, "Print pipeline progress")
	_ = generateCmd.MarkFlagRequired("job")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(ctx context.Context, out io.Writer, cfg *config.Config, opts generateOptions) (*types.Report, error) {
	if opts.Format != "" {
		cfg.Report.Format = opts.Format
	}
	if opts.OutputDir != "" {
		cfg.Report.OutputDir = opts.OutputDir
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var onProgress pipeline.ProgressCallback
	if opts.Verbose {
		onProgress = func(e pipeline.ProgressEvent) {
			_, _ = fmt.Fprintf(out, "[%s] %-11s %s\n", e.At.Format("15:04:05.000"), e.Step, e.Message)
		}
	}

	a, err := buildApp(ctx, cfg, onProgress)
	if err != nil {
		return nil, err
	}
	defer a.Close()

	jobID, err := uuid.Parse(opts.JobID)
	if err != nil {
		return nil, fmt.Errorf("invalid job id: %w", err)
	}
	owner := uuid.Nil
	if opts.OwnerID != "" {
		if owner, err = uuid.Parse(opts.OwnerID); err != nil {
			return nil, fmt.Errorf("invalid owner id: %w", err)
		}
	} else {
		job, err := a.jobs.FindJob(ctx, jobID)
		if err != nil {
			return nil, err
		}
		owner = job.OwnerID
	}

	report, err := a.service.Request(ctx, owner, types.GenerateReportRequest{
		JobID:      jobID.String(),
		IncludeAll: opts.IncludeAll,
	})
	if err != nil {
		return nil, err
	}
	a.service.Wait()

	report, err = a.service.Store().Get(ctx, report.ID)
	if err != nil {
		return nil, err
	}
	observability.NewPrinter(out).PrintReport(report)

	if report.State == types.ReportFailed {
		return report, fmt.Errorf("report %s failed: %s", report.ID, report.FailureReason)
	}
	return report, nil
}
