package main

import (
	"context"
	"fmt"
	"io"

	"github.com/jonathan/ranking-reports/internal/config"
	"github.com/jonathan/ranking-reports/internal/db"
	"github.com/jonathan/ranking-reports/internal/jobsource"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed <jobs-file>",
	Short: "Load jobs and applications from a file into PostgreSQL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required")
		}
		ctx := commandContext(cmd)
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer database.Close()
		return seed(ctx, cmd.OutOrStdout(), database, args[0])
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func seed(ctx context.Context, out io.Writer, database *db.DB, path string) error {
	src, err := jobsource.LoadFile(path)
	if err != nil {
		return err
	}
	if err := database.EnsureSchema(ctx); err != nil {
		return err
	}

	for _, job := range src.Jobs() {
		if err := database.UpsertJob(ctx, &job); err != nil {
			return err
		}
		apps, err := src.ListApplications(ctx, job.ID)
		if err != nil {
			return err
		}
		for i := range apps {
			if err := database.InsertApplication(ctx, &apps[i]); err != nil {
				return err
			}
		}
		_, _ = fmt.Fprintf(out, "%s  %-30s %d applications\n", job.ID, job.Title, len(apps))
	}
	return nil
}
