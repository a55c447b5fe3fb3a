package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonathan/ranking-reports/internal/config"
	"github.com/jonathan/ranking-reports/internal/server"
	"github.com/jonathan/ranking-reports/internal/server/ratelimit"
	"github.com/spf13/cobra"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that accepts report requests and serves reports and their artifacts.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Port = servePort
	}

	jwtConfig, err := config.NewJWTConfig()
	if err != nil {
		return fmt.Errorf("failed to create JWT config: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	srv, err := server.New(server.Config{
		Port:      cfg.Port,
		RateLimit: rateLimitConfig(cfg.RateLimit),
	}, server.Deps{
		Service:  a.service,
		Jobs:     a.jobs,
		JWT:      server.NewJWTService(jwtConfig),
		Gatherer: a.registry,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start(ctx)
}

func rateLimitConfig(c config.RateLimitConfig) ratelimit.Config {
	rl := ratelimit.DefaultConfig()
	rl.Enabled = c.Enabled
	rl.Limit = c.Limit
	rl.Window = c.Window
	rl.Burst = c.Burst
	return rl
}

// commandContext returns the command context or Background when run outside cobra.
func commandContext(cmd *cobra.Command) context.Context {
	if cmd != nil && cmd.Context() != nil {
		return cmd.Context()
	}
	return context.Background()
}
