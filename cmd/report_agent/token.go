package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/ranking-reports/internal/config"
	"github.com/jonathan/ranking-reports/internal/server"
	"github.com/spf13/cobra"
)

var tokenOwner string

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token for an owner",
	Long:  `Sign a JWT with JWT_SECRET for local testing of the REST API.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ownerID, err := uuid.Parse(tokenOwner)
		if err != nil {
			return fmt.Errorf("invalid owner id: %w", err)
		}
		jwtConfig, err := config.NewJWTConfig()
		if err != nil {
			return err
		}
		token, err := server.NewJWTService(jwtConfig).GenerateToken(ownerID)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
		return err
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenOwner, "owner", "", "Owner ID the token is issued for (required)")
	_ = tokenCmd.MarkFlagRequired("owner")
	rootCmd.AddCommand(tokenCmd)
}
