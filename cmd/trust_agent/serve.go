package main

import (
	"fmt"
	"log/slog"

	"github.com/jonathan/trustcheck/internal/server"
	"github.com/jonathan/trustcheck/internal/server/ratelimit"
	"github.com/spf13/cobra"
)

var (
	servePort     int
	serveValidate bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes verification, history and admin endpoints.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
	serveCmd.Flags().BoolVar(&serveValidate, "validate-responses", false, "Check every result against the published JSON schema")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	rt, err := newRuntime(cmd.Context(), appConfig)
	if err != nil {
		return err
	}
	defer rt.Close() //nolint:errcheck

	passwords, err := appConfig.Password()
	if err != nil {
		return fmt.Errorf("failed to create password config: %w", err)
	}

	cfg := server.Config{
		Port:              servePort,
		Engine:            rt.engine,
		History:           rt.history,
		Password:          passwords,
		AdminPasswordHash: appConfig.AdminPasswordHash,
		RateLimit:         ratelimit.LoadConfig(getenv),
		ValidateResponses: serveValidate,
	}

	if appConfig.AdminPasswordHash != "" {
		jwtConfig, err := appConfig.JWT()
		if err != nil {
			return fmt.Errorf("admin login is configured but JWT is not: %w", err)
		}
		cfg.JWT = jwtConfig
	} else {
		slog.Warn("[Setup] ADMIN_PASSWORD_HASH not set, admin endpoints are disabled")
	}

	srv, err := server.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}
