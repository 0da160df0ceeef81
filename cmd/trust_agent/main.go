// Package main provides the trust_agent CLI and HTTP API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/jonathan/trustcheck/internal/config"
	"github.com/jonathan/trustcheck/internal/logging"
	"github.com/spf13/cobra"
)

var (
	configPath      string
	flagProvider    string
	flagHistory     string
	flagLogLevel    string
	flagLogFormat   string
	flagUseBrowser  bool
	flagClaimQuota  int
	flagAuthorities string

	// appConfig is resolved once per invocation before any command runs
	appConfig config.Config
)

var rootCmd = &cobra.Command{
	Use:   "trust_agent",
	Short: "Content verification and trust scoring",
	Long: "trust_agent checks text or web pages against sanity rules, cited evidence and " +
		"independent analyses, and reports a 0-100 trust score.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		appConfig = cfg
		return logging.Init(cfg.LogLevel, cfg.LogFormat)
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Path to a JSON config file")
	flags.StringVar(&flagProvider, "provider", "", "Evidence provider: perplexity, openai or gemini")
	flags.StringVar(&flagHistory, "history-backend", "", "History backend: memory, redis or postgres")
	flags.StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn or error")
	flags.StringVar(&flagLogFormat, "log-format", "", "Log format: text or json")
	flags.BoolVar(&flagUseBrowser, "browser", false, "Render client-side pages in headless Chrome")
	flags.IntVar(&flagClaimQuota, "claim-quota", 0, "Maximum claims sent to the evidence provider")
	flags.StringVar(&flagAuthorities, "authority-table", "", "Path to an authority table YAML file")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
