package main

import (
	"fmt"
	"os"

	"github.com/jonathan/trustcheck/internal/config"
	"github.com/spf13/cobra"
)

// getenv is swapped in tests.
var getenv = os.Getenv

// loadConfig layers flags over the config file over the environment.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.FromEnv(getenv)

	if configPath != "" {
		fileCfg, err := config.LoadConfig(configPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = fileCfg.MergeWithDefaults(cfg)
	}

	flags := cmd.Flags()
	if flags.Changed("provider") {
		cfg.EvidenceProvider = flagProvider
	}
	if flags.Changed("history-backend") {
		cfg.HistoryBackend = flagHistory
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = flagLogLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = flagLogFormat
	}
	if flags.Changed("browser") {
		cfg.UseBrowser = flagUseBrowser
	}
	if flags.Changed("claim-quota") {
		cfg.ClaimQuota = flagClaimQuota
	}
	if flags.Changed("authority-table") {
		cfg.AuthorityTable = flagAuthorities
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
