package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/jonathan/trustcheck/internal/history"
	"github.com/jonathan/trustcheck/internal/observability"
	"github.com/spf13/cobra"
)

var (
	historyQuery  string
	historyPage   int
	historyOutput string
	historyYes    bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect and manage stored verifications",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored verifications, most recent first",
	RunE:  runHistoryList,
}

var historyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show verification statistics",
	RunE:  runHistoryStats,
}

var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored verifications and statistics as JSON",
	RunE:  runHistoryExport,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every stored verification",
	RunE:  runHistoryClear,
}

func init() {
	historyListCmd.Flags().StringVarP(&historyQuery, "query", "q", "", "Only show results whose preview or id contains this text")
	historyListCmd.Flags().IntVar(&historyPage, "page", 1, "Page number")
	historyExportCmd.Flags().StringVarP(&historyOutput, "out", "o", "", "Write the export to this file instead of stdout")
	historyClearCmd.Flags().BoolVar(&historyYes, "yes", false, "Confirm deletion")

	historyCmd.AddCommand(historyListCmd, historyStatsCmd, historyExportCmd, historyClearCmd)
	rootCmd.AddCommand(historyCmd)
}

func runHistoryList(cmd *cobra.Command, _ []string) error {
	if historyPage < 1 {
		return fmt.Errorf("--page must be at least 1")
	}
	rt, err := newRuntime(cmd.Context(), appConfig)
	if err != nil {
		return err
	}
	defer rt.Close() //nolint:errcheck

	results, err := rt.history.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}
	filtered := history.Filter(results, historyQuery)
	page, pages := history.Page(filtered, historyPage, history.PageSize)

	observability.NewPrinter(cmd.OutOrStdout()).PrintHistory(page)
	if pages > 1 {
		fmt.Fprintf(cmd.OutOrStdout(), "Page %d of %d (%d results)\n", historyPage, pages, len(filtered))
	}
	return nil
}

func runHistoryStats(cmd *cobra.Command, _ []string) error {
	rt, err := newRuntime(cmd.Context(), appConfig)
	if err != nil {
		return err
	}
	defer rt.Close() //nolint:errcheck

	results, err := rt.history.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintStats(history.ComputeStats(results, time.Now()))
	return nil
}

func runHistoryExport(cmd *cobra.Command, _ []string) error {
	rt, err := newRuntime(cmd.Context(), appConfig)
	if err != nil {
		return err
	}
	defer rt.Close() //nolint:errcheck

	results, err := rt.history.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}
	data, err := json.MarshalIndent(history.Export(results, time.Now()), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal export: %w", err)
	}

	if historyOutput == "" {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	}
	if err := os.WriteFile(historyOutput, data, 0o644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d verifications to %s\n", len(results), historyOutput)
	return nil
}

func runHistoryClear(cmd *cobra.Command, _ []string) error {
	if !historyYes {
		return fmt.Errorf("refusing to clear history without --yes")
	}
	rt, err := newRuntime(cmd.Context(), appConfig)
	if err != nil {
		return err
	}
	defer rt.Close() //nolint:errcheck

	if err := rt.history.Clear(cmd.Context()); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "History cleared.")
	return nil
}
