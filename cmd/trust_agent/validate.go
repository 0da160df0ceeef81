package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jonathan/trustcheck/internal/pipeline"
	"github.com/jonathan/trustcheck/internal/schemas"
	"github.com/jonathan/trustcheck/internal/types"
	"github.com/spf13/cobra"
)

var validateContent string

var validateCmd = &cobra.Command{
	Use:   "validate <result.json>",
	Short: "Check a saved verification result against the published schema",
	Long: "Validates a result written by 'verify --json'. With --content the " +
		"integrity hash is also checked against the original text.",
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVar(&validateContent, "content", "", "Original content, to check the integrity hash")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read result: %w", err)
	}
	if err := schemas.ValidateResult(json.RawMessage(data)); err != nil {
		return err
	}

	if validateContent != "" {
		var result types.VerificationResult
		if err := json.Unmarshal(data, &result); err != nil {
			return fmt.Errorf("failed to parse result: %w", err)
		}
		if !pipeline.CheckIntegrity(result, validateContent) {
			return fmt.Errorf("integrity check failed: result does not match content")
		}
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s is valid\n", args[0])
	return err
}
