package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonathan/trustcheck/internal/ingestion"
	"github.com/jonathan/trustcheck/internal/observability"
	"github.com/jonathan/trustcheck/internal/pipeline"
	"github.com/jonathan/trustcheck/internal/types"
	"github.com/spf13/cobra"
)

var (
	verifyURL         string
	verifyText        string
	verifyFile        string
	verifyRegion      string
	verifySourceTypes []string
	verifyJSON        bool
	verifyProgress    bool
)

var verifyCmd = &cobra.Command{
	Use:   "verify [text]",
	Short: "Verify text, a file or a web page",
	Long: "Runs the full verification pipeline and prints the trust report. " +
		"Exactly one of --url, --text, --file or a positional argument selects the content.",
	Args: cobra.MaximumNArgs(1),
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().StringVarP(&verifyURL, "url", "u", "", "URL of a page to verify")
	verifyCmd.Flags().StringVarP(&verifyText, "text", "t", "", "Text to verify")
	verifyCmd.Flags().StringVarP(&verifyFile, "file", "f", "", "Path to a text or markdown file to verify")
	verifyCmd.Flags().StringVar(&verifyRegion, "region", "", "Focus region: global or nigeria")
	verifyCmd.Flags().StringSliceVar(&verifySourceTypes, "source-type", nil, "Evidence categories: news, government, academic, medical")
	verifyCmd.Flags().BoolVar(&verifyJSON, "json", false, "Print the result as JSON")
	verifyCmd.Flags().BoolVar(&verifyProgress, "progress", false, "Print pipeline steps as they finish")
	rootCmd.AddCommand(verifyCmd)
}

// buildRequest turns the content flags into a request.
func buildRequest(args []string) (types.VerificationRequest, error) {
	var sources []string
	if verifyURL != "" {
		sources = append(sources, "--url")
	}
	if verifyText != "" {
		sources = append(sources, "--text")
	}
	if verifyFile != "" {
		sources = append(sources, "--file")
	}
	if len(args) > 0 {
		sources = append(sources, "argument")
	}
	if len(sources) != 1 {
		return types.VerificationRequest{}, fmt.Errorf("exactly one of --url, --text, --file or a text argument is required (got %d)", len(sources))
	}

	req := types.VerificationRequest{
		ContentType: types.ContentTypeText,
		FocusRegion: types.Region(strings.ToLower(verifyRegion)),
	}
	for _, st := range verifySourceTypes {
		req.SourceTypes = append(req.SourceTypes, types.SourceType(strings.ToLower(strings.TrimSpace(st))))
	}

	switch {
	case verifyURL != "":
		req.Content = verifyURL
		req.ContentType = types.ContentTypeURL
	case verifyText != "":
		req.Content = verifyText
	case verifyFile != "":
		content, err := ingestion.ReadFile(verifyFile)
		if err != nil {
			return types.VerificationRequest{}, err
		}
		req.Content = content
	default:
		req.Content = args[0]
	}

	if err := req.Validate(); err != nil {
		return types.VerificationRequest{}, err
	}
	return req, nil
}

func runVerify(cmd *cobra.Command, args []string) error {
	req, err := buildRequest(args)
	if err != nil {
		return err
	}

	rt, err := newRuntime(cmd.Context(), appConfig)
	if err != nil {
		return err
	}
	defer rt.Close() //nolint:errcheck

	printer := observability.NewPrinter(cmd.OutOrStdout())
	var onProgress pipeline.ProgressCallback
	if verifyProgress && !verifyJSON {
		onProgress = printer.PrintProgress
	}

	result, err := rt.engine.VerifyWithProgress(cmd.Context(), req, onProgress)
	if err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}

	if verifyJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	printer.PrintResult(result)
	return nil
}
