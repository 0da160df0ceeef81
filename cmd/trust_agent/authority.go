package main

import (
	"fmt"

	"github.com/jonathan/trustcheck/internal/observability"
	"github.com/jonathan/trustcheck/internal/types"
	"github.com/spf13/cobra"
)

var authorityCmd = &cobra.Command{
	Use:   "authority",
	Short: "Query the source authority table",
}

var authorityLookupCmd = &cobra.Command{
	Use:   "lookup <url-or-domain>...",
	Short: "Show the credibility score the engine assigns to a domain",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAuthorityLookup,
}

func init() {
	authorityCmd.AddCommand(authorityLookupCmd)
	rootCmd.AddCommand(authorityCmd)
}

func runAuthorityLookup(cmd *cobra.Command, args []string) error {
	assessor, err := newAssessor(appConfig)
	if err != nil {
		return err
	}

	printer := observability.NewPrinter(cmd.OutOrStdout())
	for _, arg := range args {
		a := assessor.Assess(arg)
		if a.Domain == "" {
			return fmt.Errorf("could not extract a domain from %q", arg)
		}
		printer.PrintDomain(types.DomainCredibility{Domain: a.Domain, Credibility: a.Score, Type: a.Type})
		fmt.Fprintf(cmd.OutOrStdout(), "  matched by: %s\n", a.Rule)
	}
	return nil
}
