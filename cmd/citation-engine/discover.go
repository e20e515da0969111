// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiddy/citation-engine/internal/doi"
	"github.com/pdiddy/citation-engine/internal/httputil"
	"github.com/pdiddy/citation-engine/internal/sources"
)

var discoverCmd = &cobra.Command{
	Use:   "discover <publisher-code>",
	Short: "List the DOIs in a Crossref depositor report",
	Long: `Discover fetches the Crossref depositor report for a publisher code such
as J297249 and prints one canonical DOI per line, in report order.`,
	Args: cobra.ExactArgs(1),
	RunE: runDiscover,
}

func init() {
	rootCmd.AddCommand(discoverCmd)
}

func runDiscover(cmd *cobra.Command, args []string) error {
	code := strings.TrimSpace(args[0])
	if !doi.IsDepositorPubID(code) {
		return fmt.Errorf("%q is not a publisher code (expected J followed by digits)", code)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	f := httputil.NewFetcher(appConfig.HTTP, appConfig.UserAgentHeader(), httputil.WithLogger(logger))
	dois, err := sources.NewDepositorReport(f, appConfig, logger).Discover(ctx, code)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, d := range dois {
		fmt.Fprintln(out, d)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%d DOIs listed for %s\n", len(dois), strings.ToUpper(code))
	return nil
}
