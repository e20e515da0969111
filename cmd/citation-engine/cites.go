// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/citation-engine/internal/doi"
	"github.com/pdiddy/citation-engine/internal/httputil"
	"github.com/pdiddy/citation-engine/internal/inputs"
	"github.com/pdiddy/citation-engine/internal/metrics"
	"github.com/pdiddy/citation-engine/internal/pipeline"
	"github.com/pdiddy/citation-engine/internal/report"
	"github.com/pdiddy/citation-engine/internal/sources"
	"github.com/pdiddy/citation-engine/pkg/types"
)

var citesCmd = &cobra.Command{
	Use:   "cites <csv-file|publisher-code>",
	Short: "Collect the works citing each DOI in a list",
	Long: `Cites reads DOIs from a CSV file, or from the Crossref depositor report
when the argument is a publisher code such as J297249, and looks up the works
citing each one. Results are written to Citation_Results_<timestamp>.<ext>
in the output directory, or to --output.

Press Ctrl-C to stop early; the DOIs already processed are still saved.`,
	Args: cobra.ExactArgs(1),
	RunE: runCites,
}

func init() {
	citesCmd.Flags().BoolP("yes", "y", false, "skip the confirmation prompt")
	citesCmd.Flags().StringP("output", "o", "", "result file path (default: <output-dir>/Citation_Results_<timestamp>.<ext>)")
	citesCmd.Flags().String("output-dir", "", "directory for the result file")
	citesCmd.Flags().String("format", "", "result format: csv, json, yaml, sqlite, or csl")
	citesCmd.Flags().String("email", "", "contact e-mail sent to OpenAlex and Crossref")
	citesCmd.Flags().Duration("delay", 0, "minimum delay between requests to one source")
	citesCmd.Flags().Bool("no-openalex", false, "skip OpenAlex")
	citesCmd.Flags().Bool("no-opencitations", false, "skip OpenCitations")
	citesCmd.Flags().Bool("no-enrich", false, "skip Crossref metadata completion")
	citesCmd.Flags().String("metrics-file", "", "write Prometheus metrics to this file after the run")

	rootCmd.AddCommand(citesCmd)
}

// citeOptions are the per-invocation settings not carried by types.Config.
type citeOptions struct {
	Input       string
	Output      string
	MetricsFile string
	AssumeYes   bool
}

func runCites(cmd *cobra.Command, args []string) error {
	cfg, err := applyCiteFlags(cmd, appConfig)
	if err != nil {
		return err
	}
	opts := citeOptions{Input: strings.Trim(strings.TrimSpace(args[0]), `"'`)}
	opts.Output, _ = cmd.Flags().GetString("output")
	opts.MetricsFile, _ = cmd.Flags().GetString("metrics-file")
	opts.AssumeYes, _ = cmd.Flags().GetBool("yes")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	f := httputil.NewFetcher(cfg.HTTP, cfg.UserAgentHeader(), httputil.WithLogger(logger))
	return citeRun(ctx, cfg, opts, f, cmd.InOrStdin(), cmd.OutOrStdout())
}

// applyCiteFlags overlays explicitly set flags on cfg.
func applyCiteFlags(cmd *cobra.Command, cfg types.Config) (types.Config, error) {
	flags := cmd.Flags()
	if flags.Changed("format") {
		s, _ := flags.GetString("format")
		format, err := report.ParseFormat(s)
		if err != nil {
			return cfg, err
		}
		cfg.Output.Format = format
	}
	if flags.Changed("output-dir") {
		cfg.Output.Dir, _ = flags.GetString("output-dir")
	}
	if flags.Changed("email") {
		cfg.Sources.Email, _ = flags.GetString("email")
	}
	if flags.Changed("delay") {
		cfg.Pipeline.RequestDelay, _ = flags.GetDuration("delay")
	}
	if off, _ := flags.GetBool("no-openalex"); off {
		cfg.Sources.EnableOpenAlex = false
	}
	if off, _ := flags.GetBool("no-opencitations"); off {
		cfg.Sources.EnableOpenCitations = false
	}
	if off, _ := flags.GetBool("no-enrich"); off {
		cfg.Sources.EnableEnrichment = false
	}
	if _, err := report.ParseFormat(string(cfg.Output.Format)); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// citeRun loads the identifiers, asks for confirmation, runs the
// pipeline, and saves whatever it produced, even after an interrupt.
func citeRun(ctx context.Context, cfg types.Config, opts citeOptions, f *httputil.Fetcher, in io.Reader, out io.Writer) error {
	m := metrics.New()
	f = f.With(httputil.WithMetrics(m))

	dois, err := loadIdentifiers(ctx, opts.Input, cfg, f, out)
	if err != nil {
		return err
	}
	if len(dois) == 0 {
		return fmt.Errorf("no valid DOIs found in %s", opts.Input)
	}
	fmt.Fprintf(out, "Found %d DOIs to query.\n", len(dois))

	if !opts.AssumeYes && !confirm(in, out) {
		fmt.Fprintln(out, "Cancelled.")
		return nil
	}

	run := report.NewRun(opts.Input, time.Now())
	results, err := pipeline.FromConfig(cfg, f, logger, m).Run(ctx, dois, out)
	run.Elapsed = time.Since(run.StartedAt)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			return err
		}
		run.Interrupted = true
		fmt.Fprintf(out, "\nInterrupted: saving %d of %d DOIs processed so far.\n", results.Len(), len(dois))
	}

	report.WriteSummary(out, results, cfg.Output.SummaryLimit, run.Elapsed)

	path := opts.Output
	if path == "" {
		path = report.OutputPath(cfg.Output.Dir, cfg.Output.Format, time.Now())
	}
	if err := report.Save(path, cfg.Output.Format, results, run); err != nil {
		return err
	}
	fmt.Fprintf(out, "\nResults saved to %s\n", path)

	if opts.MetricsFile != "" {
		if err := m.WriteTextfile(opts.MetricsFile); err != nil {
			logger.Warn("writing metrics file", zap.String("path", opts.MetricsFile), zap.Error(err))
		}
	}
	return nil
}

// loadIdentifiers reads DOIs from a depositor report when input is a
// publisher code and from a CSV file otherwise. Report DOIs keep their
// duplicates; file DOIs do not.
func loadIdentifiers(ctx context.Context, input string, cfg types.Config, f *httputil.Fetcher, out io.Writer) ([]string, error) {
	if doi.IsDepositorPubID(input) {
		pubID := strings.ToUpper(input)
		fmt.Fprintf(out, "Fetching DOI list from the Crossref depositor report for %s\n", pubID)
		return sources.NewDepositorReport(f, cfg, logger).Discover(ctx, pubID)
	}
	fmt.Fprintf(out, "Reading DOIs from %s\n", input)
	return inputs.ReadCSV(input)
}

// confirm asks the operator to continue and reports whether they agreed.
func confirm(in io.Reader, out io.Writer) bool {
	fmt.Fprint(out, "Continue? (y/n) ")
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
