// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/pdiddy/citation-engine/internal/doi"
)

const invalidMarker = "invalid"

var normalizeCmd = &cobra.Command{
	Use:   "normalize [values...]",
	Short: "Print the canonical form of DOIs",
	Long: `Normalize prints each value followed by a tab and its canonical DOI, or
"invalid" when it is not a DOI. Without arguments, values are read from
standard input, one per line.`,
	RunE: runNormalize,
}

func init() {
	rootCmd.AddCommand(normalizeCmd)
}

func runNormalize(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if len(args) > 0 {
		for _, raw := range args {
			printNormalized(out, raw)
		}
		return nil
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		printNormalized(out, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading standard input: %w", err)
	}
	return nil
}

func printNormalized(w io.Writer, raw string) {
	canonical, ok := doi.Normalize(raw)
	if !ok {
		canonical = invalidMarker
	}
	fmt.Fprintf(w, "%s\t%s\n", raw, canonical)
}
