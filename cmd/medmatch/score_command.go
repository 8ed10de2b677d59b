package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"medmatch/internal/confidence"
)

func newScoreCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var top int

	cmd := &cobra.Command{
		Use:   "score <analysis.json>",
		Short: "Rank catalog entries against precomputed analysis data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			idx, err := ctx.catalogIndex()
			if err != nil {
				return err
			}
			logger, closeLog, err := ctx.logger(cmd)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer closeLog()

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read analysis: %w", err)
			}
			var file confidence.AnalyzedFile
			if err := json.Unmarshal(data, &file); err != nil {
				return fmt.Errorf("decode analysis %s: %w", args[0], err)
			}

			engine, err := confidence.NewEngine(scoringPolicy(cfg), confidence.WithLogger(logger))
			if err != nil {
				return fmt.Errorf("init scoring: %w", err)
			}
			results, err := engine.Score(file, idx.Catalog().Entries)
			if err != nil {
				return err
			}
			if top > 0 && len(results) > top {
				results = results[:top]
			}

			if jsonOutput {
				return writeJSON(cmd, results)
			}
			out := cmd.OutOrStdout()
			rows := make([][]string, 0, len(results))
			for _, r := range results {
				rows = append(rows, []string{
					r.CatalogID,
					formatScore(r.FingerprintScore),
					formatScore(r.TranscriptionScore),
					formatScore(r.SizeScore),
					formatScore(r.CombinedScore),
					string(r.Method),
					yesNo(r.Accepted),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Catalog ID", "Fingerprint", "Transcript", "Size", "Combined", "Method", "Accepted"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft, alignLeft},
			))
			colorize := shouldColorize(out)
			if best, ok := confidence.Best(results); ok {
				fmt.Fprintln(out, renderStatusLine("Best match", statusOK, confidence.Describe(best), colorize))
			} else {
				fmt.Fprintln(out, renderStatusLine("Best match", statusWarn, fmt.Sprintf("none above threshold %.2f", engine.Policy().Threshold), colorize))
			}
			for _, w := range engine.Warnings() {
				fmt.Fprintln(out, renderStatusLine("Warning", statusWarn, w, colorize))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output results as JSON")
	cmd.Flags().IntVar(&top, "top", 5, "Show only the best N candidates (0 for all)")
	return cmd
}

func formatScore(v float64) string {
	return fmt.Sprintf("%.3f", v)
}
