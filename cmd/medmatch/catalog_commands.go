package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"medmatch/internal/catalog"
	"medmatch/internal/signature"
)

func newCatalogCommand(ctx *commandContext) *cobra.Command {
	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the meditation catalog",
	}

	catalogCmd.AddCommand(newCatalogListCommand(ctx))
	catalogCmd.AddCommand(newCatalogCheckCommand(ctx))

	return catalogCmd
}

func newCatalogListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog entries by group",
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := ctx.catalogIndex()
			if err != nil {
				return err
			}
			cat := idx.Catalog()
			if jsonOutput {
				return writeJSON(cmd, cat)
			}
			rows := make([][]string, 0, len(cat.Entries))
			for _, group := range cat.Groups() {
				for _, entry := range group.Entries {
					rows = append(rows, []string{
						group.ID,
						entry.ID,
						entry.Name,
						strconv.Itoa(len(entry.Signatures.ExactSizes)),
						strings.Join(entry.Signatures.SizePrefixes, ", "),
						strconv.Itoa(len(entry.Signatures.FileNamePatterns)),
						yesNo(entry.HasAnalysis()),
					})
				}
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Catalog version %s\n", displayVersion(cat.Version))
			fmt.Fprintln(out, renderTable(
				[]string{"Group", "ID", "Name", "Sizes", "Prefixes", "Patterns", "Analysis"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the catalog as JSON")
	return cmd
}

func newCatalogCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check [catalog-file]",
		Short: "Validate a catalog and build its signature index",
		Long: `Validate a catalog and build its signature index.

Without an argument the configured catalog is checked. Exact size
collisions, malformed prefixes and invalid patterns fail the check; size
prefixes shared by several entries are reported as warnings.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var idx *signature.Index
			if len(args) == 1 {
				cat, err := catalog.LoadFile(args[0])
				if err != nil {
					return fmt.Errorf("load catalog: %w", err)
				}
				if idx, err = signature.Build(cat); err != nil {
					return err
				}
			} else {
				var err error
				if idx, err = ctx.catalogIndex(); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			stats := idx.Stats()
			fmt.Fprintln(out, renderStatusLine("Version", statusInfo, displayVersion(idx.Catalog().Version), colorize))
			fmt.Fprintln(out, renderStatusLine("Entries", statusOK, strconv.Itoa(stats.Entries), colorize))
			fmt.Fprintln(out, renderStatusLine("Exact sizes", statusInfo, strconv.Itoa(stats.ExactSizes), colorize))
			fmt.Fprintln(out, renderStatusLine("Size prefixes", statusInfo, strconv.Itoa(stats.Prefixes), colorize))
			fmt.Fprintln(out, renderStatusLine("Name patterns", statusInfo, strconv.Itoa(stats.Patterns), colorize))
			fmt.Fprintln(out, renderStatusLine("Analysis data", statusInfo, strconv.Itoa(stats.AnalysisReady), colorize))

			shared := idx.SharedPrefixes()
			prefixes := make([]string, 0, len(shared))
			for prefix := range shared {
				prefixes = append(prefixes, prefix)
			}
			sort.Strings(prefixes)
			for _, prefix := range prefixes {
				ids := shared[prefix]
				msg := fmt.Sprintf("%s shared by %s; %s wins", prefix, strings.Join(ids, ", "), ids[0])
				fmt.Fprintln(out, renderStatusLine("Shared prefix", statusWarn, msg, colorize))
			}
			fmt.Fprintln(out, "Catalog valid")
			return nil
		},
	}
}

func displayVersion(v string) string {
	if strings.TrimSpace(v) == "" {
		return "(unversioned)"
	}
	return v
}
