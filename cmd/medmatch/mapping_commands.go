package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newMappingCommand(ctx *commandContext) *cobra.Command {
	mappingCmd := &cobra.Command{
		Use:   "mapping",
		Short: "Inspect and manage recorded matches",
	}

	mappingCmd.AddCommand(newMappingShowCommand(ctx))
	mappingCmd.AddCommand(newMappingClearCommand(ctx))

	return mappingCmd
}

func newMappingShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the catalog id to file path mapping",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, closeLog, err := ctx.logger(cmd)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer closeLog()
			backend, err := ctx.openStore(cmd.Context(), logger)
			if err != nil {
				return err
			}
			defer backend.Close()

			mapping, ok, err := backend.Get(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput {
				if !ok {
					return writeJSON(cmd, map[string]string{})
				}
				return writeJSON(cmd, mapping)
			}
			out := cmd.OutOrStdout()
			if !ok || len(mapping) == 0 {
				fmt.Fprintf(out, "No matches recorded (%s)\n", backend.Location())
				return nil
			}

			ids := make([]string, 0, len(mapping))
			for id := range mapping {
				ids = append(ids, id)
			}
			sort.Strings(ids)

			var names func(string) string
			if idx, err := ctx.catalogIndex(); err == nil {
				names = func(id string) string {
					if entry, found := idx.Catalog().Lookup(id); found {
						return entry.Name
					}
					return "(not in catalog)"
				}
			} else {
				names = func(string) string { return "" }
			}

			rows := make([][]string, 0, len(ids))
			for _, id := range ids {
				rows = append(rows, []string{id, names(id), mapping[id]})
			}
			fmt.Fprintln(out, renderTable([]string{"Catalog ID", "Name", "Path"}, rows, nil))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the mapping as JSON")
	return cmd
}

func newMappingClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every recorded match",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, closeLog, err := ctx.logger(cmd)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer closeLog()
			backend, err := ctx.openStore(cmd.Context(), logger)
			if err != nil {
				return err
			}
			defer backend.Close()

			if err := backend.Remove(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Mapping cleared")
			return nil
		},
	}
}
