package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"medmatch/internal/classify"
	"medmatch/internal/picker"
)

type classifyRow struct {
	File classify.PickedFile `json:"file"`
	classify.Result
}

func newClassifyCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var name string
	var size int64

	cmd := &cobra.Command{
		Use:   "classify [files...]",
		Short: "Classify files by size and name without recording them",
		Long: `Classify files by exact size, size prefix and file name pattern.

Pass file paths, or describe a single hypothetical file with --name and
--size. Nothing is copied or recorded.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := ctx.catalogIndex()
			if err != nil {
				return err
			}

			var files []classify.PickedFile
			if len(args) == 0 {
				if name == "" {
					return errors.New("classify requires file paths or --name")
				}
				file := classify.PickedFile{Name: name}
				if cmd.Flags().Changed("size") {
					file.SizeBytes = classify.SizeOf(size)
				}
				files = append(files, file)
			}
			for _, arg := range args {
				info, err := os.Stat(arg)
				if err != nil {
					return fmt.Errorf("inspect %s: %w", arg, err)
				}
				if info.IsDir() {
					return fmt.Errorf("%s is a directory", arg)
				}
				abs, err := filepath.Abs(arg)
				if err != nil {
					abs = arg
				}
				files = append(files, classify.PickedFile{
					Name:      info.Name(),
					SizeBytes: classify.SizeOf(info.Size()),
					MimeType:  picker.DetectMIME(arg),
					SourceURI: abs,
				})
			}

			rows := make([]classifyRow, 0, len(files))
			for _, file := range files {
				result, err := classify.Classify(file, idx)
				if err != nil && !errors.Is(err, classify.ErrInvalidInput) {
					return err
				}
				rows = append(rows, classifyRow{File: file, Result: result})
			}

			if jsonOutput {
				return writeJSON(cmd, rows)
			}
			table := make([][]string, 0, len(rows))
			for _, row := range rows {
				sizeText := "-"
				if row.File.SizeBytes != nil {
					sizeText = strconv.FormatInt(row.File.Size(), 10)
				}
				id := row.ID
				if id == "" {
					id = "-"
				}
				table = append(table, []string{row.File.Name, sizeText, id, string(row.Strategy), row.Reason})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"File", "Size", "Catalog ID", "Strategy", "Reason"},
				table,
				[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output results as JSON")
	cmd.Flags().StringVar(&name, "name", "", "File name of a hypothetical file")
	cmd.Flags().Int64Var(&size, "size", 0, "Size in bytes of a hypothetical file")
	return cmd
}
