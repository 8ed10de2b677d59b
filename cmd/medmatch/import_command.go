package main

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"medmatch/internal/confidence"
	"medmatch/internal/importer"
	"medmatch/internal/logging"
	"medmatch/internal/metrics"
	"medmatch/internal/picker"
	"medmatch/internal/preflight"
	"medmatch/internal/reporting"
	"medmatch/internal/store"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var noCopy bool

	cmd := &cobra.Command{
		Use:   "import [paths...]",
		Short: "Identify files and record them in the mapping",
		Long: `Identify meditation files against the catalog and record each match.

Paths may be files or directories (non-recursive). Without arguments the
command reads paths from stdin, one per line, until an empty line.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if failed := preflight.Failed(preflight.Directories(cfg)); len(failed) > 0 {
				return fmt.Errorf("preflight: %s: %s", failed[0].Name, failed[0].Detail)
			}
			logger, closeLog, err := ctx.logger(cmd)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer closeLog()
			idx, err := ctx.catalogIndex()
			if err != nil {
				return err
			}
			backend, err := ctx.openStore(cmd.Context(), logger)
			if err != nil {
				return err
			}
			defer backend.Close()

			var engine *confidence.Engine
			if cfg.Scoring.Enabled {
				engine, err = confidence.NewEngine(scoringPolicy(cfg), confidence.WithLogger(logger))
				if err != nil {
					return fmt.Errorf("init scoring: %w", err)
				}
			}

			m := metrics.New()
			svc, err := importer.NewService(importer.Options{
				Index:    idx,
				Store:    backend,
				Reporter: reporting.NewReporter(cfg),
				Engine:   engine,
				Resolver: ctx.pathResolver(),
				User:     cfg.Reporting.User,
				Metrics:  m,
				Logger:   logger,
			})
			if err != nil {
				return err
			}

			fsPicker := picker.FSPicker{Paths: args, Logger: logger}
			if !noCopy {
				fsPicker.SandboxDir = cfg.Paths.SandboxDir
			}
			var source picker.Picker = fsPicker
			if len(args) == 0 {
				source = picker.PromptPicker{In: cmd.InOrStdin(), Out: cmd.ErrOrStderr(), Picker: fsPicker}
			}

			report, importErr := svc.Import(cmd.Context(), source)
			if path := cfg.Metrics.TextfilePath; path != "" {
				if err := m.WriteTextfile(path); err != nil {
					logging.WarnWithContext(logger, "metrics textfile not written", "metrics_export_failed",
						logging.String("path", path),
						logging.Error(err),
						logging.String(logging.FieldImpact, "import metrics for this run are not exported"))
				}
			}
			if importErr != nil && !errors.Is(importErr, store.ErrPersistence) {
				return importErr
			}

			if jsonOutput {
				if err := writeJSON(cmd, report); err != nil {
					return err
				}
				return importErr
			}
			printImportReport(cmd, report)
			return importErr
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the import report as JSON")
	cmd.Flags().BoolVar(&noCopy, "no-copy", false, "Identify files in place without copying them into the sandbox")
	return cmd
}

func printImportReport(cmd *cobra.Command, report importer.Report) {
	out := cmd.OutOrStdout()
	if report.Cancelled {
		fmt.Fprintln(out, "Import cancelled; mapping unchanged")
		return
	}
	colorize := shouldColorize(out)

	if len(report.Assigned) > 0 {
		rows := make([][]string, 0, len(report.Assigned))
		for _, a := range report.Assigned {
			score := ""
			if a.Score > 0 {
				score = strconv.FormatFloat(a.Score, 'f', 3, 64)
			}
			rows = append(rows, []string{a.CatalogID, a.File.Name, a.Strategy, score, a.Path})
		}
		fmt.Fprintln(out, renderTable(
			[]string{"Catalog ID", "File", "Strategy", "Score", "Path"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
		))
	}

	if len(report.Unsupported) > 0 {
		rows := make([][]string, 0, len(report.Unsupported))
		for _, u := range report.Unsupported {
			rows = append(rows, []string{u.Name, u.Type, strconv.FormatInt(u.Size, 10), u.Reason})
		}
		fmt.Fprintln(out, renderTable(
			[]string{"Unsupported File", "Type", "Size", "Reason"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
		))
	}

	fmt.Fprintln(out, renderStatusLine("Picked", statusInfo, strconv.Itoa(report.Picked), colorize))
	fmt.Fprintln(out, renderStatusLine("Matched", statusOK, strconv.Itoa(len(report.Assigned)), colorize))
	unsupportedKind := statusOK
	if len(report.Unsupported) > 0 {
		unsupportedKind = statusWarn
	}
	fmt.Fprintln(out, renderStatusLine("Unsupported", unsupportedKind, strconv.Itoa(len(report.Unsupported)), colorize))
	fmt.Fprintln(out, renderStatusLine("Excluded", statusInfo, strconv.Itoa(report.Excluded), colorize))
	fmt.Fprintln(out, renderStatusLine("Mapping size", statusInfo, strconv.Itoa(len(report.Matched)), colorize))
	if len(report.Unsupported) > 0 {
		reported := "not sent"
		if report.Reported {
			reported = "sent"
		}
		fmt.Fprintln(out, renderStatusLine("Report", statusInfo, reported, colorize))
	}
	saved := statusOK
	savedText := "saved"
	if !report.Persisted {
		saved = statusError
		savedText = "not saved"
	}
	fmt.Fprintln(out, renderStatusLine("Mapping", saved, savedText, colorize))

	warnings := append([]string(nil), report.Warnings...)
	sort.Strings(warnings)
	for _, w := range warnings {
		fmt.Fprintln(out, renderStatusLine("Warning", statusWarn, w, colorize))
	}
}
