package importer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"medmatch/internal/batch"
	"medmatch/internal/classify"
	"medmatch/internal/confidence"
	"medmatch/internal/logging"
	"medmatch/internal/metrics"
	"medmatch/internal/picker"
	"medmatch/internal/reporting"
	"medmatch/internal/services"
	"medmatch/internal/signature"
	"medmatch/internal/store"
)

// Assignment is a file newly tied to a catalog entry in this run.
type Assignment struct {
	CatalogID string              `json:"catalog_id"`
	Path      string              `json:"path"`
	File      classify.PickedFile `json:"file"`
	Strategy  string              `json:"strategy"`
	Score     float64             `json:"score,omitempty"`
}

// Report summarizes an import run.
type Report struct {
	BatchID     string                  `json:"batch_id"`
	Cancelled   bool                    `json:"cancelled"`
	Picked      int                     `json:"picked"`
	Assigned    []Assignment            `json:"assigned"`
	Matched     batch.MatchedFileMap    `json:"matched"`
	Unsupported []batch.UnsupportedFile `json:"unsupported"`
	Excluded    int                     `json:"excluded"`
	Discarded   int                     `json:"discarded,omitempty"`
	Warnings    []string                `json:"warnings,omitempty"`
	Persisted   bool                    `json:"persisted"`
	Reported    bool                    `json:"reported"`
	Duration    time.Duration           `json:"duration"`
}

// Options wires an import Service.
type Options struct {
	Index    *signature.Index
	Store    store.Gateway
	Reporter reporting.Reporter
	// Engine enables confidence rescue of unmatched files that carry
	// analysis data. Nil disables it.
	Engine   *confidence.Engine
	Resolver batch.PathResolver
	Exclude  batch.ExclusionFilter
	User     string
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

// Service runs imports.
type Service struct {
	index    *signature.Index
	store    store.Gateway
	reporter reporting.Reporter
	engine   *confidence.Engine
	matchOpt batch.Options
	user     string
	metrics  *metrics.Metrics
	logger   *slog.Logger
	newID    func() string
	now      func() time.Time
	remove   func(string) error
}

// NewService validates opts.
func NewService(opts Options) (*Service, error) {
	if opts.Index == nil {
		return nil, services.Wrap(services.ErrConfiguration, "import", "init", "signature index is required", nil)
	}
	if opts.Store == nil {
		return nil, services.Wrap(services.ErrConfiguration, "import", "init", "store is required", nil)
	}
	if opts.Reporter == nil {
		opts.Reporter = reporting.Noop{}
	}
	if opts.Resolver == nil {
		opts.Resolver = batch.NoResolver{}
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	opts.Metrics.CatalogEntries.Set(float64(opts.Index.Stats().Entries))
	return &Service{
		index:    opts.Index,
		store:    opts.Store,
		reporter: opts.Reporter,
		engine:   opts.Engine,
		matchOpt: batch.Options{Exclude: opts.Exclude, Resolver: opts.Resolver},
		user:     opts.User,
		metrics:  opts.Metrics,
		logger:   logging.NewComponentLogger(logger, "importer"),
		newID:    func() string { return uuid.NewString() },
		now:      time.Now,
		remove:   os.Remove,
	}, nil
}

// Import runs one import with files from p.
func (s *Service) Import(ctx context.Context, p picker.Picker) (Report, error) {
	started := s.now()
	report := Report{BatchID: s.newID()}
	ctx = services.WithBatchID(ctx, report.BatchID)
	logger := logging.WithContext(services.WithStage(ctx, "pick"), s.logger)

	sel, err := p.Pick(ctx)
	if err != nil {
		s.metrics.Imports.WithLabelValues("failed").Inc()
		return report, fmt.Errorf("pick files: %w", err)
	}
	if sel.Cancelled {
		report.Cancelled = true
		s.metrics.Imports.WithLabelValues("cancelled").Inc()
		logger.Info("import cancelled", logging.String(logging.FieldEventType, "import_cancelled"))
		return report, nil
	}
	report.Picked = len(sel.Files)

	existing, loadErr := s.loadExisting(ctx)

	outcome := batch.Match(sel.Files, existing, s.index, s.matchOpt)
	s.logDecisions(ctx, outcome.Decisions)

	report.Matched = outcome.Matched
	report.Excluded = outcome.Excluded
	report.Unsupported = outcome.Unsupported
	for _, d := range outcome.Decisions {
		if d.Disposition == batch.DispositionMatched {
			report.Assigned = append(report.Assigned, Assignment{
				CatalogID: d.Result.ID,
				Path:      d.Path,
				File:      d.File,
				Strategy:  string(d.Result.Strategy),
			})
		}
	}

	if s.engine != nil && len(sel.Analysis) > 0 {
		s.rescue(ctx, &report, outcome.Decisions, sel.Analysis)
		report.Warnings = append(report.Warnings, s.engine.Warnings()...)
	}

	s.discardUnmatchedCopies(ctx, &report, outcome.Decisions)
	s.countFiles(report)
	s.reportUnsupported(ctx, &report)

	var persistErr error
	if loadErr != nil {
		report.Warnings = append(report.Warnings, "stored mapping could not be read; matches from this import were not saved")
		persistErr = loadErr
	} else {
		persistErr = s.persist(ctx, &report)
	}
	report.Duration = s.now().Sub(started)
	s.metrics.ImportDuration.Observe(report.Duration.Seconds())

	if persistErr != nil {
		s.metrics.Imports.WithLabelValues("failed").Inc()
		return report, persistErr
	}
	s.metrics.Imports.WithLabelValues("completed").Inc()
	logging.WithContext(ctx, s.logger).Info("import completed",
		logging.String(logging.FieldEventType, "import_completed"),
		logging.Int("picked", report.Picked),
		logging.Int("assigned", len(report.Assigned)),
		logging.Int("unsupported", len(report.Unsupported)),
		logging.Int("excluded", report.Excluded),
		logging.Int("mapping_size", len(report.Matched)),
		logging.Duration("duration", report.Duration))
	return report, nil
}

// loadExisting returns the stored mapping, or an empty one when none exists.
// A failed read is returned as ErrPersistence; the caller must not overwrite
// the store with a mapping built without the prior state.
func (s *Service) loadExisting(ctx context.Context) (batch.MatchedFileMap, error) {
	ctx = services.WithStage(ctx, "load")
	existing, ok, err := s.store.Get(ctx)
	if err != nil {
		s.metrics.PersistenceFailures.Inc()
		logging.ErrorWithContext(logging.WithContext(ctx, s.logger), "failed to load stored mapping", "mapping_load_failed",
			logging.Error(err),
			logging.Alert("mapping_not_saved"),
			logging.String(logging.FieldErrorHint, "check the store path and retry the import"),
			logging.String(logging.FieldImpact, "this import is matched in memory only; the stored mapping is left untouched"))
		if !errors.Is(err, store.ErrPersistence) {
			err = services.Wrap(store.ErrPersistence, "import", "load", "read stored mapping", err)
		}
		return batch.MatchedFileMap{}, err
	}
	if !ok {
		return batch.MatchedFileMap{}, nil
	}
	return existing, nil
}

func (s *Service) logDecisions(ctx context.Context, decisions []batch.Decision) {
	logger := logging.WithContext(services.WithStage(ctx, "classify"), s.logger)
	for _, d := range decisions {
		attrs := logging.DecisionAttrs("classification", string(d.Disposition), d.Reason)
		attrs = append(attrs,
			logging.String(logging.FieldFileName, d.File.Name),
			logging.String("strategy", string(d.Result.Strategy)))
		if d.Result.ID != "" {
			attrs = append(attrs, logging.String(logging.FieldCatalogID, d.Result.ID))
		}
		if d.Err != nil {
			attrs = append(attrs, logging.Error(d.Err))
		}
		logger.Info("file classified", logging.Args(attrs...)...)
	}
}

// rescue scores unmatched files that carry analysis data and turns accepted
// results into matches. Files that still fail stay unsupported.
func (s *Service) rescue(ctx context.Context, report *Report, decisions []batch.Decision, analysis map[string]confidence.AnalyzedFile) {
	logger := logging.WithContext(services.WithStage(ctx, "score"), s.logger)
	candidates := s.index.Catalog().Entries
	unsupported := make([]batch.UnsupportedFile, 0, len(report.Unsupported))

	for _, d := range decisions {
		if d.Disposition != batch.DispositionUnsupported {
			continue
		}
		entry := batch.NewUnsupported(d.File, d.Reason)
		af, ok := analysis[d.File.SourceURI]
		if !ok || d.Reason != batch.ReasonNoMatch {
			unsupported = append(unsupported, entry)
			continue
		}
		results, err := s.engine.Score(af, candidates)
		if err != nil {
			logger.Debug("confidence scoring skipped",
				logging.String(logging.FieldFileName, d.File.Name),
				logging.Error(err))
			unsupported = append(unsupported, entry)
			continue
		}
		best, accepted := confidence.Best(results)
		if !accepted {
			entry.Reason = batch.ReasonLowConfidence
			unsupported = append(unsupported, entry)
			if len(results) > 0 {
				logger.Info("confidence below threshold", logging.Args(append(
					logging.DecisionAttrs("confidence_rescue", "rejected", confidence.Describe(results[0])),
					logging.String(logging.FieldFileName, d.File.Name))...)...)
			}
			continue
		}
		path, err := s.matchOpt.Resolver.Resolve(d.File)
		if err != nil {
			entry.Reason = batch.ReasonPathUnresolved
			unsupported = append(unsupported, entry)
			continue
		}
		report.Matched[best.CatalogID] = path
		report.Assigned = append(report.Assigned, Assignment{
			CatalogID: best.CatalogID,
			Path:      path,
			File:      d.File,
			Strategy:  "confidence_" + string(best.Method),
			Score:     best.CombinedScore,
		})
		logger.Info("file rescued by confidence scoring", logging.Args(append(
			logging.DecisionAttrs("confidence_rescue", "accepted", confidence.Describe(best)),
			logging.String(logging.FieldFileName, d.File.Name),
			logging.String(logging.FieldCatalogID, best.CatalogID))...)...)
	}
	report.Unsupported = unsupported
}

// discardUnmatchedCopies removes sandbox copies of files that ended up
// excluded or unsupported. Copies of assigned files stay.
func (s *Service) discardUnmatchedCopies(ctx context.Context, report *Report, decisions []batch.Decision) {
	keep := make(map[string]struct{}, len(report.Assigned))
	for _, a := range report.Assigned {
		if a.File.CopiedURI != "" {
			keep[a.File.CopiedURI] = struct{}{}
		}
	}
	logger := logging.WithContext(services.WithStage(ctx, "cleanup"), s.logger)
	for _, d := range decisions {
		copied := d.File.CopiedURI
		if copied == "" || d.Disposition == batch.DispositionMatched {
			continue
		}
		if _, ok := keep[copied]; ok {
			continue
		}
		path, err := batch.LocalPath(copied)
		if err == nil {
			err = s.remove(path)
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			logging.WarnWithContext(logger, "failed to discard sandbox copy", "sandbox_cleanup_failed",
				logging.String(logging.FieldFileName, d.File.Name),
				logging.String("copied_uri", copied),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "remove the file from the sandbox directory manually"),
				logging.String(logging.FieldImpact, "an unmatched copy stays in the sandbox"))
			continue
		}
		if err == nil {
			report.Discarded++
		}
	}
}

func (s *Service) countFiles(report Report) {
	s.metrics.Files.WithLabelValues(string(batch.DispositionMatched)).Add(float64(len(report.Assigned)))
	s.metrics.Files.WithLabelValues(string(batch.DispositionUnsupported)).Add(float64(len(report.Unsupported)))
	s.metrics.Files.WithLabelValues(string(batch.DispositionExcluded)).Add(float64(report.Excluded))
	for _, a := range report.Assigned {
		s.metrics.Strategies.WithLabelValues(a.Strategy).Inc()
	}
}

func (s *Service) reportUnsupported(ctx context.Context, report *Report) {
	if len(report.Unsupported) == 0 {
		return
	}
	ctx = services.WithStage(ctx, "report")
	if err := s.reporter.Report(ctx, s.user, report.Unsupported); err != nil {
		s.metrics.ReportingFailures.Inc()
		logging.WarnWithContext(logging.WithContext(ctx, s.logger), "failed to report unsupported files", "reporting_failed",
			logging.Error(err),
			logging.Int("unsupported", len(report.Unsupported)),
			logging.String(logging.FieldErrorHint, "check reporting.endpoint and network connectivity"),
			logging.String(logging.FieldImpact, "unsupported files were not submitted for catalog review"))
		return
	}
	report.Reported = true
}

func (s *Service) persist(ctx context.Context, report *Report) error {
	ctx = services.WithStage(ctx, "persist")
	if err := s.store.Set(ctx, report.Matched); err != nil {
		s.metrics.PersistenceFailures.Inc()
		logging.ErrorWithContext(logging.WithContext(ctx, s.logger), "failed to persist mapping", "mapping_persist_failed",
			logging.Error(err),
			logging.Alert("mapping_not_saved"),
			logging.String(logging.FieldErrorHint, "check free space and permissions on the store path"),
			logging.String(logging.FieldImpact, "matches from this import are lost after exit"))
		if !errors.Is(err, store.ErrPersistence) {
			err = services.Wrap(store.ErrPersistence, "import", "persist", "store mapping", err)
		}
		return err
	}
	report.Persisted = true
	return nil
}
