package importer_test

import (
	"context"
	"errors"
	"maps"
	"os"
	"path/filepath"
	"testing"

	"medmatch/internal/batch"
	"medmatch/internal/catalog"
	"medmatch/internal/classify"
	"medmatch/internal/confidence"
	"medmatch/internal/importer"
	"medmatch/internal/picker"
	"medmatch/internal/signature"
	"medmatch/internal/store"
)

type memoryStore struct {
	m       batch.MatchedFileMap
	setErr  error
	getErr  error
	setCall int
}

func (s *memoryStore) Get(context.Context) (batch.MatchedFileMap, bool, error) {
	if s.getErr != nil {
		return nil, false, s.getErr
	}
	if s.m == nil {
		return nil, false, nil
	}
	return s.m.Clone(), true, nil
}

func (s *memoryStore) Set(_ context.Context, m batch.MatchedFileMap) error {
	s.setCall++
	if s.setErr != nil {
		return s.setErr
	}
	s.m = m.Clone()
	return nil
}

func (s *memoryStore) Remove(context.Context) error {
	s.m = nil
	return nil
}

type recordingReporter struct {
	files []batch.UnsupportedFile
	err   error
	calls int
}

func (r *recordingReporter) Report(_ context.Context, _ string, files []batch.UnsupportedFile) error {
	r.calls++
	r.files = files
	return r.err
}

func testIndex(t *testing.T) *signature.Index {
	t.Helper()
	cat := &catalog.Catalog{Entries: []catalog.Entry{
		{ID: "m-a", Name: "A", Signatures: catalog.Signatures{ExactSizes: []int64{1000}}},
		{ID: "m-b", Name: "B", Signatures: catalog.Signatures{
			ExactSizes:  []int64{2000},
			Fingerprint: &catalog.Fingerprint{Hash: "feed"},
		}},
	}}
	return signature.MustBuild(cat)
}

func newService(t *testing.T, st store.Gateway, rep *recordingReporter, engine *confidence.Engine) *importer.Service {
	t.Helper()
	svc, err := importer.NewService(importer.Options{
		Index:    testIndex(t),
		Store:    st,
		Reporter: rep,
		Engine:   engine,
		Resolver: batch.LastSegments{N: 2},
		User:     "tester",
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func sizeOf(n int64) *int64 { return &n }

func TestImportCancelledLeavesStateUntouched(t *testing.T) {
	st := &memoryStore{m: batch.MatchedFileMap{"m-a": "old/a.m4a"}}
	rep := &recordingReporter{}
	svc := newService(t, st, rep, nil)

	report, err := svc.Import(context.Background(), picker.StaticPicker{Selection: picker.Selection{Cancelled: true}})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if !report.Cancelled || st.setCall != 0 || rep.calls != 0 {
		t.Fatalf("cancelled import touched state: report=%+v sets=%d reports=%d", report, st.setCall, rep.calls)
	}
}

func TestImportEmptySelectionStillCompletes(t *testing.T) {
	st := &memoryStore{m: batch.MatchedFileMap{"m-a": "old/a.m4a"}}
	rep := &recordingReporter{}
	svc := newService(t, st, rep, nil)

	report, err := svc.Import(context.Background(), picker.StaticPicker{})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if report.Cancelled || !report.Persisted || report.BatchID == "" {
		t.Fatalf("unexpected report: %+v", report)
	}
	if !maps.Equal(st.m, batch.MatchedFileMap{"m-a": "old/a.m4a"}) {
		t.Fatalf("existing mapping changed: %v", st.m)
	}
	if rep.calls != 0 {
		t.Fatal("nothing to report for empty batch")
	}
}

func TestImportMatchesReportsAndPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "matched.json")
	st := store.NewFileStore(path, false, nil)
	rep := &recordingReporter{}
	svc := newService(t, st, rep, nil)

	sel := picker.Selection{Files: []classify.PickedFile{
		{Name: "a.m4a", SizeBytes: sizeOf(1000), CopiedURI: "/sandbox/files/a.m4a"},
		{Name: "cover.png", MimeType: "image/png"},
		{Name: "mystery.m4a", MimeType: "audio/mp4", SizeBytes: sizeOf(5)},
	}}
	report, err := svc.Import(context.Background(), picker.StaticPicker{Selection: sel})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if len(report.Assigned) != 1 || report.Assigned[0].CatalogID != "m-a" || report.Excluded != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if rep.calls != 1 || len(rep.files) != 1 || rep.files[0].Name != "mystery.m4a" || !report.Reported {
		t.Fatalf("unexpected reporting: calls=%d files=%+v", rep.calls, rep.files)
	}
	stored, ok, err := st.Get(context.Background())
	if err != nil || !ok || stored["m-a"] != "files/a.m4a" {
		t.Fatalf("mapping not persisted: %v %v %v", stored, ok, err)
	}
}

func TestImportPersistenceFailureReturnsReport(t *testing.T) {
	st := &memoryStore{setErr: errors.New("disk full")}
	svc := newService(t, st, &recordingReporter{}, nil)

	sel := picker.Selection{Files: []classify.PickedFile{
		{Name: "b.m4a", SizeBytes: sizeOf(2000), CopiedURI: "/sandbox/files/b.m4a"},
	}}
	report, err := svc.Import(context.Background(), picker.StaticPicker{Selection: sel})
	if !errors.Is(err, store.ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
	if report.Persisted || report.Matched["m-b"] != "files/b.m4a" {
		t.Fatalf("in-memory result lost: %+v", report)
	}
}

func TestImportLoadFailureKeepsStoredMapping(t *testing.T) {
	prior := batch.MatchedFileMap{"m-b": "old/b.m4a"}
	st := &memoryStore{m: prior.Clone(), getErr: errors.New("lock timeout")}
	svc := newService(t, st, &recordingReporter{}, nil)
	sel := picker.Selection{Files: []classify.PickedFile{{Name: "a.m4a", SizeBytes: sizeOf(1000), CopiedURI: "/s/f/a.m4a"}}}

	report, err := svc.Import(context.Background(), picker.StaticPicker{Selection: sel})
	if !errors.Is(err, store.ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
	if st.setCall != 0 {
		t.Fatalf("store overwritten after failed read: %d Set calls", st.setCall)
	}
	if !maps.Equal(st.m, prior) {
		t.Fatalf("stored mapping changed: %v", st.m)
	}
	if report.Persisted || report.Matched["m-a"] != "f/a.m4a" {
		t.Fatalf("in-memory result lost: %+v", report)
	}
	if len(report.Warnings) == 0 {
		t.Fatal("expected a warning about the unsaved mapping")
	}
}

func TestImportDiscardsUnmatchedSandboxCopies(t *testing.T) {
	sandbox := t.TempDir()
	write := func(name string) string {
		path := filepath.Join(sandbox, name)
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		return path
	}
	matched := write("a.m4a")
	cover := write("cover.png")
	mystery := write("mystery.m4a")

	st := &memoryStore{}
	svc := newService(t, st, &recordingReporter{}, nil)
	sel := picker.Selection{Files: []classify.PickedFile{
		{Name: "a.m4a", SizeBytes: sizeOf(1000), CopiedURI: matched},
		{Name: "cover.png", MimeType: "image/png", SizeBytes: sizeOf(5), CopiedURI: cover},
		{Name: "mystery.m4a", SizeBytes: sizeOf(7), CopiedURI: "file://" + mystery},
	}}
	report, err := svc.Import(context.Background(), picker.StaticPicker{Selection: sel})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if report.Discarded != 2 {
		t.Fatalf("discarded = %d, want 2", report.Discarded)
	}
	if _, err := os.Stat(matched); err != nil {
		t.Fatalf("matched copy removed: %v", err)
	}
	for _, path := range []string{cover, mystery} {
		if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
			t.Fatalf("expected %s to be discarded, stat err=%v", path, err)
		}
	}
}

func TestImportReportingFailureIsSwallowed(t *testing.T) {
	st := &memoryStore{}
	rep := &recordingReporter{err: errors.New("offline")}
	svc := newService(t, st, rep, nil)
	sel := picker.Selection{Files: []classify.PickedFile{{Name: "mystery.m4a", MimeType: "audio/mp4"}}}
	report, err := svc.Import(context.Background(), picker.StaticPicker{Selection: sel})
	if err != nil {
		t.Fatalf("reporting failure must not surface: %v", err)
	}
	if report.Reported || !report.Persisted || len(report.Unsupported) != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
}

func TestImportConfidenceRescue(t *testing.T) {
	engine, err := confidence.NewEngine(confidence.DefaultPolicy())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	st := &memoryStore{}
	rep := &recordingReporter{}
	svc := newService(t, st, rep, engine)

	rescued := classify.PickedFile{Name: "re-export.m4a", SizeBytes: sizeOf(2010), SourceURI: "/in/re-export.m4a", CopiedURI: "/s/files/re-export.m4a"}
	weak := classify.PickedFile{Name: "other.m4a", SizeBytes: sizeOf(7), SourceURI: "/in/other.m4a", CopiedURI: "/s/files/other.m4a"}
	sel := picker.Selection{
		Files: []classify.PickedFile{rescued, weak},
		Analysis: map[string]confidence.AnalyzedFile{
			rescued.SourceURI: {Name: rescued.Name, SizeBytes: rescued.SizeBytes, Fingerprint: &catalog.Fingerprint{Hash: "feed"}},
			weak.SourceURI:    {Name: weak.Name, SizeBytes: weak.SizeBytes, Fingerprint: &catalog.Fingerprint{Hash: "0000"}},
		},
	}
	report, err := svc.Import(context.Background(), picker.StaticPicker{Selection: sel})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if report.Matched["m-b"] != "files/re-export.m4a" {
		t.Fatalf("expected rescue into m-b, got %v", report.Matched)
	}
	if len(report.Unsupported) != 1 || report.Unsupported[0].Name != "other.m4a" || report.Unsupported[0].Reason != batch.ReasonLowConfidence {
		t.Fatalf("unexpected unsupported: %+v", report.Unsupported)
	}
	if len(report.Assigned) != 1 || report.Assigned[0].Score < 0.6 {
		t.Fatalf("unexpected assignments: %+v", report.Assigned)
	}
}

func TestImportPickErrorIsReturned(t *testing.T) {
	st := &memoryStore{}
	svc := newService(t, st, &recordingReporter{}, nil)
	if _, err := svc.Import(context.Background(), picker.StaticPicker{Err: errors.New("boom")}); err == nil {
		t.Fatal("expected pick error")
	}
	if st.setCall != 0 {
		t.Fatal("failed pick must not persist")
	}
}
