package confidence_test

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"medmatch/internal/catalog"
	"medmatch/internal/confidence"
)

func size(n int64) *int64 { return &n }

func candidates() []catalog.Entry {
	return []catalog.Entry{
		{ID: "m-morning", Name: "Morning", Signatures: catalog.Signatures{
			ExactSizes:    []int64{1_000_000},
			Fingerprint:   &catalog.Fingerprint{Hash: "aaa", Peaks: []catalog.Peak{{Time: 1, Freq: 440}, {Time: 2, Freq: 880}}},
			Transcription: []catalog.Excerpt{{Text: "breathe slowly into the morning light"}},
		}},
		{ID: "m-evening", Name: "Evening", Signatures: catalog.Signatures{
			ExactSizes:    []int64{2_000_000},
			Fingerprint:   &catalog.Fingerprint{Hash: "bbb", SpectralHash: "spec-b"},
			Transcription: []catalog.Excerpt{{Text: "release the tension of the evening"}},
		}},
	}
}

func TestScoreRanksFingerprintMatchFirst(t *testing.T) {
	engine, err := confidence.NewEngine(confidence.DefaultPolicy())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	file := confidence.AnalyzedFile{
		Name:        "evening copy.m4a",
		SizeBytes:   size(2_000_000),
		Fingerprint: &catalog.Fingerprint{Hash: "bbb"},
		Transcript:  []catalog.Excerpt{{Text: "release the tension of the evening"}},
	}
	results, err := engine.Score(file, candidates())
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if len(results) != 2 || results[0].CatalogID != "m-evening" {
		t.Fatalf("unexpected ranking: %+v", results)
	}
	top := results[0]
	if top.FingerprintScore != 1 || top.SizeScore != 1 || top.Method != confidence.MethodCombined || !top.Accepted {
		t.Fatalf("unexpected top result: %+v", top)
	}
	best, ok := confidence.Best(results)
	if !ok || best.CatalogID != "m-evening" {
		t.Fatalf("Best = %+v %v", best, ok)
	}
}

func TestScoreSingleSignalMethod(t *testing.T) {
	engine, err := confidence.NewEngine(confidence.DefaultPolicy())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	results, err := engine.Score(confidence.AnalyzedFile{Name: "x", SizeBytes: size(1_000_000)}, candidates())
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if results[0].CatalogID != "m-morning" || results[0].Method != confidence.MethodSize {
		t.Fatalf("unexpected result: %+v", results[0])
	}
	if results[0].Accepted {
		t.Fatalf("size alone (0.2) must not pass threshold 0.6: %+v", results[0])
	}
	if results[1].Method != confidence.MethodNone {
		t.Fatalf("expected method none for non-contributing candidate, got %+v", results[1])
	}
	if _, ok := confidence.Best(results); ok {
		t.Fatal("no result should be accepted")
	}
}

func TestScoreStableTieBreak(t *testing.T) {
	engine, err := confidence.NewEngine(confidence.Policy{
		Weights:   confidence.Weights{Fingerprint: 1},
		Threshold: 0.5,
	}, confidence.WithFingerprintSimilarity(func(_, _ *catalog.Fingerprint) float64 { return 0.7 }))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	cands := []catalog.Entry{{ID: "m-1"}, {ID: "m-2"}, {ID: "m-3"}}
	results, err := engine.Score(confidence.AnalyzedFile{Fingerprint: &catalog.Fingerprint{Hash: "x"}}, cands)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	for i, want := range []string{"m-1", "m-2", "m-3"} {
		if results[i].CatalogID != want {
			t.Fatalf("position %d = %s, want %s", i, results[i].CatalogID, want)
		}
	}
}

func TestUnnormalizedWeightsWarnButScore(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	engine, err := confidence.NewEngine(confidence.Policy{
		Weights:   confidence.Weights{Fingerprint: 1, Size: 1},
		Threshold: 1.5,
	}, confidence.WithLogger(logger))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if len(engine.Warnings()) != 1 {
		t.Fatalf("expected one warning, got %v", engine.Warnings())
	}
	if !strings.Contains(buf.String(), "scoring weights not normalized") {
		t.Fatalf("expected warning log, got %q", buf.String())
	}
	results, err := engine.Score(confidence.AnalyzedFile{
		SizeBytes:   size(1_000_000),
		Fingerprint: &catalog.Fingerprint{Hash: "aaa"},
	}, candidates())
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if results[0].CombinedScore != 2 || !results[0].Accepted {
		t.Fatalf("expected raw sum 2 accepted, got %+v", results[0])
	}
}

func TestPolicyValidate(t *testing.T) {
	tests := []struct {
		name   string
		policy confidence.Policy
	}{
		{"negative weight", confidence.Policy{Weights: confidence.Weights{Fingerprint: -1, Size: 1}}},
		{"threshold above sum", confidence.Policy{Weights: confidence.Weights{Size: 0.5}, Threshold: 0.9}},
		{"all zero", confidence.Policy{Threshold: 0.1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.policy.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
	if err := confidence.DefaultPolicy().Validate(); err != nil {
		t.Fatalf("default policy invalid: %v", err)
	}
}

func TestPolicyValidateNamesFirstInvalidWeight(t *testing.T) {
	policy := confidence.Policy{Weights: confidence.Weights{Fingerprint: -1, Transcription: -2, Size: -3}}
	for i := 0; i < 20; i++ {
		err := policy.Validate()
		if err == nil || !strings.HasPrefix(err.Error(), "fingerprint weight") {
			t.Fatalf("run %d: expected fingerprint weight error, got %v", i, err)
		}
	}
}

func TestScoreWithoutSignals(t *testing.T) {
	engine, err := confidence.NewEngine(confidence.DefaultPolicy())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if _, err := engine.Score(confidence.AnalyzedFile{Name: "empty"}, candidates()); !errors.Is(err, confidence.ErrNoSignals) {
		t.Fatalf("expected ErrNoSignals, got %v", err)
	}
}
