package reporting_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"medmatch/internal/batch"
	"medmatch/internal/config"
	"medmatch/internal/reporting"
	"medmatch/internal/services"
)

func TestNewReporterReturnsNoopWithoutEndpoint(t *testing.T) {
	cfg := config.Default()
	r := reporting.NewReporter(&cfg)
	if _, ok := r.(reporting.Noop); !ok {
		t.Fatalf("expected noop reporter, got %T", r)
	}
	if err := r.Report(context.Background(), "u", []batch.UnsupportedFile{{Name: "x"}}); err != nil {
		t.Fatalf("noop returned %v", err)
	}
}

func TestHTTPReporterPostsSubmission(t *testing.T) {
	var (
		got       reporting.Submission
		gotAuth   string
		gotCT     string
		callCount int
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		callCount++
		gotAuth = r.Header.Get("Authorization")
		gotCT = r.Header.Get("Content-Type")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Reporting.Endpoint = srv.URL
	cfg.Reporting.Token = "secret"
	r := reporting.NewReporter(&cfg)

	ctx := services.WithBatchID(context.Background(), "batch-1")
	files := []batch.UnsupportedFile{{Name: "unknown.m4a", Type: "audio/mp4", Size: 7, URI: "file:///u.m4a", Reason: "no_match"}}
	if err := r.Report(ctx, "alice", files); err != nil {
		t.Fatalf("Report: %v", err)
	}
	if callCount != 1 || gotAuth != "Bearer secret" || gotCT != "application/json" {
		t.Fatalf("unexpected request: calls=%d auth=%q ct=%q", callCount, gotAuth, gotCT)
	}
	if got.User != "alice" || got.BatchID != "batch-1" || len(got.Files) != 1 || got.Files[0].Name != "unknown.m4a" {
		t.Fatalf("unexpected submission: %+v", got)
	}

	if err := r.Report(ctx, "alice", nil); err != nil || callCount != 1 {
		t.Fatalf("empty report should not be sent: err=%v calls=%d", err, callCount)
	}
}

func TestHTTPReporterWrapsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Reporting.Endpoint = srv.URL
	err := reporting.NewReporter(&cfg).Report(context.Background(), "u", []batch.UnsupportedFile{{Name: "x"}})
	if !errors.Is(err, reporting.ErrReporting) {
		t.Fatalf("expected ErrReporting, got %v", err)
	}
}
