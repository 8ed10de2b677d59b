package reporting

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"medmatch/internal/batch"
	"medmatch/internal/config"
	"medmatch/internal/services"
)

const userAgent = "medmatch/0.1.0"

// ErrReporting marks failures submitting unsupported files.
var ErrReporting = errors.New("reporting failure")

// Reporter forwards unsupported files for manual resolution.
type Reporter interface {
	Report(ctx context.Context, user string, files []batch.UnsupportedFile) error
}

// Submission is the JSON body posted to the endpoint.
type Submission struct {
	User        string                  `json:"user"`
	BatchID     string                  `json:"batch_id,omitempty"`
	SubmittedAt time.Time               `json:"submitted_at"`
	Files       []batch.UnsupportedFile `json:"files"`
}

// NewReporter builds an HTTP reporter when reporting.endpoint is set.
func NewReporter(cfg *config.Config) Reporter {
	if cfg == nil {
		return Noop{}
	}
	endpoint := strings.TrimSpace(cfg.Reporting.Endpoint)
	if endpoint == "" {
		return Noop{}
	}
	timeout := time.Duration(cfg.Reporting.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPReporter{
		endpoint: endpoint,
		token:    cfg.Reporting.Token,
		client:   &http.Client{Timeout: timeout},
		now:      time.Now,
	}
}

// HTTPReporter posts a Submission as JSON.
type HTTPReporter struct {
	endpoint string
	token    string
	client   *http.Client
	now      func() time.Time
}

// Report posts files. An empty list is not sent.
func (r *HTTPReporter) Report(ctx context.Context, user string, files []batch.UnsupportedFile) error {
	if r == nil || r.client == nil || len(files) == 0 {
		return nil
	}
	sub := Submission{
		User:        strings.TrimSpace(user),
		SubmittedAt: r.now().UTC(),
		Files:       files,
	}
	if id, ok := services.BatchIDFromContext(ctx); ok {
		sub.BatchID = id
	}
	body, err := json.Marshal(sub)
	if err != nil {
		return services.Wrap(ErrReporting, "reporting", "encode", "marshal submission", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return services.Wrap(ErrReporting, "reporting", "request", "build request", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Title", fmt.Sprintf("medmatch - %d unsupported file(s)", len(files)))
	req.Header.Set("Tags", "medmatch,unsupported")
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return services.Wrap(ErrReporting, "reporting", "send", "post unsupported files", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return services.Wrap(ErrReporting, "reporting", "send",
			fmt.Sprintf("endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), nil)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Noop discards reports.
type Noop struct{}

func (Noop) Report(context.Context, string, []batch.UnsupportedFile) error { return nil }
