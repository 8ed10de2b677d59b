package picker_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"medmatch/internal/picker"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestFSPickerDescribesAndCopies(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in")
	if err := os.Mkdir(src, 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(src, "manual.pdf"), []byte("%PDF-1.4\n%âãÏÓ\n"))
	writeFile(t, filepath.Join(src, "notes.txt"), []byte("plain text"))
	writeFile(t, filepath.Join(src, ".hidden"), []byte("x"))
	writeFile(t, filepath.Join(src, "notes.txt.analysis.json"), []byte(`{"transcript":[{"text":"breathe in"}]}`))

	sandbox := filepath.Join(dir, "sandbox")
	sel, err := picker.FSPicker{Paths: []string{src}, SandboxDir: sandbox}.Pick(context.Background())
	if err != nil {
		t.Fatalf("Pick: %v", err)
	}
	if sel.Cancelled || len(sel.Files) != 2 {
		t.Fatalf("unexpected selection: %+v", sel)
	}
	byName := map[string]int{}
	for i, f := range sel.Files {
		byName[f.Name] = i
	}
	pdf := sel.Files[byName["manual.pdf"]]
	if pdf.MimeType != "application/pdf" {
		t.Fatalf("pdf mime = %q", pdf.MimeType)
	}
	txt := sel.Files[byName["notes.txt"]]
	if txt.MimeType != "text/plain" || txt.Size() != int64(len("plain text")) {
		t.Fatalf("unexpected txt: %+v", txt)
	}
	if txt.CopiedURI != filepath.Join(sandbox, "notes.txt") {
		t.Fatalf("copied uri = %q", txt.CopiedURI)
	}
	analysis, ok := sel.Analysis[txt.SourceURI]
	if !ok || len(analysis.Transcript) != 1 || analysis.Name != "notes.txt" || analysis.SizeBytes == nil {
		t.Fatalf("analysis sidecar not loaded: %+v", sel.Analysis)
	}
}

func TestFSPickerEmptyCompletes(t *testing.T) {
	sel, err := picker.FSPicker{}.Pick(context.Background())
	if err != nil || sel.Cancelled || len(sel.Files) != 0 {
		t.Fatalf("expected completed empty pick, got %+v %v", sel, err)
	}
}

func TestFSPickerMissingPath(t *testing.T) {
	_, err := picker.FSPicker{Paths: []string{filepath.Join(t.TempDir(), "missing.m4a")}}.Pick(context.Background())
	if err == nil {
		t.Fatal("expected error for missing path")
	}
}

func TestPromptPicker(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.m4a")
	writeFile(t, file, []byte("x"))

	tests := []struct {
		name      string
		input     string
		cancelled bool
		files     int
	}{
		{"eof without input", "", true, 0},
		{"explicit cancel", "cancel\n", true, 0},
		{"empty completion", "\n", false, 0},
		{"one path", file + "\n\n", false, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel, err := picker.PromptPicker{In: strings.NewReader(tt.input)}.Pick(context.Background())
			if err != nil {
				t.Fatalf("Pick: %v", err)
			}
			if sel.Cancelled != tt.cancelled || len(sel.Files) != tt.files {
				t.Fatalf("got %+v", sel)
			}
		})
	}
}
