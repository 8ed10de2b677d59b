package picker

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"medmatch/internal/classify"
	"medmatch/internal/confidence"
	"medmatch/internal/fileutil"
	"medmatch/internal/logging"
)

// AnalysisSuffix names sidecar files carrying precomputed analysis data.
const AnalysisSuffix = ".analysis.json"

// Selection is the result of a pick.
type Selection struct {
	Files []classify.PickedFile
	// Analysis holds sidecar data keyed by PickedFile.SourceURI.
	Analysis  map[string]confidence.AnalyzedFile
	Cancelled bool
}

// Picker produces a selection of files.
type Picker interface {
	Pick(ctx context.Context) (Selection, error)
}

// StaticPicker returns a fixed selection.
type StaticPicker struct {
	Selection Selection
	Err       error
}

func (p StaticPicker) Pick(context.Context) (Selection, error) {
	return p.Selection, p.Err
}

// FSPicker resolves filesystem paths. Directories contribute their regular,
// non-hidden files (not recursive). When SandboxDir is set each file is
// copied there and CopiedURI points at the copy.
type FSPicker struct {
	Paths      []string
	SandboxDir string
	Logger     *slog.Logger
}

// Pick resolves every path. A missing path fails the pick; an empty path
// list completes with no files.
func (p FSPicker) Pick(ctx context.Context) (Selection, error) {
	logger := p.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "picker")

	sources, err := expand(p.Paths)
	if err != nil {
		return Selection{}, err
	}
	sel := Selection{Files: make([]classify.PickedFile, 0, len(sources))}
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return Selection{}, err
		}
		file, err := p.describe(ctx, src)
		if err != nil {
			return Selection{}, err
		}
		if analysis, ok, err := loadAnalysis(src); err != nil {
			logging.WarnWithContext(logger, "ignoring unreadable analysis sidecar", "analysis_sidecar_invalid",
				logging.String(logging.FieldFileName, file.Name),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "regenerate "+filepath.Base(src)+AnalysisSuffix),
				logging.String(logging.FieldImpact, "confidence scoring skipped for this file"),
			)
		} else if ok {
			if sel.Analysis == nil {
				sel.Analysis = make(map[string]confidence.AnalyzedFile)
			}
			if analysis.Name == "" {
				analysis.Name = file.Name
			}
			if analysis.SizeBytes == nil {
				analysis.SizeBytes = file.SizeBytes
			}
			sel.Analysis[file.SourceURI] = analysis
		}
		logger.Debug("picked file",
			logging.String(logging.FieldFileName, file.Name),
			logging.Int64("size_bytes", file.Size()),
			logging.String("mime_type", file.MimeType),
			logging.String("copied_uri", file.CopiedURI))
		sel.Files = append(sel.Files, file)
	}
	return sel, nil
}

func (p FSPicker) describe(ctx context.Context, src string) (classify.PickedFile, error) {
	info, err := os.Stat(src)
	if err != nil {
		return classify.PickedFile{}, fmt.Errorf("stat %s: %w", src, err)
	}
	size := info.Size()
	file := classify.PickedFile{
		Name:      filepath.Base(src),
		SizeBytes: &size,
		MimeType:  DetectMIME(src),
		SourceURI: src,
	}
	if strings.TrimSpace(p.SandboxDir) != "" {
		copied, err := fileutil.CopyIntoDir(ctx, src, p.SandboxDir)
		if err != nil {
			return classify.PickedFile{}, fmt.Errorf("copy %s into sandbox: %w", src, err)
		}
		file.CopiedURI = copied.Path
	}
	return file, nil
}

// DetectMIME sniffs path's content, falling back to the extension when the
// content is not recognised.
func DetectMIME(path string) string {
	if m, err := mimetype.DetectFile(path); err == nil {
		value, _, _ := strings.Cut(m.String(), ";")
		if value != "application/octet-stream" {
			return value
		}
	}
	if byExt := mime.TypeByExtension(filepath.Ext(path)); byExt != "" {
		value, _, _ := strings.Cut(byExt, ";")
		return value
	}
	return "application/octet-stream"
}

func expand(paths []string) ([]string, error) {
	var out []string
	for _, raw := range paths {
		path := strings.TrimSpace(raw)
		if path == "" {
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("pick %s: %w", path, err)
		}
		if !info.IsDir() {
			out = append(out, path)
			continue
		}
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("read directory %s: %w", path, err)
		}
		for _, entry := range entries {
			name := entry.Name()
			if !entry.Type().IsRegular() || strings.HasPrefix(name, ".") || strings.HasSuffix(name, AnalysisSuffix) {
				continue
			}
			out = append(out, filepath.Join(path, name))
		}
	}
	return out, nil
}

func loadAnalysis(src string) (confidence.AnalyzedFile, bool, error) {
	data, err := os.ReadFile(src + AnalysisSuffix)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return confidence.AnalyzedFile{}, false, nil
		}
		return confidence.AnalyzedFile{}, false, err
	}
	var analysis confidence.AnalyzedFile
	if err := json.Unmarshal(data, &analysis); err != nil {
		return confidence.AnalyzedFile{}, false, fmt.Errorf("parse %s: %w", src+AnalysisSuffix, err)
	}
	return analysis, true, nil
}

// PromptPicker reads one path per line from In until a blank line or EOF and
// resolves them with FSPicker. EOF before any input, or a line reading
// "cancel", cancels the pick.
type PromptPicker struct {
	In     io.Reader
	Out    io.Writer
	Picker FSPicker
}

func (p PromptPicker) Pick(ctx context.Context) (Selection, error) {
	if p.Out != nil {
		fmt.Fprintln(p.Out, "Enter file or directory paths, one per line. Finish with an empty line; type 'cancel' to abort.")
	}
	scanner := bufio.NewScanner(p.In)
	var paths []string
	sawInput := false
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return Selection{}, err
		}
		sawInput = true
		line := strings.TrimSpace(scanner.Text())
		if strings.EqualFold(line, "cancel") {
			return Selection{Cancelled: true}, nil
		}
		if line == "" {
			break
		}
		paths = append(paths, line)
	}
	if err := scanner.Err(); err != nil {
		return Selection{}, fmt.Errorf("read paths: %w", err)
	}
	if !sawInput {
		return Selection{Cancelled: true}, nil
	}
	inner := p.Picker
	inner.Paths = paths
	return inner.Pick(ctx)
}
