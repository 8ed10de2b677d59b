// Package fileutil copies picked files into the sandbox directory.
package fileutil

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"medmatch/internal/textutil"
)

// Copied describes a completed sandbox copy.
type Copied struct {
	Path   string
	Size   int64
	SHA256 string
	// Reused is set when an identical file already sat at Path.
	Reused bool
}

// CopyVerified streams src to dst, hashing both sides, and removes dst on a
// size or hash mismatch. The copy aborts when ctx is cancelled.
func CopyVerified(ctx context.Context, src, dst string) (Copied, error) {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return Copied{}, fmt.Errorf("stat source: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return Copied{}, err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return Copied{}, err
	}
	defer func() { _ = out.Close() }()

	srcHasher := sha256.New()
	dstHasher := sha256.New()
	tee := io.TeeReader(&ctxReader{ctx: ctx, r: in}, srcHasher)
	written, err := io.Copy(io.MultiWriter(out, dstHasher), tee)
	if err != nil {
		_ = os.Remove(dst)
		return Copied{}, err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return Copied{}, err
	}

	if written != srcInfo.Size() {
		_ = os.Remove(dst)
		return Copied{}, fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", srcInfo.Size(), written)
	}
	srcSum, dstSum := srcHasher.Sum(nil), dstHasher.Sum(nil)
	if !bytes.Equal(srcSum, dstSum) {
		_ = os.Remove(dst)
		return Copied{}, errors.New("copy hash mismatch: file corrupted during copy")
	}
	return Copied{Path: dst, Size: written, SHA256: hex.EncodeToString(dstSum)}, nil
}

// CopyIntoDir copies src into dir. An existing file with the same name, size
// and SHA-256 is reused as is; a different file under that name is never
// clobbered and the copy moves on to "a (1).m4a", "a (2).m4a" and so on.
func CopyIntoDir(ctx context.Context, src, dir string) (Copied, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Copied{}, fmt.Errorf("create sandbox: %w", err)
	}
	srcInfo, err := os.Stat(src)
	if err != nil {
		return Copied{}, fmt.Errorf("stat source: %w", err)
	}
	base := textutil.SanitizeFileName(filepath.Base(src))
	if base == "" || base == "." {
		base = "file"
	}
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	var srcSum string
	for i := 0; i < 1000; i++ {
		name := base
		if i > 0 {
			name = fmt.Sprintf("%s (%d)%s", stem, i, ext)
		}
		dst := filepath.Join(dir, name)

		info, err := os.Stat(dst)
		switch {
		case err == nil:
			if !info.Mode().IsRegular() || info.Size() != srcInfo.Size() {
				continue
			}
			if srcSum == "" {
				if srcSum, err = HashFile(ctx, src); err != nil {
					return Copied{}, err
				}
			}
			dstSum, err := HashFile(ctx, dst)
			if err != nil {
				return Copied{}, err
			}
			if dstSum == srcSum {
				return Copied{Path: dst, Size: info.Size(), SHA256: dstSum, Reused: true}, nil
			}
			continue
		case !errors.Is(err, fs.ErrNotExist):
			return Copied{}, fmt.Errorf("inspect %s: %w", dst, err)
		}

		copied, err := CopyVerified(ctx, src, dst)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		return copied, err
	}
	return Copied{}, fmt.Errorf("no free name for %s in %s", base, dir)
}

// HashFile returns the hex SHA-256 of the file at path.
func HashFile(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, &ctxReader{ctx: ctx, r: f}); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
