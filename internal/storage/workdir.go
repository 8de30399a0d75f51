package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// WorkDir is the transient on-disk area holding input and output files for
// in-flight conversion jobs. Collisions between concurrent jobs are
// prevented structurally: every stored file is prefixed with its job ID.
type WorkDir struct {
	dir string
}

// NewWorkDir initializes the working storage area rooted at dir.
func NewWorkDir(dir string) (*WorkDir, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("storage: work dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: ensure work dir: %w", err)
	}
	return &WorkDir{dir: dir}, nil
}

// Dir returns the configured root directory.
func (w *WorkDir) Dir() string {
	if w == nil {
		return ""
	}
	return w.dir
}

// SaveUpload persists the upload under a unique, traversal-safe name
// derived from the job ID and the client-supplied filename, and returns
// the stored path.
func (w *WorkDir) SaveUpload(jobID, originalName string, r io.Reader) (string, error) {
	if w == nil {
		return "", errors.New("storage: no work dir configured")
	}
	path := filepath.Join(w.dir, jobID+"_"+SanitizeName(originalName))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("storage: create input file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("storage: write input file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("storage: close input file: %w", err)
	}
	return path, nil
}

// OutputPath derives the converted-file path from an input path by
// swapping its extension.
func (w *WorkDir) OutputPath(inputPath, ext string) string {
	return strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + ext
}

// Remove deletes a stored file. A file that is already gone is not an
// error: per-job cleanup and the retention sweeper may race on the same
// path.
func (w *WorkDir) Remove(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: remove %s: %w", filepath.Base(path), err)
	}
	return nil
}

// SanitizeName reduces a client-supplied filename to a safe single path
// element. The stored name stays unique regardless because of the job ID
// prefix.
func SanitizeName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(filepath.Clean(name))
	if name == "." || name == ".." || name == "/" {
		return "upload"
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r < 0x20, r == 0x7f:
			// drop control characters
		case r == ':', r == '*', r == '?', r == '"', r == '<', r == '>', r == '|':
			b.WriteByte('_')
		default:
			b.WriteRune(r)
		}
	}
	out := strings.TrimSpace(b.String())
	if out == "" || out == "." || out == ".." {
		return "upload"
	}
	return out
}
