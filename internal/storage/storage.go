// Package storage retrieves raw scanned image bytes by the path recorded on
// a document. The engine only reads; uploads are owned by the intake layer.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound indicates the stored file no longer exists. Callers treat this
// as a terminal per-document error, not a retryable one.
var ErrNotFound = errors.New("storage: file not found")

// Storage provides read access to stored scan files.
type Storage interface {
	Retrieve(ctx context.Context, path string) ([]byte, error)
}

// Local serves files from a base directory on the local filesystem.
type Local struct {
	baseDir string
}

// NewLocal creates a Local storage rooted at baseDir.
func NewLocal(baseDir string) *Local {
	return &Local{baseDir: baseDir}
}

// Retrieve reads the file at the given relative path. Paths escaping the
// base directory are rejected.
func (l *Local) Retrieve(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	clean := filepath.Clean(path)
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return nil, fmt.Errorf("storage: invalid path %q", path)
	}

	data, err := os.ReadFile(filepath.Join(l.baseDir, clean))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("storage: reading %s: %w", path, err)
	}
	return data, nil
}
