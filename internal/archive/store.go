// Package archive keeps the prompts and ranking replies of each run so a
// generated README can be traced back to what the model was shown.
package archive

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

// Store persists per-run prompt artifacts.
type Store interface {
	Put(ctx context.Context, runID, path string, content []byte) error
	Get(ctx context.Context, runID, path string) ([]byte, error)
	List(ctx context.Context, runID string) ([]string, error)
}

var ErrNotFound = errors.New("artifact not found")

func validate(runID, path string) (string, string, error) {
	runID = strings.TrimSpace(runID)
	path = strings.TrimSpace(path)
	if runID == "" {
		return "", "", fmt.Errorf("run_id is required")
	}
	if strings.ContainsAny(runID, `/\`) || runID == "." || runID == ".." {
		return "", "", fmt.Errorf("invalid run_id %q", runID)
	}
	if path == "" {
		return "", "", fmt.Errorf("path is required")
	}
	clean := cleanPath(path)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", "", fmt.Errorf("invalid path %q", path)
	}
	return runID, clean, nil
}

// cleanPath folds backslashes to slashes and cleans the result relative to
// the run directory, so both separators are checked for traversal.
func cleanPath(p string) string {
	p = strings.ReplaceAll(strings.TrimSpace(p), `\`, "/")
	return path.Clean(strings.TrimLeft(p, "/"))
}

func objectKey(runID, path string) string {
	return strings.TrimSpace(runID) + "/" + cleanPath(path)
}
