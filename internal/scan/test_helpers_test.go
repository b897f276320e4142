package scan

import (
	"bytes"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"
)

// writeFile creates rel under root with size bytes of filler content.
func writeFile(t *testing.T, root, rel string, size int) string {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", rel, err)
	}
	if err := os.WriteFile(p, bytes.Repeat([]byte("x"), size), 0o644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
	return p
}

func quietFilter(ignore IgnoreList) *Filter {
	return NewFilter(ignore, log.New(io.Discard, "", 0))
}
