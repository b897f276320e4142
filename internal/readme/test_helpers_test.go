package readme

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"readmegen/internal/scan"
)

func writeFile(t *testing.T, root, rel string, size int) string {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(strings.Repeat("x", size)), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func writeText(t *testing.T, root, rel, content string) string {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func quietLogger() *log.Logger { return log.New(io.Discard, "", 0) }

func newFilter() *scan.Filter {
	return scan.NewFilter(scan.NewIgnoreList([]string{"node_modules"}, []string{"yarn.lock"}), quietLogger())
}

// scenarioRepo is README_OLD.md (1 KB), src/main.py (2 KB) and logo.png (50 KB).
func scenarioRepo(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "README_OLD.md", 1024)
	writeFile(t, root, "src/main.py", 2048)
	writeFile(t, root, "logo.png", 50*1024)
	return root
}
