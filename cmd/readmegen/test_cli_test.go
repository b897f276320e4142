package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"readmegen/internal/readme"
	"readmegen/internal/tester"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		tester.NoErr(t, os.MkdirAll(filepath.Dir(p), 0o755))
		tester.NoErr(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return root
}

func ignoreFile(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "ignore.json")
	tester.NoErr(t, os.WriteFile(p, []byte(`{"directories":["vendor"],"files":[]}`), 0o644))
	return p
}

func TestParseFlags(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "")
	o, err := parseFlags([]string{"-p", "Fake", "--ceiling", "800", "--layout", "./repo"}, io.Discard)
	tester.NoErr(t, err)
	tester.Eq(t, o.Provider, "fake")
	tester.Eq(t, o.Ceiling, 800)
	tester.True(t, o.Layout)
	tester.Eq(t, o.Target, "./repo")
	tester.Eq(t, o.Branch, "main")
	tester.Eq(t, o.Fraction, 0.8)

	_, err = parseFlags(nil, io.Discard)
	tester.Err(t, err)
	_, err = parseFlags([]string{"--select-fraction", "0", "x"}, io.Discard)
	tester.Err(t, err)
}

func TestRunLocalDirectoryWithFakeProvider(t *testing.T) {
	root := writeTree(t, map[string]string{
		"main.go":       "package main\n",
		"internal/a.go": "package internal\n",
		"vendor/dep.go": "package dep\n",
		"docs/usage.md": "# Usage\n",
	})
	out := filepath.Join(t.TempDir(), "README.md")
	var stdout, stderr bytes.Buffer

	err := run(context.Background(), options{
		Target:     root,
		Provider:   "fake",
		IgnoreList: ignoreFile(t),
		Out:        out,
		Ceiling:    readme.DefaultTokenCeiling,
		Threshold:  10,
		Fraction:   0.8,
		Retries:    3,
	}, &stdout, &stderr)
	tester.NoErr(t, err)
	tester.Eq(t, stdout.Len(), 0)

	raw, err := os.ReadFile(out)
	tester.NoErr(t, err)
	tester.Contains(t, string(raw), "# Project")
	tester.NotContains(t, string(raw), "dep.go")
	tester.Contains(t, strings.ToLower(stderr.String()), "ranking (3 files listed)")
	tester.Contains(t, stderr.String(), "in prompt")
}

func TestRunRejectsUnknownTarget(t *testing.T) {
	err := run(context.Background(), options{
		Target:     "not-a-dir-or-url",
		Provider:   "fake",
		IgnoreList: ignoreFile(t),
		Quiet:      true,
	}, io.Discard, io.Discard)
	tester.Err(t, err)
}

func TestWriteReportMarksEachFile(t *testing.T) {
	root := "/r"
	var buf bytes.Buffer
	writeReport(&buf, root, readme.Result{
		FileCount: 4,
		Ranked:    []string{"/r/a.go", "/r/b.go", "/r/c.go", "/r/d.go"},
		Selected:  []string{"/r/a.go", "/r/b.go", "/r/c.go"},
		Fitted:    []string{"/r/a.go"},
		Skipped:   []readme.Skipped{{Path: "/r/b.go", Reason: "too large"}},
		Tokens:    900,
		Steps:     []readme.BudgetStep{{Blocks: 2, Tokens: 1200}, {Blocks: 1, Tokens: 900}},
	})
	s := buf.String()
	tester.Contains(t, s, "in prompt")
	tester.Contains(t, s, "skipped: too large")
	tester.Contains(t, s, "dropped for budget")
	tester.Contains(t, s, "not selected")
	tester.Contains(t, s, "1200")
}
