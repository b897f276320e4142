package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"readmegen/internal/tester"
)

func writeIgnoreList(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "ignore.json")
	tester.NoErr(t, os.WriteFile(p, []byte(`{"directories":["node_modules"],"files":["package-lock.json"]}`), 0o644))
	return p
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("IGNORE_LIST_PATH", writeIgnoreList(t))
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")
	t.Setenv("PORT", "")

	cfg, err := Load(nil)
	tester.NoErr(t, err)
	tester.Eq(t, cfg.Port, ":8000")
	tester.Eq(t, cfg.LLM.Provider, "anthropic")
	tester.Eq(t, cfg.LLM.APIKey, "sk-test")
	tester.Eq(t, cfg.LLM.RetryAttempts, 3)
	tester.Eq(t, cfg.LLM.Timeout, 60*time.Second)
	tester.Eq(t, cfg.TokenCeiling, 5000)
	tester.Eq(t, cfg.Selection.Threshold, 10)
	tester.Eq(t, cfg.Selection.Fraction, 0.8)
	tester.Eq(t, cfg.CloneBranch, "main")
	tester.True(t, cfg.Ignore.SkipDir("node_modules"))
	tester.True(t, cfg.Ignore.SkipFile("package-lock.json"))
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("IGNORE_LIST_PATH", writeIgnoreList(t))
	t.Setenv("LLM_PROVIDER", "groq")
	t.Setenv("GROQ_API_KEY", "gsk")
	t.Setenv("PORT", "9090")
	t.Setenv("LLM_TIMEOUT", "15")
	t.Setenv("LLM_RETRY_BACKOFF", "250ms")
	t.Setenv("TOKEN_CEILING", "1200")
	t.Setenv("ARCHIVE_BACKEND", "memory")

	cfg, err := Load([]string{"-port", ":7000"})
	tester.NoErr(t, err)
	tester.Eq(t, cfg.Port, ":9090")
	tester.Eq(t, cfg.LLM.APIKey, "gsk")
	tester.Eq(t, cfg.LLM.Timeout, 15*time.Second)
	tester.Eq(t, cfg.LLM.RetryBackoff, 250*time.Millisecond)
	tester.Eq(t, cfg.TokenCeiling, 1200)
	tester.Eq(t, cfg.Archive.Backend, "memory")
}

func TestLoadFailures(t *testing.T) {
	ignore := writeIgnoreList(t)
	cases := []struct {
		name string
		env  map[string]string
	}{
		{"missing key", map[string]string{"LLM_PROVIDER": "anthropic", "ANTHROPIC_API_KEY": ""}},
		{"unknown provider", map[string]string{"LLM_PROVIDER": "openai"}},
		{"missing ignore list", map[string]string{"LLM_PROVIDER": "fake", "IGNORE_LIST_PATH": filepath.Join(t.TempDir(), "nope.json")}},
		{"bad fraction", map[string]string{"LLM_PROVIDER": "fake", "SELECT_FRACTION": "1.5"}},
		{"s3 without endpoint", map[string]string{"LLM_PROVIDER": "fake", "ARCHIVE_BACKEND": "s3", "ARCHIVE_S3_ENDPOINT": ""}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("IGNORE_LIST_PATH", ignore)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load(nil)
			tester.Err(t, err)
		})
	}
}
