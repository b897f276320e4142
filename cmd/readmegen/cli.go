package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"readmegen/internal/llmclient"
	"readmegen/internal/readme"
)

type options struct {
	Target     string
	Provider   string
	Model      string
	IgnoreList string
	Out        string
	Branch     string
	Ceiling    int
	Threshold  int
	Fraction   float64
	Retries    int
	Timeout    time.Duration
	Layout     bool
	HTML       bool
	Quiet      bool
}

// parseFlags reads flags with environment defaults. The single positional
// argument is a local directory or a GitHub URL.
func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := pflag.NewFlagSet("readmegen", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVarP(&o.Provider, "provider", "p", envOr("LLM_PROVIDER", llmclient.ProviderAnthropic), "LLM provider: anthropic, gemini, groq or fake.")
	fs.StringVarP(&o.Model, "model", "m", os.Getenv("LLM_MODEL"), "Model id (provider default when empty).")
	fs.StringVar(&o.IgnoreList, "ignore-list", envOr("IGNORE_LIST_PATH", "config/ignore_file_list.json"), "Ignore list JSON file.")
	fs.StringVarP(&o.Out, "out", "o", "", "Write the README here instead of stdout.")
	fs.StringVarP(&o.Branch, "branch", "b", "main", "Branch to clone when the target is a GitHub URL.")
	fs.IntVar(&o.Ceiling, "ceiling", readme.DefaultTokenCeiling, "Token ceiling for the synthesis prompt.")
	fs.IntVar(&o.Threshold, "select-threshold", readme.DefaultSelection().Threshold, "Keep every ranked file up to this many.")
	fs.Float64Var(&o.Fraction, "select-fraction", readme.DefaultSelection().Fraction, "Fraction of ranked files kept above the threshold.")
	fs.IntVar(&o.Retries, "retries", 3, "Attempts for ranking and token counting.")
	fs.DurationVar(&o.Timeout, "timeout", 60*time.Second, "Per-request LLM timeout.")
	fs.BoolVar(&o.Layout, "layout", false, "Include a tree of the selected files in the synthesis prompt.")
	fs.BoolVar(&o.HTML, "html", false, "Emit rendered HTML instead of markdown.")
	fs.BoolVarP(&o.Quiet, "quiet", "q", false, "Do not print the ranking report.")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: readmegen [flags] <dir|github-url>\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return o, fmt.Errorf("expected exactly one target, got %d", fs.NArg())
	}
	o.Target = strings.TrimSpace(fs.Arg(0))
	o.Provider = strings.ToLower(strings.TrimSpace(o.Provider))
	if o.Fraction <= 0 || o.Fraction > 1 {
		return o, fmt.Errorf("--select-fraction must be in (0, 1]")
	}
	return o, nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
