package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"readmegen/internal/llm"
	"readmegen/internal/llmclient"
	"readmegen/internal/readme"
	"readmegen/internal/repo"
	"readmegen/internal/scan"
)

func main() {
	_ = godotenv.Load()

	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "readmegen: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, stdout, stderr io.Writer) error {
	logger := log.New(stderr, "", log.LstdFlags)
	if opts.Quiet {
		logger = log.New(io.Discard, "", 0)
	}

	ignore, err := scan.LoadIgnoreList(opts.IgnoreList)
	if err != nil {
		return err
	}

	root := opts.Target
	if !isDir(root) {
		ref, err := repo.ParseGitHubURL(opts.Target)
		if err != nil {
			return fmt.Errorf("%s is neither a directory nor a GitHub URL: %w", opts.Target, err)
		}
		checkout, err := (&repo.Cloner{Log: logger}).Clone(ctx, ref, opts.Branch)
		if err != nil {
			return err
		}
		defer checkout.Cleanup()
		root = checkout.Dir
	}

	base, err := llmclient.New(ctx, opts.Provider, opts.Model, "", opts.Timeout)
	if err != nil {
		return err
	}
	defer base.Close()

	gen := &readme.Generator{
		Filter: scan.NewFilter(ignore, logger),
		Client: llm.Wrap(base,
			llm.CountCache(256, 0),
			llm.Retry(opts.Retries, llm.Immediate),
			llm.WithLogging(logger),
		),
		SynthClient: llm.Wrap(base, llm.WithLogging(logger)),
		Opts: readme.Options{
			TokenCeiling: opts.Ceiling,
			Selection:    readme.SelectionPolicy{Threshold: opts.Threshold, Fraction: opts.Fraction},
			Layout:       opts.Layout,
			Log:          logger,
		},
	}
	res, err := gen.Generate(ctx, root)
	if err != nil {
		return err
	}
	if !opts.Quiet {
		writeReport(stderr, root, res)
	}

	body := res.README
	if opts.HTML {
		body = res.HTML
	}
	if !strings.HasSuffix(body, "\n") {
		body += "\n"
	}
	if opts.Out == "" {
		_, err = io.WriteString(stdout, body)
		return err
	}
	if err := os.WriteFile(opts.Out, []byte(body), 0o644); err != nil {
		return err
	}
	logger.Printf("wrote %s", opts.Out)
	return nil
}

func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}
