package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"readmegen/internal/readme"
)

// writeReport prints the ranking with each file's fate, then the budget
// iterations.
func writeReport(w io.Writer, root string, res readme.Result) {
	selected := toSet(res.Selected)
	fitted := toSet(res.Fitted)
	skipped := make(map[string]string, len(res.Skipped))
	for _, s := range res.Skipped {
		skipped[s.Path] = s.Reason
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetTitle("Ranking (%d files listed)", res.FileCount)
	tw.AppendHeader(table.Row{"#", "FILE", "STATUS"})
	for i, p := range res.Ranked {
		status := "not selected"
		switch {
		case fitted[p]:
			status = "in prompt"
		case skipped[p] != "":
			status = "skipped: " + skipped[p]
		case selected[p]:
			status = "dropped for budget"
		}
		tw.AppendRow(table.Row{i + 1, relTo(root, p), status})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 2, Align: text.AlignLeft},
		{Number: 3, Align: text.AlignLeft},
	})
	tw.SetStyle(table.StyleLight)
	tw.Render()

	bw := table.NewWriter()
	bw.SetOutputMirror(w)
	bw.SetTitle("Budget")
	bw.AppendHeader(table.Row{"STEP", "FILES", "TOKENS"})
	for i, s := range res.Steps {
		bw.AppendRow(table.Row{i + 1, s.Blocks, s.Tokens})
	}
	bw.AppendFooter(table.Row{"", "final", fmt.Sprint(res.Tokens)})
	bw.SetStyle(table.StyleLight)
	bw.Render()
}

func toSet(paths []string) map[string]bool {
	out := make(map[string]bool, len(paths))
	for _, p := range paths {
		out[p] = true
	}
	return out
}

func relTo(root, p string) string {
	if rel, err := filepath.Rel(root, p); err == nil {
		return filepath.ToSlash(rel)
	}
	return p
}
