package utils

import (
	"testing"

	"readmegen/internal/tester"
)

func TestPathsToTree(t *testing.T) {
	got := PathsToTree("repo", []string{"src/main.go", "README.md", "src/util/helper.go", ""})
	want := "repo\n" +
		"├── README.md\n" +
		"└── src\n" +
		"    ├── main.go\n" +
		"    └── util\n" +
		"        └── helper.go"
	tester.Eq(t, got, want)
}

func TestPathsToTreeEmpty(t *testing.T) {
	tester.Eq(t, PathsToTree("repo", nil), "repo")
	tester.Eq(t, PathsToTree("", nil), "")
}
