package scan

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// IgnoreList is the process-wide exclusion policy loaded once at startup.
// It is never mutated after construction.
type IgnoreList struct {
	dirs  map[string]struct{}
	files map[string]struct{}
}

type ignoreFile struct {
	Directories []string `json:"directories"`
	Files       []string `json:"files"`
}

// NewIgnoreList builds an IgnoreList from directory and file names.
// Names are matched exactly against base names; blanks are dropped.
func NewIgnoreList(dirs, files []string) IgnoreList {
	return IgnoreList{dirs: toSet(dirs), files: toSet(files)}
}

// LoadIgnoreList reads a JSON document of the form
// {"directories": [...], "files": [...]}.
func LoadIgnoreList(path string) (IgnoreList, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return IgnoreList{}, fmt.Errorf("scan: unable to load ignore list at %s: %w", path, err)
	}
	var in ignoreFile
	if err := json.Unmarshal(raw, &in); err != nil {
		return IgnoreList{}, fmt.Errorf("scan: invalid ignore list at %s: %w", path, err)
	}
	return NewIgnoreList(in.Directories, in.Files), nil
}

// SkipDir reports whether a directory with this base name is pruned.
func (l IgnoreList) SkipDir(name string) bool {
	if isHidden(name) {
		return true
	}
	_, ok := l.dirs[name]
	return ok
}

// SkipFile reports whether a file with this base name is listed for exclusion.
func (l IgnoreList) SkipFile(name string) bool {
	_, ok := l.files[name]
	return ok
}

// Dirs returns the ignored directory names in sorted order.
func (l IgnoreList) Dirs() []string { return sortedKeys(l.dirs) }

// Files returns the ignored file names in sorted order.
func (l IgnoreList) Files() []string { return sortedKeys(l.files) }

func isHidden(name string) bool { return strings.HasPrefix(name, ".") }

func toSet(names []string) map[string]struct{} {
	out := make(map[string]struct{}, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		out[n] = struct{}{}
	}
	return out
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
