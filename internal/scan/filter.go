package scan

import (
	"log"
	"os"
	"path/filepath"
	"strings"
)

// MaxFileBytes is the per-file size ceiling. Files at or above it are never
// listed or read.
const MaxFileBytes = 100 * 1024

// ignoredExtensions is fixed and not configurable.
var ignoredExtensions = map[string]struct{}{
	".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {}, ".ico": {}, ".svg": {},
	".lock": {}, ".json": {},
}

// IgnoredExtension reports whether ext (with leading dot, any case) is excluded.
func IgnoredExtension(ext string) bool {
	_, ok := ignoredExtensions[strings.ToLower(ext)]
	return ok
}

// Filter decides whether a file is eligible for the metadata listing.
type Filter struct {
	ignore IgnoreList
	log    *log.Logger
}

// NewFilter returns a Filter over the given ignore list. A nil logger uses log.Default().
func NewFilter(ignore IgnoreList, logger *log.Logger) *Filter {
	if logger == nil {
		logger = log.Default()
	}
	return &Filter{ignore: ignore, log: logger}
}

// IsValid rejects hidden names, ignored file names, ignored extensions and
// files of MaxFileBytes or more. A file whose size cannot be read is rejected
// and logged.
func (f *Filter) IsValid(name, path string) bool {
	_, ok := f.Check(name, path)
	return ok
}

// Check applies the IsValid rules and also returns the size it read, so
// callers can record the same value the size limit was checked against.
func (f *Filter) Check(name, path string) (int64, bool) {
	if isHidden(name) {
		return 0, false
	}
	if f.ignore.SkipFile(name) {
		return 0, false
	}
	if IgnoredExtension(filepath.Ext(name)) {
		return 0, false
	}
	size, err := fileSize(path)
	if err != nil {
		f.log.Printf("scan: size unavailable for %s: %v", path, err)
		return 0, false
	}
	return size, size < MaxFileBytes
}

func fileSize(path string) (int64, error) {
	st, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return st.Size(), nil
}
