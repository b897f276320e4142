package scan

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// RootDir is the directory key used for files at the repository root.
const RootDir = "."

// FileEntry describes one eligible file.
type FileEntry struct {
	Name   string  `json:"file_name"`
	Path   string  `json:"file_path"` // absolute
	SizeKB float64 `json:"size_kb"`
}

// DirListing holds the eligible files of one directory, in walk order.
type DirListing struct {
	Dir   string      `json:"dir"` // repo-relative, forward slashes; "." for the root
	Files []FileEntry `json:"files"`
}

// Metadata maps repo-relative directories to their eligible files. Directories
// with no eligible files are kept so the structure stays visible.
type Metadata struct {
	Root string       `json:"root"`
	Dirs []DirListing `json:"dirs"`

	index map[string]int
}

// Files returns the entries recorded for dir.
func (m *Metadata) Files(dir string) []FileEntry {
	if m == nil {
		return nil
	}
	if i, ok := m.index[dir]; ok {
		return m.Dirs[i].Files
	}
	return nil
}

// HasDir reports whether dir was visited.
func (m *Metadata) HasDir(dir string) bool {
	if m == nil {
		return false
	}
	_, ok := m.index[dir]
	return ok
}

// FileCount is the number of eligible files across all directories.
func (m *Metadata) FileCount() int {
	if m == nil {
		return 0
	}
	n := 0
	for _, d := range m.Dirs {
		n += len(d.Files)
	}
	return n
}

// RelPaths returns repo-relative paths of every eligible file.
func (m *Metadata) RelPaths() []string {
	if m == nil {
		return nil
	}
	out := make([]string, 0, m.FileCount())
	for _, d := range m.Dirs {
		for _, f := range d.Files {
			if d.Dir == RootDir {
				out = append(out, f.Name)
				continue
			}
			out = append(out, d.Dir+"/"+f.Name)
		}
	}
	return out
}

// Listing serializes the metadata for the ranking prompt. Every file line
// already has the "<name> (<dir>): <size> KB" shape the ranking must echo.
func (m *Metadata) Listing() string {
	if m == nil {
		return ""
	}
	var sb strings.Builder
	for _, d := range m.Dirs {
		fmt.Fprintf(&sb, "Directory: %s\n", d.Dir)
		if len(d.Files) == 0 {
			sb.WriteString("  (no eligible files)\n")
			continue
		}
		for _, f := range d.Files {
			fmt.Fprintf(&sb, "  - %s (%s): %.2f KB\n", f.Name, d.Dir, f.SizeKB)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (m *Metadata) dir(rel string) *DirListing {
	if i, ok := m.index[rel]; ok {
		return &m.Dirs[i]
	}
	m.index[rel] = len(m.Dirs)
	m.Dirs = append(m.Dirs, DirListing{Dir: rel})
	return &m.Dirs[len(m.Dirs)-1]
}

// BuildMetadata walks root, pruning hidden and ignored directories before
// descending into them, and records every file accepted by filter under its
// containing directory. Unreadable entries below the root are skipped.
func BuildMetadata(root string, filter *Filter) (*Metadata, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	md := &Metadata{Root: abs, index: map[string]int{}}

	err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == abs {
				return err
			}
			filter.log.Printf("scan: skipping %s: %v", path, err)
			return nil
		}
		rel, relErr := filepath.Rel(abs, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if path != abs && filter.ignore.SkipDir(d.Name()) {
				return filepath.SkipDir
			}
			md.dir(rel)
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		size, ok := filter.Check(d.Name(), path)
		if !ok {
			return nil
		}
		dir := filepath.ToSlash(filepath.Dir(rel))
		listing := md.dir(dir)
		listing.Files = append(listing.Files, FileEntry{
			Name:   d.Name(),
			Path:   path,
			SizeKB: float64(size) / 1024,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return md, nil
}
