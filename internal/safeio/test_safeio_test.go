package safeio

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"readmegen/internal/tester"
)

func TestSafeFSAllowsAbsoluteUnderRoot(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a.txt")
	tester.NoErr(t, os.WriteFile(p, []byte("hello"), 0o644))
	fs, err := NewSafeFS(dir)
	tester.NoErr(t, err)
	s, err := fs.ReadText(p, 0)
	tester.NoErr(t, err, "ReadText absolute")
	tester.Eq(t, s, "hello")
}

func TestSafeFSRejectsTraversal(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "repo")
	tester.NoErr(t, os.MkdirAll(root, 0o755))
	tester.NoErr(t, os.WriteFile(filepath.Join(parent, "secret.txt"), []byte("x"), 0o644))

	fs, err := NewSafeFS(root)
	tester.NoErr(t, err)

	_, err = fs.ReadText("../secret.txt", 0)
	tester.Err(t, err, "relative traversal")
	_, err = fs.ReadText(filepath.Join(root, "..", "secret.txt"), 0)
	tester.Err(t, err, "absolute path outside root")
}

func TestReadTextSizeLimit(t *testing.T) {
	dir := t.TempDir()
	tester.NoErr(t, os.WriteFile(filepath.Join(dir, "big.txt"), []byte(strings.Repeat("a", 100)), 0o644))
	fs, err := NewSafeFS(dir)
	tester.NoErr(t, err)

	_, err = fs.ReadText("big.txt", 100)
	tester.True(t, errors.Is(err, ErrTooLarge), "size equal to limit is rejected")

	s, err := fs.ReadText("big.txt", 101)
	tester.NoErr(t, err)
	tester.Len(t, s, 100)
}

func TestReadTextReplacesInvalidUTF8(t *testing.T) {
	dir := t.TempDir()
	tester.NoErr(t, os.WriteFile(filepath.Join(dir, "bin.txt"), []byte{'o', 'k', 0xff, 0xfe, '!'}, 0o644))
	fs, err := NewSafeFS(dir)
	tester.NoErr(t, err)

	s, err := fs.ReadText("bin.txt", 0)
	tester.NoErr(t, err)
	tester.Eq(t, s, "ok\uFFFD!")
}

func TestReadTextRejectsDirectory(t *testing.T) {
	dir := t.TempDir()
	tester.NoErr(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	fs, err := NewSafeFS(dir)
	tester.NoErr(t, err)
	_, err = fs.ReadText("sub", 0)
	tester.Err(t, err)
}
