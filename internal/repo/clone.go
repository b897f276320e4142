package repo

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
)

// ErrInvalidURL is returned for inputs that do not name a github.com repository.
var ErrInvalidURL = errors.New("repo: invalid GitHub repository")

var segmentRE = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// Ref names a GitHub repository.
type Ref struct {
	Owner string
	Name  string
}

// CloneURL is the https clone URL of the repository.
func (r Ref) CloneURL() string {
	return fmt.Sprintf("https://github.com/%s/%s.git", r.Owner, r.Name)
}

func (r Ref) String() string { return r.Owner + "/" + r.Name }

// FromProfile builds a Ref from the profile and repository form fields.
func FromProfile(profile, name string) (Ref, error) {
	return newRef(strings.TrimSpace(profile), strings.TrimSuffix(strings.TrimSpace(name), ".git"))
}

// ParseGitHubURL accepts https://github.com/o/r(.git), github.com/o/r and
// git@github.com:o/r.git. Extra path segments (tree/main/...) are ignored.
func ParseGitHubURL(raw string) (Ref, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Ref{}, fmt.Errorf("%w: empty url", ErrInvalidURL)
	}
	if p, ok := strings.CutPrefix(raw, "git@github.com:"); ok {
		return splitOwnerRepo(p)
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Ref{}, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	host := strings.ToLower(u.Hostname())
	if host != "github.com" && host != "www.github.com" {
		return Ref{}, fmt.Errorf("%w: only github.com is supported", ErrInvalidURL)
	}
	return splitOwnerRepo(u.Path)
}

func splitOwnerRepo(p string) (Ref, error) {
	parts := strings.Split(strings.Trim(p, "/"), "/")
	if len(parts) < 2 {
		return Ref{}, fmt.Errorf("%w: %q", ErrInvalidURL, p)
	}
	return newRef(parts[0], strings.TrimSuffix(parts[1], ".git"))
}

func newRef(owner, name string) (Ref, error) {
	for _, s := range []string{owner, name} {
		if s == "" || s == "." || s == ".." || !segmentRE.MatchString(s) {
			return Ref{}, fmt.Errorf("%w: bad segment %q", ErrInvalidURL, s)
		}
	}
	return Ref{Owner: owner, Name: name}, nil
}

// GitRunner executes git with the given arguments.
type GitRunner func(ctx context.Context, args ...string) error

// RunGit runs the system git binary.
func RunGit(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Cloner makes shallow single-branch clones into per-request directories.
type Cloner struct {
	// Root holds the temporary clone directories; "" means os.TempDir().
	Root string
	Git  GitRunner
	Log  *log.Logger
}

// Checkout is a materialized clone. Call Cleanup when done with it.
type Checkout struct {
	Ref    Ref
	Branch string
	Dir    string
	tmp    string
}

// Cleanup removes the clone directory.
func (c Checkout) Cleanup() error {
	if c.tmp == "" {
		return nil
	}
	return os.RemoveAll(c.tmp)
}

// Clone runs git clone --depth 1 --branch <branch> --single-branch into a
// fresh directory. On failure nothing is left on disk.
func (c *Cloner) Clone(ctx context.Context, ref Ref, branch string) (Checkout, error) {
	if branch == "" {
		branch = "main"
	}
	root := c.Root
	if root == "" {
		root = os.TempDir()
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return Checkout{}, fmt.Errorf("repo: mkdir clone root: %w", err)
	}
	tmp, err := os.MkdirTemp(root, "readmegen-*")
	if err != nil {
		return Checkout{}, fmt.Errorf("repo: temp dir: %w", err)
	}
	dir := filepath.Join(tmp, ref.Name)

	git := c.Git
	if git == nil {
		git = RunGit
	}
	if c.Log != nil {
		c.Log.Printf("repo: cloning %s@%s into %s", ref, branch, dir)
	}
	args := []string{"clone", "--depth", "1", "--branch", branch, "--single-branch", ref.CloneURL(), dir}
	if err := git(ctx, args...); err != nil {
		_ = os.RemoveAll(tmp)
		return Checkout{}, fmt.Errorf("repo: failed to clone repository: %w", err)
	}
	return Checkout{Ref: ref, Branch: branch, Dir: dir, tmp: tmp}, nil
}
