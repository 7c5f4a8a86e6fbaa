// Package gitops keeps ledger snapshots under version control by shelling
// out to the git binary.
package gitops

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrNothingToCommit is returned by Commit when the staged paths match HEAD.
var ErrNothingToCommit = errors.New("nothing to commit")

// Author names the person a snapshot commit is attributed to.
type Author struct {
	Name  string
	Email string
}

func (a Author) String() string {
	return fmt.Sprintf("%s <%s>", a.Name, a.Email)
}

// Repo is a git working tree.
type Repo struct {
	Dir string
}

// Init initializes a git repository at dir, or opens the one already there.
func Init(dir string) (*Repo, error) {
	r := &Repo{Dir: dir}
	if IsRepo(dir) {
		return r, nil
	}
	if _, err := r.git("init", "--quiet"); err != nil {
		return nil, err
	}
	return r, nil
}

// IsRepo reports whether dir is the root of a git repository.
func IsRepo(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}

// Commit stages paths (relative to the repo root) and commits them as
// author. It returns the short hash of the new commit.
func (r *Repo) Commit(message string, author Author, paths ...string) (string, error) {
	if len(paths) == 0 {
		return "", errors.New("no paths to commit")
	}
	if _, err := r.git(append([]string{"add", "--"}, paths...)...); err != nil {
		return "", err
	}

	// exit status 1 means the index differs from HEAD
	diff := exec.Command("git", append([]string{"diff", "--cached", "--quiet", "--"}, paths...)...)
	diff.Dir = r.Dir
	if err := diff.Run(); err == nil {
		return "", ErrNothingToCommit
	}

	// committer identity comes from the author so commits work without
	// a global git config
	if _, err := r.git("-c", "user.name="+author.Name, "-c", "user.email="+author.Email,
		"commit", "--quiet", "-m", message, "--author", author.String()); err != nil {
		return "", err
	}

	out, err := r.git("rev-parse", "--short", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// Subjects returns the subject lines of the last n commits, newest first.
func (r *Repo) Subjects(n int) ([]string, error) {
	out, err := r.git("log", fmt.Sprintf("-%d", n), "--format=%s")
	if err != nil {
		return nil, err
	}
	s := strings.TrimSpace(string(out))
	if s == "" {
		return nil, nil
	}
	return strings.Split(s, "\n"), nil
}

func (r *Repo) git(args ...string) ([]byte, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = r.Dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return out, fmt.Errorf("git %s: %s: %w", args[0], strings.TrimSpace(string(out)), err)
	}
	return out, nil
}
