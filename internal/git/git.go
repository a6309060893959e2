// Package git wraps the git command line with the operations the sync
// worker needs: ensuring a checkout exists, pulling, committing and
// pushing, plus credential-store management for repository tokens.
package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
)

// Sentinel errors for common git failure modes. Use errors.Is to check.
var (
	// ErrConflicts indicates a pull stopped on merge conflicts.
	ErrConflicts = errors.New("merge conflicts")

	// ErrPushRejected indicates the remote rejected a non-fast-forward push.
	ErrPushRejected = errors.New("push rejected")
)

// authInURL matches embedded credentials in an http(s) remote URL.
var authInURL = regexp.MustCompile(`^(https?://)[^@/]+@`)

// CleanRemoteURL removes authentication tokens from a Git remote URL so
// it is safe to store and display.
func CleanRemoteURL(url string) string {
	if url == "" {
		return url
	}
	return authInURL.ReplaceAllString(url, "$1")
}

// Repo is a local checkout of the vault repository.
type Repo struct {
	dir      string
	url      string
	branch   string
	credFile string
}

// Open prepares a Repo handle for the checkout at dir tracking the
// given remote URL and branch. The checkout is created lazily by
// Ensure; Open itself touches nothing on disk.
func Open(dir, url, branch, credFile string) *Repo {
	if branch == "" {
		branch = "main"
	}
	return &Repo{
		dir:      dir,
		url:      CleanRemoteURL(url),
		branch:   branch,
		credFile: credFile,
	}
}

// Dir returns the checkout directory.
func (r *Repo) Dir() string {
	return r.dir
}

// Exists reports whether the checkout has been cloned.
func (r *Repo) Exists() bool {
	_, err := os.Stat(r.dir + "/.git")
	return err == nil
}

// Ensure clones the repository if the checkout is missing, otherwise
// points origin at the configured URL. Either way the credential helper
// is (re)configured so pulls can authenticate.
func (r *Repo) Ensure(ctx context.Context) error {
	if !r.Exists() {
		if err := os.MkdirAll(r.dir, 0o755); err != nil {
			return fmt.Errorf("create vault dir: %w", err)
		}
		if _, err := r.git(ctx, "", "clone", "--branch", r.branch, r.url, r.dir); err != nil {
			return err
		}
	} else {
		if _, err := r.git(ctx, r.dir, "remote", "set-url", "origin", r.url); err != nil {
			// First run against a checkout without an origin remote.
			if _, addErr := r.git(ctx, r.dir, "remote", "add", "origin", r.url); addErr != nil {
				return err
			}
		}
	}

	if r.credFile != "" {
		helper := fmt.Sprintf("store --file=%s", r.credFile)
		if _, err := r.git(ctx, r.dir, "config", "credential.helper", helper); err != nil {
			return err
		}
	}
	return nil
}

// Pull fast-forwards the checkout from origin. Linear history only:
// conflict resolution is out of scope, so conflicts surface as
// ErrConflicts and fail the cycle.
func (r *Repo) Pull(ctx context.Context) error {
	out, err := r.git(ctx, r.dir, "pull", "--ff-only", "origin", r.branch)
	if err != nil {
		s := string(out)
		if strings.Contains(s, "CONFLICT") || strings.Contains(s, "conflict") {
			return fmt.Errorf("%w: %s", ErrConflicts, firstLine(s))
		}
		return err
	}
	return nil
}

// IsDirty reports whether the worktree has uncommitted changes,
// including untracked files.
func (r *Repo) IsDirty(ctx context.Context) (bool, error) {
	out, err := r.git(ctx, r.dir, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return len(strings.TrimSpace(string(out))) > 0, nil
}

// CommitAll stages every change and commits it with the given message.
func (r *Repo) CommitAll(ctx context.Context, message string) error {
	if _, err := r.git(ctx, r.dir, "add", "-A"); err != nil {
		return err
	}
	_, err := r.git(ctx, r.dir, "commit", "-m", message)
	return err
}

// Push sends the current branch to origin.
func (r *Repo) Push(ctx context.Context) error {
	out, err := r.git(ctx, r.dir, "push", "origin", r.branch)
	if err != nil {
		s := string(out)
		if strings.Contains(s, "rejected") || strings.Contains(s, "non-fast-forward") {
			return fmt.Errorf("%w: %s", ErrPushRejected, firstLine(s))
		}
		return err
	}
	return nil
}

// git runs a git command, returning combined output. Errors carry the
// command and its output so cycle failures are diagnosable from logs.
func (r *Repo) git(ctx context.Context, dir string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	if dir != "" {
		cmd.Dir = dir
	}
	out, err := cmd.CombinedOutput()
	if err != nil {
		return out, fmt.Errorf("git %s failed: %w\n%s", strings.Join(args, " "), err, string(out))
	}
	return out, nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
