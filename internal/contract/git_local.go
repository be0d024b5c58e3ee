package contract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// CommitMarker prefixes every commit header line of the churn log.
const CommitMarker = "::tagchurn-commit::"

// GitError reports a git invocation that exited with a non-zero status.
type GitError struct {
	Args   []string
	Stderr string
}

func (e *GitError) Error() string {
	return fmt.Sprintf("git %s failed: %s", strings.Join(e.Args, " "), e.Stderr)
}

// LocalGitClient implements the GitClient interface by executing the
// local git binary installed on the machine.
type LocalGitClient struct {
	gitPath string
}

var _ GitClient = &LocalGitClient{} // Compile-time check

// NewLocalGitClient creates a new instance of the local Git client.
// An empty gitPath selects "git" from PATH.
func NewLocalGitClient(gitPath string) *LocalGitClient {
	if gitPath == "" {
		gitPath = "git"
	}
	return &LocalGitClient{gitPath: gitPath}
}

// Run executes a git command and returns its stdout.
func (c *LocalGitClient) Run(ctx context.Context, repoPath string, args ...string) ([]byte, error) {
	fullArgs := append([]string{"-C", repoPath}, args...)
	cmd := exec.CommandContext(ctx, c.gitPath, fullArgs...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil, &GitError{Args: args, Stderr: strings.TrimSpace(stderr.String())}
	} else if err != nil {
		return nil, fmt.Errorf("git command failed: %w. Ensure %s is installed and available on your PATH", err, c.gitPath)
	}
	return out, nil
}

// GetRepoHash implements the GitClient interface.
func (c *LocalGitClient) GetRepoHash(ctx context.Context, repoPath string) (string, error) {
	out, err := c.Run(ctx, repoPath, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// GetRepoRoot implements the GitClient interface.
func (c *LocalGitClient) GetRepoRoot(ctx context.Context, contextPath string) (string, error) {
	out, err := c.Run(ctx, contextPath, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("not a git repository %q: %w", contextPath, err)
	}
	return strings.TrimSpace(string(out)), nil
}

// rangeOptions are the git log options accepted from untrusted callers.
// Anything else starting with "-" could write files or run commands.
var rangeOptions = []string{"--max-count=", "--skip=", "--since=", "--until=", "--after=", "--before=", "--author=", "--first-parent"}

// ValidateRangeArgs rejects range tokens other than revisions, pathspecs after
// "--" and a small set of limiting options. The CLI forwards its own args
// verbatim; this guards ranges that come from tool parameters.
func ValidateRangeArgs(args []string) error {
	pathspecs := false
	for i, arg := range args {
		switch {
		case pathspecs:
			continue
		case arg == "--":
			pathspecs = true
		case !strings.HasPrefix(arg, "-"):
			continue
		case arg == "-n":
			if i+1 >= len(args) || !isDigits(args[i+1]) {
				return fmt.Errorf("option -n needs a count")
			}
		case isDigits(arg[1:]), strings.HasPrefix(arg, "-n") && isDigits(arg[2:]):
			continue
		default:
			if !allowedRangeOption(arg) {
				return fmt.Errorf("git log option %q is not allowed in a range", arg)
			}
		}
	}
	return nil
}

func allowedRangeOption(arg string) bool {
	for _, opt := range rangeOptions {
		if arg == opt || (strings.HasSuffix(opt, "=") && strings.HasPrefix(arg, opt)) {
			return true
		}
	}
	return false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ChurnLogArgs builds the git log arguments used for churn attribution.
func ChurnLogArgs(rangeArgs []string, reverse bool) []string {
	args := []string{
		"log",
		"--pretty=format:" + CommitMarker + "%H %P",
		"--no-decorate",
		"--no-renames",
		"--no-color-moved",
		"--unified=0",
		"--histogram",
		"--diff-filter=ADM",
		"--no-merges",
		"-p",
	}
	if reverse {
		args = append(args, "--reverse")
	}
	return append(args, rangeArgs...)
}

// GetChurnLog implements the GitClient interface.
func (c *LocalGitClient) GetChurnLog(ctx context.Context, repoPath string, rangeArgs []string, reverse bool) ([]byte, error) {
	return c.Run(ctx, repoPath, ChurnLogArgs(rangeArgs, reverse)...)
}

// ShowFile implements the GitClient interface.
func (c *LocalGitClient) ShowFile(ctx context.Context, repoPath, rev, path string) ([]byte, error) {
	out, err := c.Run(ctx, repoPath, "show", rev+":"+path)
	var gitErr *GitError
	if errors.As(err, &gitErr) && isAbsentPath(gitErr.Stderr) {
		return nil, fmt.Errorf("%s:%s: %w", rev, path, ErrPathAbsent)
	}
	return out, err
}

func isAbsentPath(stderr string) bool {
	return strings.Contains(stderr, "does not exist") || strings.Contains(stderr, "exists on disk, but not in")
}
