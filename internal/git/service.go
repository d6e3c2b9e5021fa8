// Package git wraps the git queries prfiles needs to discover a branch's change set.
package git

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"slices"
	"strings"

	log "github.com/chmouel/prfiles/internal/log"
	"github.com/chmouel/prfiles/internal/models"
)

// LookupPath is used to find executables in PATH. It's exposed as a package variable
// so tests can mock it and avoid depending on system binaries being installed.
var LookupPath = exec.LookPath

// Available reports whether a git executable can be found.
func Available() bool {
	_, err := LookupPath("git")
	return err == nil
}

// CommandError describes a git invocation that failed.
type CommandError struct {
	Command  string
	Dir      string
	ExitCode int // -1 when the process could not be started
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	switch {
	case e.Stderr != "":
		return fmt.Sprintf("%s: %s", e.Command, e.Stderr)
	case e.ExitCode >= 0:
		return fmt.Sprintf("%s (exit %d)", e.Command, e.ExitCode)
	default:
		return fmt.Sprintf("%s: %v", e.Command, e.Err)
	}
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// Service runs git queries against a working tree.
type Service struct {
	semaphore chan struct{}
}

// NewService constructs a Service and sets up concurrency limits.
func NewService() *Service {
	limit := runtime.NumCPU() * 2
	if limit < 4 {
		limit = 4
	}
	if limit > 32 {
		limit = 32
	}

	// Counting semaphore: the channel starts full and each running git process holds a token.
	semaphore := make(chan struct{}, limit)
	for range limit {
		semaphore <- struct{}{}
	}

	return &Service{semaphore: semaphore}
}

func (s *Service) debugf(format string, args ...any) {
	log.Printf(format, args...)
}

func (s *Service) acquireSemaphore(ctx context.Context) error {
	select {
	case <-s.semaphore:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) releaseSemaphore() {
	s.semaphore <- struct{}{}
}

func prepareAllowedCommand(ctx context.Context, args []string) (*exec.Cmd, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("no command provided")
	}

	switch args[0] {
	case "git":
		// #nosec G204 -- arguments for git command come from internal logic and are not shell interpolated
		return exec.CommandContext(ctx, "git", args[1:]...), nil
	default:
		return nil, fmt.Errorf("unsupported command %q", args[0])
	}
}

// RunGit executes a git command in cwd. Exit codes listed in okReturncodes are not
// treated as failures; any other failure is returned as a *CommandError.
func (s *Service) RunGit(ctx context.Context, args []string, cwd string, okReturncodes []int, strip bool) (string, error) {
	command := strings.Join(args, " ")
	if command == "" {
		command = "<empty>"
	}
	s.debugf("run: %s (cwd=%s)", command, cwd)

	cmd, err := prepareAllowedCommand(ctx, args)
	if err != nil {
		s.debugf("error: %s (unsupported command)", command)
		return "", &CommandError{Command: command, Dir: cwd, ExitCode: -1, Err: err}
	}
	if cwd != "" {
		cmd.Dir = cwd
	}

	if err := s.acquireSemaphore(ctx); err != nil {
		return "", &CommandError{Command: command, Dir: cwd, ExitCode: -1, Err: err}
	}
	output, err := cmd.Output()
	s.releaseSemaphore()

	if err != nil {
		var exitError *exec.ExitError
		if !errors.As(err, &exitError) {
			s.debugf("error: %s: %v", command, err)
			return "", &CommandError{Command: command, Dir: cwd, ExitCode: -1, Err: err}
		}
		returnCode := exitError.ExitCode()
		if !slices.Contains(okReturncodes, returnCode) {
			stderr := strings.TrimSpace(string(exitError.Stderr))
			s.debugf("error: %s (exit %d) %s", command, returnCode, stderr)
			return "", &CommandError{Command: command, Dir: cwd, ExitCode: returnCode, Stderr: stderr, Err: err}
		}
	}

	out := string(output)
	if strip {
		out = strings.TrimSpace(out)
	}
	s.debugf("ok: %s", command)
	return out, nil
}

// ShowTopLevel returns the absolute path of the working tree containing dir.
func (s *Service) ShowTopLevel(ctx context.Context, dir string) (string, error) {
	return s.RunGit(ctx, []string{"git", "rev-parse", "--show-toplevel"}, dir, []int{0}, true)
}

// CurrentBranch returns the abbreviated name of HEAD ("HEAD" when detached).
func (s *Service) CurrentBranch(ctx context.Context, dir string) (string, error) {
	return s.RunGit(ctx, []string{"git", "rev-parse", "--abbrev-ref", "HEAD"}, dir, []int{0}, true)
}

// BranchExists reports whether a local branch with the given name exists.
func (s *Service) BranchExists(ctx context.Context, dir, name string) (bool, error) {
	ref := "refs/heads/" + name
	// --quiet turns a missing ref into a silent exit 1.
	out, err := s.RunGit(ctx, []string{"git", "rev-parse", "--verify", "--quiet", ref}, dir, []int{0, 1}, true)
	if err != nil {
		return false, err
	}
	return out != "", nil
}

// MergeBase returns the best common ancestor of two refs.
func (s *Service) MergeBase(ctx context.Context, dir, a, b string) (string, error) {
	return s.RunGit(ctx, []string{"git", "merge-base", a, b}, dir, []int{0}, true)
}

// DiffNameStatus lists the files that differ between two refs together with their status.
// The trailing "--" keeps a ref named like a top-level path from being read as a pathspec.
func (s *Service) DiffNameStatus(ctx context.Context, dir, from, to string) ([]models.ChangeRecord, error) {
	raw, err := s.RunGit(ctx, []string{
		"git", "diff", "--name-status", "-z", from, to, "--",
	}, dir, []int{0}, false)
	if err != nil {
		return nil, err
	}
	return parseNameStatus(raw), nil
}

// ListUntracked lists files in the working tree that are neither tracked nor ignored.
func (s *Service) ListUntracked(ctx context.Context, dir string) ([]string, error) {
	raw, err := s.RunGit(ctx, []string{
		"git", "ls-files", "-z", "--others", "--exclude-standard",
	}, dir, []int{0}, false)
	if err != nil {
		return nil, err
	}
	return splitNUL(raw), nil
}

// parseNameStatus parses the output of git diff --name-status -z.
// Fields are NUL-terminated and paths are verbatim: "M\x00path\x00" or
// "R100\x00old\x00new\x00" for renames and copies.
func parseNameStatus(raw string) []models.ChangeRecord {
	fields := splitNUL(raw)
	records := make([]models.ChangeRecord, 0, len(fields)/2)
	for i := 0; i < len(fields); i++ {
		status := strings.TrimSpace(fields[i])
		if status == "" || i+1 >= len(fields) {
			break
		}
		record := models.ChangeRecord{
			Status: models.ChangeStatus(status[:1]),
			Path:   fields[i+1],
		}
		i++

		// R100 and C075 carry a similarity score and both paths.
		if record.Status == models.StatusRenamed || record.Status == models.StatusCopied {
			if i+1 >= len(fields) {
				break
			}
			record.OldPath = record.Path
			record.Path = fields[i+1]
			i++
		}

		records = append(records, record)
	}
	return records
}

// splitNUL splits NUL-terminated git output, dropping the empty trailing field.
func splitNUL(raw string) []string {
	var out []string
	for _, field := range strings.Split(raw, "\x00") {
		if field == "" {
			continue
		}
		out = append(out, field)
	}
	return out
}
