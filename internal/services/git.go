package services

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"
)

// CommandRunner runs name with args and returns its combined output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs commands with [exec.CommandContext].
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// GitSync fast-forwards a working copy from its origin.
type GitSync struct {
	dir    string
	branch string
	run    CommandRunner
	logger *log.Logger
}

// NewGitSync creates a syncer for the working copy at dir. A nil run uses [ExecRunner].
func NewGitSync(dir, branch string, run CommandRunner, logger *log.Logger) *GitSync {
	if run == nil {
		run = ExecRunner
	}
	if logger == nil {
		logger = log.Default()
	}
	return &GitSync{dir: dir, branch: branch, run: run, logger: logger}
}

// Pull runs "git pull --ff-only origin {branch}" and reports HEAD before and after.
func (g *GitSync) Pull(ctx context.Context) (PullResult, error) {
	previous, err := g.head(ctx)
	if err != nil {
		return PullResult{}, err
	}

	out, err := g.git(ctx, "pull", "--ff-only", "origin", g.branch)
	if err != nil {
		return PullResult{Previous: previous}, err
	}
	g.logger.Debug("git pull", "output", strings.TrimSpace(string(out)))

	commit, err := g.head(ctx)
	if err != nil {
		return PullResult{Previous: previous}, err
	}

	return PullResult{Previous: previous, Commit: commit}, nil
}

func (g *GitSync) head(ctx context.Context) (string, error) {
	out, err := g.git(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

func (g *GitSync) git(ctx context.Context, args ...string) ([]byte, error) {
	out, err := g.run(ctx, "git", append([]string{"-C", g.dir}, args...)...)
	if err != nil {
		return out, fmt.Errorf("git %s: %w: %s", args[0], err, strings.TrimSpace(string(out)))
	}
	return out, nil
}
