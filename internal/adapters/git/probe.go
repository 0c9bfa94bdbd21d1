// Package git implements ports.GitProbe by shelling out to the git binary,
// grounded on the teacher's own pattern of invoking an external tool via
// os/exec rather than linking a porcelain library for an operation this
// narrow.
package git

import (
	"bytes"
	"context"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"go.trai.ch/zerr"
)

// Probe implements ports.GitProbe by invoking the git CLI.
type Probe struct {
	repoRoot string
}

// New returns a Probe that runs git commands rooted at repoRoot.
func New(repoRoot string) *Probe {
	return &Probe{repoRoot: repoRoot}
}

// Status reports whether path is tracked by git, whether the worktree copy
// matches the last committed blob, and that commit's timestamp.
func (p *Probe) Status(ctx context.Context, path string) (tracked bool, clean bool, commitTime time.Time, err error) {
	if !p.isTracked(ctx, path) {
		return false, false, time.Time{}, nil
	}

	dirty, err := p.isDirty(ctx, path)
	if err != nil {
		return true, false, time.Time{}, err
	}
	if dirty {
		return true, false, time.Time{}, nil
	}

	commitTime, err = p.commitTime(ctx, path)
	if err != nil {
		return true, false, time.Time{}, err
	}
	return true, true, commitTime, nil
}

func (p *Probe) isTracked(ctx context.Context, path string) bool {
	cmd := p.command(ctx, "ls-files", "--error-unmatch", path)
	return cmd.Run() == nil
}

func (p *Probe) isDirty(ctx context.Context, path string) (bool, error) {
	var out bytes.Buffer
	cmd := p.command(ctx, "status", "--porcelain", "--", path)
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return false, zerr.Wrap(err, "git status failed")
	}
	return out.Len() > 0, nil
}

func (p *Probe) commitTime(ctx context.Context, path string) (time.Time, error) {
	var out bytes.Buffer
	cmd := p.command(ctx, "log", "-1", "--format=%ct", "--", path)
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return time.Time{}, zerr.Wrap(err, "git log failed")
	}

	raw := strings.TrimSpace(out.String())
	if raw == "" {
		return time.Time{}, nil
	}
	epoch, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, zerr.Wrap(err, "unparseable commit timestamp")
	}
	return time.Unix(epoch, 0), nil
}

func (p *Probe) command(ctx context.Context, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = p.repoRoot
	return cmd
}
