// Package handler invokes a resolved node's bound Rule.Handler with the
// (target, *bound_depends) argument shape and verifies a file-kind node's
// output actually landed on disk afterward.
//
// Grounded on the original's builder dispatch (builder(target, *build_deps))
// and the teacher's fs.Verifier.VerifyOutputs post-execution check.
package handler

import (
	"context"

	"go.trai.ch/pyprod/internal/core/domain"
	"go.trai.ch/pyprod/internal/core/ports"
	"go.trai.ch/zerr"
)

// Invoker runs a node's handler and verifies its contract afterward.
type Invoker struct {
	stat ports.FileStat // nil disables output-produced verification
}

// New returns an Invoker that verifies file-kind outputs against stat. A nil
// stat skips verification, which is useful for tasks-only test setups.
func New(stat ports.FileStat) *Invoker {
	return &Invoker{stat: stat}
}

// Invoke calls node's handler with target and its bound depends list, then
// confirms a KindFile node actually produced its target. Tasks and virtual
// nodes have no on-disk artifact to check.
func (i *Invoker) Invoke(ctx context.Context, node *domain.Node, depends []string) error {
	if node.Rule == nil || node.Rule.Handler == nil {
		return nil
	}

	target := node.Name.String()
	if err := node.Rule.Handler(ctx, target, depends); err != nil {
		return err
	}

	if i.stat == nil || node.Kind != domain.KindFile {
		return nil
	}
	_, exists, err := i.stat.Stat(target)
	if err != nil {
		return err
	}
	if !exists {
		return zerr.With(domain.ErrTargetNotProduced, "target", target)
	}
	return nil
}
