// Package graph builds the dependency DAG for a requested target: recursive
// resolution against a domain.Registry, with cycle detection and
// memoization, grounded on the teacher's domain.Graph.Validate three-color
// DFS and the original's Rules.build_tree recursion shape.
package graph

import (
	"path/filepath"
	"strings"

	"go.trai.ch/pyprod/internal/core/domain"
	"go.trai.ch/pyprod/internal/engine/pattern"
	"go.trai.ch/zerr"
)

// Exists reports whether target names a file already present on disk. It is
// the resolver's only I/O seam, letting tests substitute an in-memory set.
type Exists func(target string) bool

// Resolver recursively builds and memoizes dependency-graph nodes.
type Resolver struct {
	reg    *domain.Registry
	exists Exists
	memo   map[string]*domain.Node
}

// New returns a Resolver bound to reg, consulting exists for leaf-file
// fallback when no rule or check matches a target.
func New(reg *domain.Registry, exists Exists) *Resolver {
	return &Resolver{
		reg:    reg,
		exists: exists,
		memo:   make(map[string]*domain.Node),
	}
}

// Resolve builds the DAG rooted at target, returning its node handle.
func (r *Resolver) Resolve(target string) (*domain.Node, error) {
	return r.resolve(target, nil)
}

func (r *Resolver) resolve(target string, stack []string) (*domain.Node, error) {
	target = canonicalize(target)

	if n, ok := r.memo[target]; ok {
		return n, nil
	}

	for i, s := range stack {
		if s == target {
			return nil, buildCycleError(stack[i:], target)
		}
	}

	node, depends, uses, err := r.bind(target)
	if err != nil {
		return nil, err
	}

	nextStack := make([]string, len(stack)+1)
	copy(nextStack, stack)
	nextStack[len(stack)] = target

	for _, d := range depends {
		child, err := r.resolve(d, nextStack)
		if err != nil {
			return nil, err
		}
		node.Depends = append(node.Depends, child)
	}
	for _, u := range uses {
		child, err := r.resolve(u, nextStack)
		if err != nil {
			return nil, err
		}
		node.Uses = append(node.Uses, child)
	}

	r.memo[target] = node
	return node, nil
}

// bind selects the rule, check, or leaf-file binding for target and returns
// the freshly constructed (childless) node plus its depends/uses name
// lists, following the four-tier order from the rule registry contract.
func (r *Resolver) bind(target string) (node *domain.Node, depends, uses []string, err error) {
	if sel, ok := r.reg.Select(target, pattern.Bind, pattern.Substitute); ok {
		n := &domain.Node{
			Name:    domain.NewInternedString(target),
			Rule:    sel.Rule,
			Stem:    sel.Stem,
			HasStem: sel.HasStem,
		}
		if sel.Rule.IsTask {
			n.Kind = domain.KindTask
		} else {
			n.Kind = domain.KindFile
		}
		return n, canonicalizeAll(sel.Depends), canonicalizeAll(sel.Uses), nil
	}

	if match, ok := r.reg.SelectCheck(target, pattern.Bind); ok {
		n := &domain.Node{
			Name:    domain.NewInternedString(target),
			Kind:    domain.KindVirtual,
			Check:   match.Check,
			Stem:    match.Stem,
			HasStem: true,
		}
		return n, nil, nil, nil
	}

	if r.exists != nil && r.exists(target) {
		n := &domain.Node{
			Name: domain.NewInternedString(target),
			Kind: domain.KindFile,
		}
		return n, nil, nil, nil
	}

	return nil, nil, nil, zerr.With(domain.ErrNoRuleForTarget, "target", target)
}

// canonicalize normalizes a target name lexically, without touching the
// filesystem, so "./foo" and "foo" memoize identically. Virtual resource
// names (containing "://") are left untouched since path.Clean's slash
// collapsing would corrupt their scheme separator.
func canonicalize(target string) string {
	if strings.Contains(target, "://") {
		return target
	}
	if target == "" {
		return target
	}
	return filepath.Clean(target)
}

func canonicalizeAll(targets []string) []string {
	out := make([]string, len(targets))
	for i, t := range targets {
		out[i] = canonicalize(t)
	}
	return out
}

// buildCycleError reports the complete cycle path in order, grounded on the
// teacher's Graph.buildCycleError.
func buildCycleError(cyclePath []string, closing string) error {
	var b strings.Builder
	for _, p := range cyclePath {
		b.WriteString(p)
		b.WriteString(" -> ")
	}
	b.WriteString(closing)
	return zerr.With(domain.ErrCycleDetected, "cycle", b.String())
}
