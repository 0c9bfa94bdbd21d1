// Package stale implements the staleness oracle: the decision of whether a
// dependency graph node needs its handler run, combining file modification
// times, optional commit-history timestamps, and user-defined check probes
// whose return values persist across runs in a ports.CheckStore.
//
// Grounded on the original's is_exists/MAX_TS timestamp model. Content
// hashing, the teacher's own staleness mechanism in its final scheduler
// generation, is deliberately not used here.
package stale

import (
	"context"
	"fmt"
	"time"

	"go.trai.ch/pyprod/internal/core/domain"
	"go.trai.ch/pyprod/internal/core/ports"
	"go.trai.ch/zerr"
)

// Oracle decides node staleness and computes effective timestamps.
type Oracle struct {
	stat  ports.FileStat
	store ports.CheckStore
	git   ports.GitProbe // nil disables commit-history mode
	now   func() time.Time
}

// Option configures an Oracle.
type Option func(*Oracle)

// WithGitProbe enables commit-history mode: file nodes tracked and clean in
// the probe are dated by their commit time rather than worktree mtime.
func WithGitProbe(g ports.GitProbe) Option {
	return func(o *Oracle) { o.git = g }
}

// WithClock overrides the oracle's wall-clock source, for deterministic
// tests.
func WithClock(now func() time.Time) Option {
	return func(o *Oracle) { o.now = now }
}

// New returns an Oracle backed by stat for file timestamps and store for
// check-value persistence.
func New(stat ports.FileStat, store ports.CheckStore, opts ...Option) *Oracle {
	o := &Oracle{stat: stat, store: store, now: time.Now}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// EffectiveTimestamp computes the comparison timestamp for node, per
// node.Kind. A missing file returns the zero time, which compares less
// than every real timestamp, standing in for the original's "doesn't
// exist" case.
func (o *Oracle) EffectiveTimestamp(ctx context.Context, node *domain.Node) (time.Time, error) {
	switch node.Kind {
	case domain.KindVirtual:
		return o.virtualTimestamp(ctx, node)
	case domain.KindTask:
		return time.Time{}, nil
	default:
		return o.fileTimestamp(ctx, node.Name.String())
	}
}

func (o *Oracle) virtualTimestamp(ctx context.Context, node *domain.Node) (time.Time, error) {
	if node.Check == nil || node.Check.Probe == nil {
		return time.Time{}, nil
	}
	resource := node.Name.String()
	value, err := node.Check.Probe(ctx, resource)
	if err != nil {
		return time.Time{}, zerr.With(zerr.Wrap(err, domain.ErrCheckProbeFailed.Error()), "resource", resource)
	}

	prev, ok := o.store.Get(resource)
	if !ok || !valuesEqual(prev.Value, value) {
		entry := ports.CheckEntry{Value: value, Timestamp: o.now()}
		o.store.Set(resource, entry)
		return entry.Timestamp, nil
	}
	return prev.Timestamp, nil
}

func (o *Oracle) fileTimestamp(ctx context.Context, path string) (time.Time, error) {
	if o.git != nil {
		tracked, clean, commitTime, err := o.git.Status(ctx, path)
		if err == nil && tracked && clean {
			return commitTime, nil
		}
	}
	mtime, exists, err := o.stat.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	if !exists {
		return time.Time{}, nil
	}
	return mtime, nil
}

// IsStale decides whether node needs its handler run. Only nodes bound to a
// handler (tasks and rule-bound file targets) are ever considered stale;
// leaf files and virtual check nodes merely feed their effective timestamp
// to whatever depends on them. The decision is memoized on node.
func (o *Oracle) IsStale(ctx context.Context, node *domain.Node) (bool, error) {
	if cached, known := node.MemoizedStale(); known {
		return cached, nil
	}

	stale, err := o.computeStale(ctx, node)
	if err != nil {
		return false, err
	}
	node.SetStale(stale)
	return stale, nil
}

func (o *Oracle) computeStale(ctx context.Context, node *domain.Node) (bool, error) {
	if node.Rule == nil || node.Rule.Handler == nil {
		return false, nil
	}
	if node.Kind == domain.KindTask {
		return true, nil
	}
	if node.AnyChildBuilt() {
		return true, nil
	}

	exists, err := o.targetExists(node.Name.String())
	if err != nil {
		return false, err
	}
	if !exists {
		// Record the current value of every check dependency, so the next
		// run compares against it instead of seeing a first observation.
		for _, child := range node.Depends {
			if child.Kind != domain.KindVirtual {
				continue
			}
			if _, err := o.EffectiveTimestamp(ctx, child); err != nil {
				return false, err
			}
		}
		return true, nil
	}

	myTS, err := o.EffectiveTimestamp(ctx, node)
	if err != nil {
		return false, err
	}
	for _, child := range node.Depends {
		childTS, err := o.EffectiveTimestamp(ctx, child)
		if err != nil {
			return false, err
		}
		if childTS.After(myTS) {
			return true, nil
		}
	}
	return false, nil
}

func (o *Oracle) targetExists(path string) (bool, error) {
	_, exists, err := o.stat.Stat(path)
	return exists, err
}

// valuesEqual compares two probe return values for the check-store
// change-detection comparison. Probes are documented to return comparable
// values (strings, numbers, booleans); == is sufficient for those and
// avoids pulling in reflection for the common case. A probe that returns an
// uncomparable value (a slice or map) would panic the == below, so that
// path falls back to a formatted-string comparison instead.
func valuesEqual(a, b any) (eq bool) {
	defer func() {
		if recover() != nil {
			eq = fmt.Sprint(a) == fmt.Sprint(b)
		}
	}()
	return a == b
}
