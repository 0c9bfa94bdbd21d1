// Package scheduler implements the bounded-concurrency dispatch loop:
// in-degree tracking over the resolved dependency DAG, a results channel,
// per-target in-flight exclusion, and failure/rebuild propagation.
//
// Grounded directly on the teacher's scheduler dispatch loop
// (schedulerRunState, schedule, handleResult), adapted from hash-based
// cache skip to the staleness-oracle skip and from a flat task map to a
// pointer-linked domain.Node tree with separate depends/uses edges.
package scheduler

import (
	"context"
	"errors"
	"sync"

	"go.trai.ch/pyprod/internal/core/domain"
	"go.trai.ch/pyprod/internal/core/ports"
	"go.trai.ch/pyprod/internal/engine/handler"
	"go.trai.ch/zerr"
	"golang.org/x/sync/semaphore"
)

// Oracle is the staleness decision the scheduler consults per newly-ready
// node, satisfied by internal/engine/stale.Oracle.
type Oracle interface {
	IsStale(ctx context.Context, node *domain.Node) (bool, error)
}

// Resolver resolves an additional target into the running graph, used to
// service build() calls made from inside a handler (the scheduler's
// post-wave enqueue).
type Resolver interface {
	Resolve(target string) (*domain.Node, error)
}

// Scheduler dispatches a resolved dependency graph's handlers under a
// bounded concurrency budget.
type Scheduler struct {
	oracle   Oracle
	resolver Resolver
	invoker  *handler.Invoker
	tracer   ports.Tracer
	logger   ports.Logger
}

// New returns a Scheduler backed by oracle for staleness decisions,
// resolver for dynamic build() requests, and invoker for handler dispatch.
// tracer and logger may be nil.
func New(oracle Oracle, resolver Resolver, invoker *handler.Invoker, tracer ports.Tracer, logger ports.Logger) *Scheduler {
	return &Scheduler{oracle: oracle, resolver: resolver, invoker: invoker, tracer: tracer, logger: logger}
}

type result struct {
	node *domain.Node
	err  error
}

// runState is the single in-flight Run's mutable bookkeeping: the flattened
// node set, reverse adjacency for failure/completion propagation, and the
// ready queue. One runState per Run call.
type runState struct {
	sched *Scheduler
	ctx   context.Context

	nodes   []*domain.Node
	parents map[*domain.Node][]*domain.Node

	remaining map[*domain.Node]int
	ready     []*domain.Node

	sem       *semaphore.Weighted
	active    int
	resultsCh chan result
	errs      error

	mu            sync.Mutex
	pendingBuilds []string
}

// Run resolves and dispatches root's dependency graph with up to
// parallelism concurrent handlers.
func (s *Scheduler) Run(ctx context.Context, root *domain.Node, parallelism int) error {
	if parallelism < 1 {
		parallelism = 1
	}

	state := s.newRunState(ctx, root, parallelism)

	if s.tracer != nil {
		names := make([]string, len(state.nodes))
		for i, n := range state.nodes {
			names[i] = n.Name.String()
		}
		s.tracer.EmitPlan(ctx, names)
	}

	return state.loop()
}

func (s *Scheduler) newRunState(ctx context.Context, root *domain.Node, parallelism int) *runState {
	nodes, parents := flatten(root)

	remaining := make(map[*domain.Node]int, len(nodes))
	var ready []*domain.Node
	for _, n := range nodes {
		remaining[n] = len(n.Depends) + len(n.Uses)
		if remaining[n] == 0 {
			ready = append(ready, n)
		}
	}

	return &runState{
		sched:     s,
		ctx:       ctx,
		nodes:     nodes,
		parents:   parents,
		remaining: remaining,
		ready:     ready,
		sem:       semaphore.NewWeighted(int64(parallelism)),
		resultsCh: make(chan result, len(nodes)+1),
	}
}

// flatten collects every distinct node reachable from root (nodes are
// already memoized by canonical name in the graph builder, so pointer
// identity is sufficient to dedup diamonds) and builds the reverse
// adjacency ("who depends on me") used to decrement in-degree and to
// propagate failure upward.
func flatten(root *domain.Node) ([]*domain.Node, map[*domain.Node][]*domain.Node) {
	seen := map[*domain.Node]bool{}
	parents := map[*domain.Node][]*domain.Node{}
	var nodes []*domain.Node

	var visit func(n *domain.Node)
	visit = func(n *domain.Node) {
		if seen[n] {
			return
		}
		seen[n] = true
		nodes = append(nodes, n)
		for _, c := range n.Depends {
			parents[c] = append(parents[c], n)
			visit(c)
		}
		for _, c := range n.Uses {
			parents[c] = append(parents[c], n)
			visit(c)
		}
	}
	visit(root)
	return nodes, parents
}

func (state *runState) loop() error {
	for !state.isDone() {
		state.promoteReady()
		state.dispatch()

		if state.isDone() {
			break
		}

		if state.ctx.Err() != nil && state.active == 0 {
			return errors.Join(state.errs, state.ctx.Err())
		}

		select {
		case res := <-state.resultsCh:
			state.handleResult(res)
		case <-state.ctx.Done():
		}
	}

	if state.ctx.Err() != nil {
		state.errs = errors.Join(state.errs, state.ctx.Err())
	}
	return state.errs
}

// isDone reports whether nothing is running, nothing is ready, and no
// build() request is still waiting to be drained.
func (state *runState) isDone() bool {
	if state.active != 0 || len(state.ready) != 0 {
		return false
	}
	state.mu.Lock()
	defer state.mu.Unlock()
	return len(state.pendingBuilds) == 0
}

// promoteReady evaluates staleness for every Pending node whose children
// are all terminal, immediately skipping non-stale nodes. This also
// disposes of leaf files and virtual check nodes, which never bind a
// handler and so are never judged stale by the oracle: they reach Skipped
// the moment their (usually empty) dependency set completes.
func (state *runState) promoteReady() {
	state.drainPendingBuilds()

	var stillReady []*domain.Node
	for _, n := range state.ready {
		if n.State != domain.Pending {
			continue
		}
		if n.AnyChildFailed() {
			state.markFailed(n, nil)
			continue
		}

		stale, err := state.sched.oracle.IsStale(state.ctx, n)
		if err != nil {
			state.markFailed(n, err)
			continue
		}
		if !stale {
			n.State = domain.Skipped
			state.onTerminal(n)
			continue
		}
		n.State = domain.Ready
		stillReady = append(stillReady, n)
	}
	state.ready = stillReady
}

// drainPendingBuilds folds any build() requests queued by handlers during
// the previous wave into the running node set before the next wave of
// readiness is computed.
func (state *runState) drainPendingBuilds() {
	state.mu.Lock()
	pending := state.pendingBuilds
	state.pendingBuilds = nil
	state.mu.Unlock()

	for _, target := range pending {
		node, err := state.sched.resolver.Resolve(target)
		if err != nil {
			state.errs = errors.Join(state.errs, err)
			continue
		}
		nodes, parents := flatten(node)
		for _, n := range nodes {
			if _, known := state.remaining[n]; known {
				continue
			}
			state.remaining[n] = len(n.Depends) + len(n.Uses)
			state.nodes = append(state.nodes, n)
			if state.remaining[n] == 0 {
				state.ready = append(state.ready, n)
			}
		}
		for child, ps := range parents {
			state.parents[child] = append(state.parents[child], ps...)
		}
	}
}

// dispatch drains the ready queue up to the semaphore's remaining weight,
// giving the parallelism budget. A node already moved out of Ready by
// failure propagation since it was queued is silently dropped.
func (state *runState) dispatch() {
	for len(state.ready) > 0 && state.ctx.Err() == nil {
		if !state.sem.TryAcquire(1) {
			return
		}
		n := state.ready[0]
		state.ready = state.ready[1:]

		if n.State != domain.Ready {
			state.sem.Release(1)
			continue
		}

		n.State = domain.Running
		state.active++
		go state.execute(n)
	}
}

func (state *runState) execute(n *domain.Node) {
	defer state.sem.Release(1)

	res := func() result {
		ctx := state.ctx
		var span ports.Span
		if state.sched.tracer != nil {
			ctx, span = state.sched.tracer.Start(ctx, n.Name.String())
			defer span.End()
		}

		ctx = withBuildRequester(ctx, state)

		depends := make([]string, len(n.Depends))
		for i, d := range n.Depends {
			depends[i] = d.Name.String()
		}

		err := state.sched.invoker.Invoke(ctx, n, depends)
		if err != nil && span != nil {
			span.RecordError(err)
		}
		return result{node: n, err: err}
	}()

	state.resultsCh <- res
}

func (state *runState) handleResult(res result) {
	state.active--

	if res.err != nil {
		state.markFailed(res.node, res.err)
		return
	}

	res.node.State = domain.Built
	if state.sched.logger != nil {
		state.sched.logger.Info("built " + res.node.Name.String())
	}
	state.onTerminal(res.node)
}

func (state *runState) markFailed(n *domain.Node, err error) {
	n.State = domain.Failed
	if err != nil {
		enhanced := zerr.With(zerr.Wrap(err, domain.ErrHandlerFailed.Error()), "target", n.Name.String())
		state.errs = errors.Join(state.errs, enhanced)
	}
	state.onTerminal(n)
	state.propagateFailure(n)
}

// propagateFailure marks every ancestor of n Failed, through both depends
// and uses edges, even ones still Pending, so they are never dispatched.
func (state *runState) propagateFailure(n *domain.Node) {
	for _, p := range state.parents[n] {
		if p.State == domain.Failed {
			continue
		}
		wasPending := p.State == domain.Pending || p.State == domain.Ready
		p.State = domain.Failed
		if wasPending {
			state.onTerminal(p)
		}
		state.propagateFailure(p)
	}
}

// onTerminal decrements every parent's remaining-children counter and
// promotes newly-unblocked parents into the ready set.
func (state *runState) onTerminal(n *domain.Node) {
	for _, p := range state.parents[n] {
		if _, ok := state.remaining[p]; !ok {
			continue
		}
		state.remaining[p]--
		if state.remaining[p] == 0 && p.State == domain.Pending {
			state.ready = append(state.ready, p)
		}
	}
}

type buildRequesterKey struct{}

// withBuildRequester exposes a build() callback to the handler running in
// ctx: a request to resolve and schedule additional targets, drained at
// the top of the next dispatch wave.
func withBuildRequester(ctx context.Context, state *runState) context.Context {
	return context.WithValue(ctx, buildRequesterKey{}, func(targets ...string) {
		state.mu.Lock()
		state.pendingBuilds = append(state.pendingBuilds, targets...)
		state.mu.Unlock()
	})
}

// RequestBuild lets a handler ask the scheduler to resolve and run
// additional targets as part of the current invocation, mirroring the
// original script's Prod.build() called from within a builder function.
func RequestBuild(ctx context.Context, targets ...string) {
	if fn, ok := ctx.Value(buildRequesterKey{}).(func(...string)); ok {
		fn(targets...)
	}
}
