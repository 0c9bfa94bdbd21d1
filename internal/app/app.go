// Package app hand-wires the engine core and its adapters into a runnable
// build. The wiring graph is small and fixed, so construction is plain Go
// constructor composition rather than a generated or reflective DI
// container.
package app

import (
	"context"
	"path/filepath"
	"time"

	"go.trai.ch/pyprod/internal/adapters/checkstore"
	"go.trai.ch/pyprod/internal/adapters/fs"
	"go.trai.ch/pyprod/internal/adapters/git"
	"go.trai.ch/pyprod/internal/adapters/logger"
	"go.trai.ch/pyprod/internal/adapters/script"
	"go.trai.ch/pyprod/internal/adapters/shell"
	"go.trai.ch/pyprod/internal/adapters/telemetry"
	"go.trai.ch/pyprod/internal/core/domain"
	"go.trai.ch/pyprod/internal/core/ports"
	"go.trai.ch/pyprod/internal/engine/graph"
	"go.trai.ch/pyprod/internal/engine/handler"
	"go.trai.ch/pyprod/internal/engine/scheduler"
	"go.trai.ch/pyprod/internal/engine/stale"
	"go.trai.ch/zerr"
)

// Options configures a build run, collecting the CLI's flag values.
type Options struct {
	ScriptPath     string
	WorkDir        string
	Parallelism    int
	Params         []string
	CommitHistory  bool
	Verbose        bool
	CheckStorePath string
}

// App wires a loaded build script into a runnable scheduler.
type App struct {
	opts       Options
	logger     ports.Logger
	registry   *domain.Registry
	resolver   *graph.Resolver
	oracle     *stale.Oracle
	scheduler  *scheduler.Scheduler
	checkStore *checkstore.Store
}

// New loads opts.ScriptPath and wires every collaborator needed to run a
// build against the resulting registry.
func New(opts Options) (*App, error) {
	if opts.Parallelism < 1 {
		opts.Parallelism = 1
	}
	if opts.CheckStorePath == "" {
		opts.CheckStorePath = filepath.Join(opts.WorkDir, domain.DefaultCheckStorePath(), "store.json")
	}

	log := logger.New(opts.Verbose)
	statAdapter := workDirStat{dir: opts.WorkDir, stat: fs.New()}
	executor := shell.NewExecutor(log)
	params := script.NewParams(opts.Params)
	host := script.New(executor, opts.WorkDir, params)

	registry, err := host.Load(opts.ScriptPath)
	if err != nil {
		return nil, zerr.Wrap(err, "load build script failed")
	}

	checkStore, err := checkstore.Load(opts.CheckStorePath)
	if err != nil {
		return nil, zerr.Wrap(err, "load check store failed")
	}

	staleOpts := []stale.Option{}
	if opts.CommitHistory {
		staleOpts = append(staleOpts, stale.WithGitProbe(git.New(opts.WorkDir)))
	}
	oracle := stale.New(statAdapter, checkStore, staleOpts...)

	resolver := graph.New(registry, func(target string) bool {
		_, exists, err := statAdapter.Stat(target)
		return err == nil && exists
	})

	invoker := handler.New(statAdapter)
	tracer := ports.Tracer(telemetry.NewOTelTracer("pyprod"))
	sched := scheduler.New(oracle, resolverAdapter{resolver}, invoker, tracer, log)

	return &App{
		opts:       opts,
		logger:     log,
		registry:   registry,
		resolver:   resolver,
		oracle:     oracle,
		scheduler:  sched,
		checkStore: checkStore,
	}, nil
}

// resolverAdapter narrows *graph.Resolver to the scheduler's Resolver seam.
type resolverAdapter struct{ r *graph.Resolver }

func (a resolverAdapter) Resolve(target string) (*domain.Node, error) { return a.r.Resolve(target) }

// workDirStat resolves relative paths against the build's working
// directory before stat'ing them, so file checks see the tree handlers run in.
type workDirStat struct {
	dir  string
	stat *fs.Stat
}

func (s workDirStat) Stat(path string) (time.Time, bool, error) {
	if s.dir != "" && !filepath.IsAbs(path) {
		path = filepath.Join(s.dir, path)
	}
	return s.stat.Stat(path)
}

// Run resolves targets (or the script's default task when targets is empty)
// and runs the scheduler against them, flushing the check-value store on
// the way out regardless of outcome.
func (a *App) Run(ctx context.Context, targets []string) error {
	if len(targets) == 0 {
		def, ok := a.registry.DefaultTask()
		if !ok {
			return domain.ErrNoTargetsSpecified
		}
		targets = []string{def}
	}

	root, err := a.resolveRoot(targets)
	if err != nil {
		return err
	}

	runErr := a.scheduler.Run(ctx, root, a.opts.Parallelism)

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if flushErr := a.checkStore.Flush(flushCtx); flushErr != nil && runErr == nil {
		return flushErr
	}

	return runErr
}

// resolveRoot resolves every requested target. A single target resolves
// directly to its own node; multiple targets are gathered under a
// synthetic task node with no handler, so the scheduler dispatches the
// whole requested set as one bounded-concurrency run instead of one run
// per target.
func (a *App) resolveRoot(targets []string) (*domain.Node, error) {
	if len(targets) == 1 {
		return a.resolver.Resolve(targets[0])
	}

	nodes := make([]*domain.Node, len(targets))
	for i, target := range targets {
		node, err := a.resolver.Resolve(target)
		if err != nil {
			return nil, err
		}
		nodes[i] = node
	}

	return &domain.Node{
		Name:    domain.NewInternedString("(targets)"),
		Kind:    domain.KindTask,
		Depends: nodes,
	}, nil
}

// ListTargets returns every task name declared in the loaded registry, for
// the CLI's -l flag. File rules, concrete or pattern, are not listed.
func (a *App) ListTargets() []string {
	seen := map[string]bool{}
	var names []string
	for _, r := range a.registry.Rules() {
		if !r.IsTask {
			continue
		}
		for _, t := range r.Targets {
			if !seen[t] {
				seen[t] = true
				names = append(names, t)
			}
		}
	}
	return names
}
