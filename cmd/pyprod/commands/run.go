package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.trai.ch/pyprod/internal/adapters/watcher"
	"go.trai.ch/pyprod/internal/app"
)

const watchDebounceWindow = 200 * time.Millisecond

func (c *CLI) runRoot(cmd *cobra.Command, args []string) error {
	jobs, _ := cmd.Flags().GetInt("jobs")
	watchDirs, _ := cmd.Flags().GetStringArray("watch")
	gitTimestamps, _ := cmd.Flags().GetBool("git-timestamps")
	defines, _ := cmd.Flags().GetStringArray("define")
	scriptPath, _ := cmd.Flags().GetString("file")
	list, _ := cmd.Flags().GetBool("list")
	verbose, _ := cmd.Flags().GetBool("verbose")

	application, err := c.newApp(app.Options{
		ScriptPath:    scriptPath,
		WorkDir:       ".",
		Parallelism:   jobs,
		Params:        defines,
		CommitHistory: gitTimestamps,
		Verbose:       verbose,
	})
	if err != nil {
		return err
	}

	if list {
		for _, name := range application.ListTargets() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	}

	if len(watchDirs) > 0 {
		return c.runWatch(cmd.Context(), application, args, watchDirs)
	}

	return application.Run(cmd.Context(), args)
}

// runWatch runs targets once, then re-runs them every time a debounced
// batch of filesystem changes is observed under any of dirs, until ctx is
// cancelled.
func (c *CLI) runWatch(ctx context.Context, application Application, targets []string, dirs []string) error {
	if err := application.Run(ctx, targets); err != nil {
		return err
	}

	rebuild := make(chan struct{}, 1)
	debouncer := watcher.NewDebouncer(watchDebounceWindow, func([]string) {
		select {
		case rebuild <- struct{}{}:
		default:
		}
	})

	watchers := make([]*watcher.Watcher, 0, len(dirs))
	for _, dir := range dirs {
		w, err := watcher.NewWatcher()
		if err != nil {
			return err
		}
		if err := w.Start(ctx, dir); err != nil {
			return err
		}
		watchers = append(watchers, w)
		go drainEvents(w, debouncer)
	}
	defer func() {
		for _, w := range watchers {
			_ = w.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-rebuild:
			if err := application.Run(ctx, targets); err != nil {
				return err
			}
		}
	}
}

func drainEvents(w *watcher.Watcher, d *watcher.Debouncer) {
	for event := range w.Events() {
		d.Add(event.Path)
	}
}
