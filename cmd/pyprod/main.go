// Package main is the entry point for the pyprod build automation engine.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.trai.ch/pyprod/cmd/pyprod/commands"
	"go.trai.ch/pyprod/internal/app"
	"go.trai.ch/pyprod/internal/core/domain"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stderr))
}

func run(ctx context.Context, args []string, stderr io.Writer) int {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cli := commands.New(func(opts app.Options) (commands.Application, error) {
		return app.New(opts)
	})
	cli.SetArgs(args)
	cli.SetOutput(os.Stdout, stderr)

	if err := cli.Execute(ctx); err != nil {
		_, _ = fmt.Fprintln(stderr, "Error: "+err.Error())
		return exitCode(err)
	}
	return 0
}

// exitCode maps a run's terminal error to spec.md §6's exit codes: 1 for a
// build failure, 2 for a configuration error.
func exitCode(err error) int {
	for _, configErr := range []error{
		domain.ErrCycleDetected,
		domain.ErrInvalidPattern,
		domain.ErrPatternRequiresWildcard,
		domain.ErrMultipleDefaults,
		domain.ErrNoRuleForTarget,
		domain.ErrDotDotNotAllowed,
		domain.ErrWildcardInDependency,
		domain.ErrReservedTaskName,
		domain.ErrNoTargetsSpecified,
		domain.ErrAmbiguousStaticPattern,
		domain.ErrConfigReadFailed,
		domain.ErrConfigParseFailed,
		domain.ErrConfigNotFound,
	} {
		if errors.Is(err, configErr) {
			return 2
		}
	}
	return 1
}
