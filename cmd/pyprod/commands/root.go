// Package commands implements the pyprod CLI surface: a root command
// taking the requested targets plus spec.md §6's flag set, and a version
// subcommand, grounded on the teacher's cobra-based CLI tree
// (cmd/same/commands).
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/pyprod/internal/app"
	"go.trai.ch/pyprod/internal/build"
	"go.trai.ch/pyprod/internal/core/domain"
)

// Application is the CLI's dependency on the wired build.
type Application interface {
	Run(ctx context.Context, targets []string) error
	ListTargets() []string
}

// CLI wraps the cobra root command.
type CLI struct {
	newApp  func(opts app.Options) (Application, error)
	rootCmd *cobra.Command
}

// New returns a CLI that builds an Application via newApp once flags are
// parsed, so the script path and params are known before wiring.
func New(newApp func(opts app.Options) (Application, error)) *CLI {
	c := &CLI{newApp: newApp}

	rootCmd := &cobra.Command{
		Use:           "pyprod [targets...]",
		Short:         "A dependency-driven build automation engine",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
		RunE:          c.runRoot,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit, build.Date,
	))

	rootCmd.Flags().IntP("jobs", "j", 1, "maximum number of concurrent handlers")
	rootCmd.Flags().StringArrayP("watch", "w", nil, "watch the given directories and re-run on change")
	rootCmd.Flags().BoolP("git-timestamps", "g", false, "use commit-history timestamps instead of file mtimes")
	rootCmd.Flags().StringArrayP("define", "D", nil, "set a script parameter as KEY=VALUE")
	rootCmd.Flags().StringP("file", "f", domain.DefaultDeclFileName, "path to the build script")
	rootCmd.Flags().BoolP("list", "l", false, "list declared tasks and exit")
	rootCmd.Flags().BoolP("verbose", "v", false, "enable verbose logging")

	c.rootCmd = rootCmd
	c.rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with ctx as its context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command, used in tests.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the root command's output streams, used in tests.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}
