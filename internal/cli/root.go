package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

// Execute runs the boxaug CLI with ctx and returns the first command error.
//
// Logging goes to stderr at info level; --verbose (-v) switches to debug.
// The logger is attached to each command's context and is available through
// loggerFromContext.
func Execute(ctx context.Context) error {
	c := New(os.Stderr, LogInfo)
	return c.execute(ctx, c.RootCommand())
}

func (c *CLI) execute(ctx context.Context, root *cobra.Command) error {
	var verbose bool
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	pre := root.PersistentPreRunE
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if verbose {
			c.SetLogLevel(LogDebug)
		}
		if pre != nil {
			return pre(cmd, args)
		}
		return nil
	}

	return root.ExecuteContext(ctx)
}
