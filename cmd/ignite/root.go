package main

import (
	"context"
	"fmt"
	"os"

	"github.com/iamNilotpal/ignite/pkg/ignite"
	"github.com/iamNilotpal/ignite/pkg/options"
	"github.com/spf13/cobra"
)

// run builds a fresh root command, executes it against args, and returns
// the process exit code the caller should use.
func run(args []string) int {
	var dataDir string
	var exitCode int

	root := &cobra.Command{
		Use:           "ignite",
		Short:         "ignite is a CLI for the ignite embedded key/value store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&dataDir, "dir", options.DefaultDataDir, "database directory")

	open := func() (*ignite.Instance, error) {
		return ignite.NewInstance(context.Background(), "ignite-cli", options.WithDataDir(dataDir))
	}

	root.AddCommand(
		newPutCmd(open, &exitCode),
		newAskCmd(open, &exitCode),
		newRemoveCmd(open, &exitCode),
		newCompactCmd(open, &exitCode),
	)

	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if exitCode == exitSuccess {
			exitCode = exitIOOrCorrupt
		}
		return exitCode
	}

	return exitCode
}
