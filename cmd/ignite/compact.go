package main

import (
	"fmt"

	"github.com/iamNilotpal/ignite/pkg/ignite"
	"github.com/spf13/cobra"
)

func newCompactCmd(open func() (*ignite.Instance, error), exitCode *int) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compact",
		Short: "rewrite live records into fresh segments and discard stale files",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := open()
			if err != nil {
				*exitCode = exitCodeFor(err)
				return err
			}
			defer db.Close()

			rewritten, err := db.Compact()
			if err != nil {
				*exitCode = exitCodeFor(err)
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "compacted %d keys\n", rewritten)
			return nil
		},
	}

	return cmd
}
