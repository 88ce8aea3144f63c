package main

import (
	"fmt"

	"github.com/iamNilotpal/ignite/pkg/ignite"
	"github.com/spf13/cobra"
)

func newAskCmd(open func() (*ignite.Instance, error), exitCode *int) *cobra.Command {
	var key string

	cmd := &cobra.Command{
		Use:   "ask",
		Short: "look up the value stored for a key",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := open()
			if err != nil {
				*exitCode = exitCodeFor(err)
				return err
			}
			defer db.Close()

			value, err := db.Get(key)
			if err != nil {
				*exitCode = exitCodeFor(err)
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(value))
			return nil
		},
	}

	cmd.Flags().StringVar(&key, "key", "", "key to look up")
	cmd.MarkFlagRequired("key")

	return cmd
}
