package main

import (
	"fmt"

	"github.com/iamNilotpal/ignite/pkg/ignite"
	"github.com/spf13/cobra"
)

func newRemoveCmd(open func() (*ignite.Instance, error), exitCode *int) *cobra.Command {
	var key string

	cmd := &cobra.Command{
		Use:   "remove",
		Short: "delete a key",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := open()
			if err != nil {
				*exitCode = exitCodeFor(err)
				return err
			}
			defer db.Close()

			if err := db.Delete(key); err != nil {
				*exitCode = exitCodeFor(err)
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}

	cmd.Flags().StringVar(&key, "key", "", "key to delete")
	cmd.MarkFlagRequired("key")

	return cmd
}
