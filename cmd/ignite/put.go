package main

import (
	"fmt"

	"github.com/iamNilotpal/ignite/pkg/ignite"
	"github.com/spf13/cobra"
)

func newPutCmd(open func() (*ignite.Instance, error), exitCode *int) *cobra.Command {
	var key, value string

	cmd := &cobra.Command{
		Use:   "put",
		Short: "store a key/value pair",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := open()
			if err != nil {
				*exitCode = exitCodeFor(err)
				return err
			}
			defer db.Close()

			if err := db.Set(key, []byte(value)); err != nil {
				*exitCode = exitCodeFor(err)
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}

	cmd.Flags().StringVar(&key, "key", "", "key to write")
	cmd.Flags().StringVar(&value, "value", "", "value to write")
	cmd.MarkFlagRequired("key")
	cmd.MarkFlagRequired("value")

	return cmd
}
