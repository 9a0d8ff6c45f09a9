package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPingCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ping [dbname]",
		Short: "Connect to the server, ping it and disconnect",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var dbName string
			if len(args) > 0 {
				dbName = args[0]
			}
			access, err := a.connect(cmd.Context(), dbName)
			if err != nil {
				return err
			}
			if err := access.Disconnect(); err != nil {
				return fmt.Errorf("disconnect from %s: %w", access.Name(), err)
			}
			successColor.Fprintf(cmd.OutOrStdout(), "Pinged %s\n", access.Name())
			return nil
		},
	}
}
