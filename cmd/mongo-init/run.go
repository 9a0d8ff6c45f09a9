package main

import (
	"github.com/spf13/cobra"

	"github.com/madkins23/mongo-init/bootstrap"
)

func newRunCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Create the user, collections and metadata document",
		Long: `Create the application user with its role, the empty collections
and the metadata document, in that order. The first failure stops the run.

Run against a database that is not fresh fails on the existing user
unless --ignore-existing is given. The metadata document is appended
on every run unless --upsert-metadata is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			access, err := a.connect(cmd.Context(), "")
			if err != nil {
				return err
			}
			defer a.disconnect(access)

			result, err := bootstrap.Run(cmd.Context(),
				bootstrap.NewMongo(access), a.cfg.Plan(), a.cfg.BootstrapOptions(a.sugar.Named("bootstrap")))
			if result != nil {
				printResult(cmd.OutOrStdout(), result)
			}
			return err
		},
	}

	flags := cmd.Flags()
	flags.Bool("ignore-existing", false, "treat an existing user or collection as success")
	flags.Bool("upsert-metadata", false, "replace the metadata document instead of appending another")
	a.bind("bootstrap.ignore_existing", flags.Lookup("ignore-existing"))
	a.bind("bootstrap.upsert_metadata", flags.Lookup("upsert-metadata"))

	return cmd
}
