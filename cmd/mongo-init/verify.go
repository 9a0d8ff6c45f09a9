package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/madkins23/mongo-init/bootstrap"
)

var errVerifyFailed = errors.New("database does not match the bootstrap plan")

func newVerifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check that the database matches what run creates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			access, err := a.connect(cmd.Context(), "")
			if err != nil {
				return err
			}
			defer a.disconnect(access)

			report, err := bootstrap.Verify(cmd.Context(), bootstrap.NewMongo(access), a.cfg.Plan(), nil)
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), report)
			if !report.OK() {
				return errVerifyFailed
			}
			return nil
		},
	}
}
