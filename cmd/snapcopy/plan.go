package main

import (
	"github.com/spf13/cobra"
)

func newPlanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Show which snapshots would be copied without copying",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			res, err := a.Copier.Plan(cmd.Context())
			if err != nil {
				return err
			}
			return printResult(cmd, res)
		},
	}
}
