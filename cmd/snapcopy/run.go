package main

import (
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run one copy pass and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			res, err := a.RunOnce(cmd.Context())
			if res != nil {
				if perr := printResult(cmd, res); perr != nil && err == nil {
					err = perr
				}
			}
			return err
		},
	}
}
