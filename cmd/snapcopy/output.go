package main

import (
	"encoding/json"
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/faciam-dev/snapcopy/internal/snapcopy"
)

// printResult prints res in either JSON or table format based on the --output flag.
func printResult(cmd *cobra.Command, res *snapcopy.Result) error {
	format, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	switch format {
	case "json":
		b, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(b))
	case "table":
		tw := tablewriter.NewWriter(out)
		tw.SetHeader([]string{"Cluster", "Source", "Target", "Created", "Decision"})
		for _, a := range res.Actions {
			tw.Append([]string{a.ClusterID, a.Source, a.Target, a.SnapshotCreatedAt.Format("2006-01-02 15:04"), string(a.Decision)})
		}
		tw.Render()
		fmt.Fprintf(out, "run %s region=%s copied=%d dry_run=%v\n", res.RunID, res.Region, len(res.Copied()), res.DryRun)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
	return nil
}
