package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPruneCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete objects no ref, HEAD or index entry can reach",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			summary, err := r.Prune(dryRun)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			verb := "removed"
			if dryRun {
				verb = "would remove"
				for _, h := range summary.Unreachable {
					fmt.Fprintln(out, h)
				}
			}
			fmt.Fprintf(out, "%s %d of %d object(s)\n", verb, len(summary.Unreachable), summary.Objects)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "only list unreachable objects")
	return cmd
}
