package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odvcencio/pal/pkg/repo"
)

func newMergeCmd() *cobra.Command {
	var author string

	cmd := &cobra.Command{
		Use:   "merge <branch>",
		Short: "Merge a branch into the current branch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			current, err := r.CurrentBranch()
			if err != nil {
				return err
			}
			report, err := r.Merge(args[0], author)
			if errors.Is(err, repo.ErrAlreadyUpToDate) {
				fmt.Fprintln(out, "already up to date")
				return nil
			}
			if err != nil {
				return err
			}

			if report.HasConflicts() {
				for _, c := range report.Conflicts {
					fmt.Fprintf(out, "  %s: CONFLICT (%s)\n", c.Path, c.Reason)
				}
				return fmt.Errorf("merge of %s into %s stopped: %d conflicting path(s), nothing was changed",
					args[0], current, len(report.Conflicts))
			}
			fmt.Fprintf(out, "[%s %s] Merge branch '%s' into '%s'\n", current, report.Commit.Short(), args[0], current)
			fmt.Fprintf(out, "%d path(s): %d from ours, %d from theirs\n",
				report.Stats.Paths, report.Stats.OursChanged, report.Stats.TheirsChanged)
			return nil
		},
	}
	cmd.Flags().StringVar(&author, "author", "", `override author ("Name <email>")`)
	return cmd
}
