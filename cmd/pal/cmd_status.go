package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/odvcencio/pal/pkg/repo"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show working tree status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			st, err := r.Status()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case st.Branch == "":
				fmt.Fprintf(out, "HEAD detached at %s\n", st.Head.Short())
			case st.Head == "":
				fmt.Fprintf(out, "on %s (no commits yet)\n", st.Branch)
			default:
				fmt.Fprintf(out, "on %s\n", st.Branch)
			}
			if st.Clean() {
				fmt.Fprintln(out, "nothing to commit, working tree clean")
				return nil
			}

			printStatusSection(out, "staged:", st.Staged(), func(e repo.StatusEntry) repo.FileStatus { return e.IndexStatus })
			printStatusSection(out, "unstaged:", st.Unstaged(), func(e repo.StatusEntry) repo.FileStatus { return e.WorkStatus })
			printStatusSection(out, "untracked:", st.Untracked(), nil)
			return nil
		},
	}
}

func printStatusSection(out io.Writer, title string, entries []repo.StatusEntry, status func(repo.StatusEntry) repo.FileStatus) {
	if len(entries) == 0 {
		return
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, title)
	for _, e := range entries {
		if status == nil {
			fmt.Fprintf(out, "  %s\n", e.Path)
			continue
		}
		fmt.Fprintf(out, "  %-9s %s\n", status(e).String()+":", e.Path)
	}
}
