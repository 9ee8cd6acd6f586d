package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/odvcencio/pal/pkg/object"
)

func newLogCmd() *cobra.Command {
	var (
		oneline bool
		limit   int
	)

	cmd := &cobra.Command{
		Use:   "log [commit]",
		Short: "Show first-parent commit history",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}

			var start object.Hash
			if len(args) == 1 {
				start, err = r.ResolveCommit(args[0])
			} else {
				start, err = r.ResolveRef("HEAD")
			}
			if err != nil {
				return err
			}
			entries, err := r.Log(start, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "no commits yet")
				return nil
			}

			headHash, _ := r.ResolveRef("HEAD")
			branch, _ := r.CurrentBranch()
			for _, e := range entries {
				decoration := buildDecoration(e.Hash, headHash, branch)
				if oneline {
					if decoration != "" {
						decoration = " " + decoration
					}
					fmt.Fprintf(out, "%s%s %s\n", e.Hash.Short(), decoration, e.Commit.Summary())
					continue
				}

				if decoration != "" {
					fmt.Fprintf(out, "commit %s %s\n", e.Hash, decoration)
				} else {
					fmt.Fprintf(out, "commit %s\n", e.Hash)
				}
				if parents := e.Commit.Parents(); len(parents) > 1 {
					short := make([]string, len(parents))
					for i, p := range parents {
						short[i] = p.Short()
					}
					fmt.Fprintf(out, "Merge:  %s\n", strings.Join(short, " "))
				}
				if author, err := e.Commit.Author(); err == nil {
					fmt.Fprintf(out, "Author: %s <%s>\n", author.Name, author.Email)
					fmt.Fprintf(out, "Date:   %s\n", author.When.Format(time.RFC1123Z))
				}
				fmt.Fprintln(out)
				for _, line := range strings.Split(strings.TrimRight(e.Commit.Message, "\n"), "\n") {
					fmt.Fprintf(out, "    %s\n", line)
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&oneline, "oneline", false, "compact one-line format")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of commits to show (0 for all)")
	return cmd
}

// buildDecoration returns "(HEAD -> branch)" or "(HEAD)" for the commit
// HEAD points at and "" otherwise.
func buildDecoration(commitHash, headHash object.Hash, branchName string) string {
	if commitHash != headHash {
		return ""
	}
	if branchName != "" {
		return "(HEAD -> " + branchName + ")"
	}
	return "(HEAD)"
}

func newReflogCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "reflog [ref]",
		Short: "Show the recorded movements of a ref",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			ref := "HEAD"
			if len(args) == 1 {
				ref = args[0]
			}
			entries, err := r.ReadReflog(ref, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for i, e := range entries {
				fmt.Fprintf(out, "%s %s@{%d}: %s (%s)\n", e.New.Short(), ref, i, e.Message, e.Committer.Name)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of entries (0 for all)")
	return cmd
}
