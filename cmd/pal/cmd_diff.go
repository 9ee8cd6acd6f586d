package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/odvcencio/pal/pkg/diff"
	"github.com/odvcencio/pal/pkg/object"
	"github.com/odvcencio/pal/pkg/repo"
)

func newDiffCmd() *cobra.Command {
	var (
		patch   bool
		blobs   bool
		context int
	)

	cmd := &cobra.Command{
		Use:   "diff <left> [right]",
		Short: "Compare two snapshots, or two blobs with --blobs",
		Long: "Compare the trees two names resolve to. The right side defaults to HEAD.\n" +
			"With --patch each changed path is printed as a unified diff; with --blobs\n" +
			"both arguments name blobs and their line-level changes are printed.",
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			left := args[0]
			right := "HEAD"
			if len(args) == 2 {
				right = args[1]
			}

			if blobs {
				return diffBlobs(out, r, left, right)
			}

			d, err := r.DiffRefs(left, right)
			if err != nil {
				return err
			}
			if !patch {
				return diff.FormatTreeDiff(out, d)
			}
			for _, paths := range [][]string{d.Deleted, d.Modified, d.Added} {
				for _, p := range paths {
					text, err := r.UnifiedDiff(left, right, p, context)
					if err != nil {
						return err
					}
					if _, err := io.WriteString(out, text); err != nil {
						return err
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&patch, "patch", "p", false, "print unified diffs of changed files")
	cmd.Flags().BoolVar(&blobs, "blobs", false, "treat both arguments as blobs")
	cmd.Flags().IntVarP(&context, "unified", "U", 3, "lines of context in patches")
	return cmd
}

func diffBlobs(out io.Writer, r *repo.Repo, left, right string) error {
	var hashes [2]object.Hash
	for i, name := range []string{left, right} {
		h, err := r.FindObject(name, object.TypeBlob, false)
		if err != nil {
			return err
		}
		hashes[i] = h
	}
	ld, err := r.DiffBlobs(hashes[0], hashes[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "edit distance %d\n", ld.Distance)
	return diff.FormatChanges(out, ld)
}
