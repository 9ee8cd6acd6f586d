package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func newArchiveCmd() *cobra.Command {
	var (
		output string
		prefix string
	)

	cmd := &cobra.Command{
		Use:   "archive [tree-ish]",
		Short: "Write a snapshot as a zstd-compressed tar",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			r, err := openRepo()
			if err != nil {
				return err
			}
			treeish := "HEAD"
			if len(args) == 1 {
				treeish = args[0]
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, ferr := os.Create(output)
				if ferr != nil {
					return fmt.Errorf("create archive: %w", ferr)
				}
				defer func() {
					if cerr := f.Close(); err == nil {
						err = cerr
					}
				}()
				w = f
			}
			return r.Archive(w, treeish, prefix)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to a file instead of stdout")
	cmd.Flags().StringVar(&prefix, "prefix", "", "prefix for every path in the archive")
	return cmd
}
