package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/odvcencio/pal/pkg/repo"
)

func newCloneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clone <source> [directory]",
		Short: "Copy a local repository into a new directory",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dst := ""
			if len(args) == 2 {
				dst = args[1]
			} else {
				dst = filepath.Base(strings.TrimRight(args[0], string(filepath.Separator)))
			}
			r, err := repo.Clone(args[0], dst)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cloned into %s\n", r.RootDir)
			return nil
		},
	}
}
