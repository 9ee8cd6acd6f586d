package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newShowRefCmd() *cobra.Command {
	var heads, tags, head bool

	cmd := &cobra.Command{
		Use:   "show-ref",
		Short: "List references and the objects they point at",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			prefix := ""
			switch {
			case heads && !tags:
				prefix = "heads"
			case tags && !heads:
				prefix = "tags"
			}

			out := cmd.OutOrStdout()
			if head {
				if h, err := r.ResolveRef("HEAD"); err == nil && h != "" {
					fmt.Fprintf(out, "%s HEAD\n", h)
				}
			}
			refs, err := r.ListRefs(prefix)
			if err != nil {
				return err
			}
			for _, ref := range refs {
				fmt.Fprintf(out, "%s %s\n", ref.Hash, ref.Name)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&heads, "heads", false, "only branches")
	cmd.Flags().BoolVar(&tags, "tags", false, "only tags")
	cmd.Flags().BoolVar(&head, "head", false, "include HEAD")
	return cmd
}
