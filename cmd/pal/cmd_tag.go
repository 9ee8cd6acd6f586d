package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newTagCmd() *cobra.Command {
	var (
		annotate  bool
		message   string
		force     bool
		deleteTag bool
	)

	cmd := &cobra.Command{
		Use:   "tag [name [object]]",
		Short: "List, create, or delete tags",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if len(args) == 0 {
				if deleteTag {
					return fmt.Errorf("tag name is required with -d")
				}
				tags, err := r.ListTags()
				if err != nil {
					return err
				}
				for _, t := range tags {
					fmt.Fprintln(out, t.Name)
				}
				return nil
			}

			name := args[0]
			if deleteTag {
				if err := r.DeleteTag(name); err != nil {
					return err
				}
				fmt.Fprintf(out, "deleted tag '%s'\n", name)
				return nil
			}

			target := "HEAD"
			if len(args) == 2 {
				target = args[1]
			}
			if annotate || message != "" {
				_, err = r.CreateAnnotatedTag(name, target, "", message, force)
			} else {
				_, err = r.CreateTag(name, target, force)
			}
			return err
		},
	}
	cmd.Flags().BoolVarP(&annotate, "annotate", "a", false, "create an annotated tag object")
	cmd.Flags().StringVarP(&message, "message", "m", "", "tag message (implies -a)")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "replace an existing tag")
	cmd.Flags().BoolVarP(&deleteTag, "delete", "d", false, "delete the tag")
	return cmd
}
