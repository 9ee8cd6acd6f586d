package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCheckoutCmd() *cobra.Command {
	var (
		newBranch string
		into      string
	)

	cmd := &cobra.Command{
		Use:   "checkout <branch|commit>",
		Short: "Switch the working tree to a branch or commit",
		Args:  cobra.RangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			target := ""
			if len(args) == 1 {
				target = args[0]
			}
			out := cmd.OutOrStdout()

			if into != "" {
				if target == "" {
					target = "HEAD"
				}
				if err := r.CheckoutTree(target, into); err != nil {
					return err
				}
				fmt.Fprintf(out, "wrote %s into %s\n", target, into)
				return nil
			}

			if newBranch != "" {
				if _, err := r.CreateBranch(newBranch, target); err != nil {
					return err
				}
				target = newBranch
			}
			if target == "" {
				return fmt.Errorf("checkout target is required")
			}
			if err := r.Checkout(target); err != nil {
				return err
			}

			branch, _ := r.CurrentBranch()
			if branch != "" {
				fmt.Fprintf(out, "switched to branch '%s'\n", branch)
				return nil
			}
			h, _ := r.ResolveRef("HEAD")
			fmt.Fprintf(out, "HEAD is now at %s\n", h.Short())
			return nil
		},
	}
	cmd.Flags().StringVarP(&newBranch, "branch", "b", "", "create the branch at the target and switch to it")
	cmd.Flags().StringVar(&into, "into", "", "write the tree into an empty directory instead of switching")
	return cmd
}
