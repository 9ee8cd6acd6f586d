package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <paths...>",
		Short: "Stage files for the next commit",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			return r.Add(args)
		},
	}
}

func newRmCmd() *cobra.Command {
	var cached bool

	cmd := &cobra.Command{
		Use:   "rm <paths...>",
		Short: "Remove files from the index and the working tree",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			return r.Remove(args, !cached)
		},
	}
	cmd.Flags().BoolVar(&cached, "cached", false, "only unstage; keep the working copy")
	return cmd
}

func newLsFilesCmd() *cobra.Command {
	var stage bool

	cmd := &cobra.Command{
		Use:   "ls-files",
		Short: "List the files in the index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			entries, err := r.ListFiles()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, e := range entries {
				if stage {
					n := 0
					if e.Stage {
						n = 1
					}
					fmt.Fprintf(out, "%s %s %d\t%s\n", e.TreeMode(), e.Hash, n, e.Name)
					continue
				}
				fmt.Fprintln(out, e.Name)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&stage, "stage", "s", false, "show mode, hash and stage")
	return cmd
}

func newCheckIgnoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-ignore <paths...>",
		Short: "Print the paths that ignore rules exclude",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			rules, err := r.ReadIgnoreRules()
			if err != nil {
				return err
			}
			for _, p := range args {
				ignored, err := rules.Check(p)
				if err != nil {
					return err
				}
				if ignored {
					fmt.Fprintln(cmd.OutOrStdout(), p)
				}
			}
			return nil
		},
	}
}
