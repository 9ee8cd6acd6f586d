package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/odvcencio/pal/pkg/repo"
)

func newInitCmd() *cobra.Command {
	var name, email string

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Create an empty pal repository",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}
			abs, err := filepath.Abs(path)
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}
			if err := os.MkdirAll(abs, 0o755); err != nil {
				return fmt.Errorf("create directory: %w", err)
			}

			r, err := repo.Init(abs)
			if err != nil {
				return err
			}
			if name != "" {
				if err := r.SetConfigValue("user.name", name); err != nil {
					return err
				}
			}
			if email != "" {
				if err := r.SetConfigValue("user.email", email); err != nil {
					return err
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "initialized empty pal repository in %s%c\n", r.PalDir, filepath.Separator)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "user.name to record in the new config")
	cmd.Flags().StringVar(&email, "email", "", "user.email to record in the new config")
	return cmd
}
