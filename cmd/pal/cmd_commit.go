package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/odvcencio/pal/pkg/object"
	"github.com/odvcencio/pal/pkg/repo"
)

func newCommitCmd() *cobra.Command {
	var (
		message string
		author  string
		sign    bool
		keyPath string
	)

	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Record the staged snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(message) == "" {
				return fmt.Errorf("commit message is required (-m)")
			}
			r, err := openRepo()
			if err != nil {
				return err
			}

			var signer repo.CommitSigner
			if sign || keyPath != "" {
				signer, _, err = newSSHCommitSigner(keyPath)
				if err != nil {
					return err
				}
			}
			h, err := r.CommitWithSigner(message, author, signer)
			if err != nil {
				return err
			}

			branch, _ := r.CurrentBranch()
			if branch == "" {
				branch = "detached HEAD"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "[%s %s] %s\n", branch, h.Short(), firstLine(message))
			return nil
		},
	}
	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message")
	cmd.Flags().StringVar(&author, "author", "", `override author ("Name <email>"), default from user.name/user.email`)
	cmd.Flags().BoolVarP(&sign, "sign", "S", false, "sign the commit with an SSH key")
	cmd.Flags().StringVar(&keyPath, "key", "", "SSH private key for signing (default ~/.ssh/id_ed25519, id_ecdsa, id_rsa)")
	return cmd
}

func newVerifyCommitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify-commit [commit]",
		Short: "Check the SSH signature of a commit",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			name := "HEAD"
			if len(args) == 1 {
				name = args[0]
			}
			h, err := r.ResolveCommit(name)
			if err != nil {
				return err
			}
			c, err := r.Store.ReadCommit(h)
			if err != nil {
				return err
			}
			pub, err := object.VerifyCommitSignature(c)
			if err != nil {
				return fmt.Errorf("commit %s: %w", h.Short(), err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "good signature on %s from %s key %s\n", h.Short(), pub.Type(), fingerprint(pub))
			return nil
		},
	}
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}
