package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"kitcat/pkg/repo"
)

func newCheckoutCmd() *cobra.Command {
	var createBranch bool
	var force bool

	cmd := &cobra.Command{
		Use:   "checkout <branch|commit>",
		Short: "Switch branches or check out a commit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := args[0]

			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			if createBranch {
				head, err := r.ResolveRef("HEAD")
				if err != nil {
					return fmt.Errorf("cannot resolve HEAD: %w", err)
				}
				if err := r.CreateBranch(target, head); err != nil {
					return err
				}
			}

			if err := r.Checkout(target, force); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch branch, _ := r.CurrentBranch(); {
			case createBranch:
				fmt.Fprintf(out, "switched to new branch '%s'\n", target)
			case branch != "":
				fmt.Fprintf(out, "switched to branch '%s'\n", branch)
			default:
				fmt.Fprintf(out, "HEAD is now at %s\n", shortHash(target))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&createBranch, "branch", "b", false, "create and switch to a new branch")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "discard uncommitted changes")

	return cmd
}
