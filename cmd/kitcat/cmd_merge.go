package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"kitcat/pkg/repo"
)

func newMergeCmd() *cobra.Command {
	var noFF bool
	var ffOnly bool
	var abort bool
	var cont bool
	var message string

	cmd := &cobra.Command{
		Use:   "merge [branch]",
		Short: "Merge a branch into the current branch",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if abort {
				if err := r.AbortMerge(); err != nil {
					return err
				}
				fmt.Fprintln(out, "merge aborted")
				return nil
			}
			if cont {
				h, err := r.ContinueMerge(message)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "merge completed: %s\n", shortHash(string(h)))
				return nil
			}

			if len(args) != 1 {
				return fmt.Errorf("merge requires a branch name")
			}
			target := args[0]

			outcome, err := r.Merge(target, repo.MergeOptions{
				NoFF:    noFF,
				FFOnly:  ffOnly,
				Message: message,
			})
			if err != nil {
				return err
			}

			switch {
			case outcome.AlreadyUpToDate:
				fmt.Fprintln(out, "already up to date")
			case outcome.FastForward:
				fmt.Fprintf(out, "fast-forward to %s\n", shortHash(string(outcome.CommitHash)))
			case len(outcome.Conflicts) > 0:
				for _, path := range outcome.Conflicts {
					fmt.Fprintf(out, "CONFLICT: %s\n", path)
				}
				fmt.Fprintln(out, "automatic merge failed; fix conflicts, stage the files, then run kitcat merge --continue")
			default:
				fmt.Fprintf(out, "merge completed: %s\n", shortHash(string(outcome.CommitHash)))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&noFF, "no-ff", false, "always create a merge commit")
	cmd.Flags().BoolVar(&ffOnly, "ff-only", false, "refuse unless a fast-forward is possible")
	cmd.Flags().BoolVar(&abort, "abort", false, "abort the in-progress merge")
	cmd.Flags().BoolVar(&cont, "continue", false, "finish the in-progress merge after resolving conflicts")
	cmd.Flags().StringVarP(&message, "message", "m", "", "merge commit message")

	return cmd
}
