package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"kitcat/pkg/repo"
)

func newGcCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "gc",
		Short: "Remove unreachable objects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			summary, err := r.GC(dryRun)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(summary.Pruned) == 0 {
				fmt.Fprintln(out, "nothing to prune")
				return nil
			}
			for _, h := range summary.Pruned {
				fmt.Fprintf(out, "prune %s\n", h)
			}
			verb := "pruned"
			if dryRun {
				verb = "would prune"
			}
			fmt.Fprintf(out, "%s %d object(s), %d reachable\n", verb, len(summary.Pruned), summary.Reachable)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would be pruned without deleting")

	return cmd
}
