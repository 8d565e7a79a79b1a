package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"kitcat/pkg/diff"
	"kitcat/pkg/repo"
)

func newDiffCmd() *cobra.Command {
	var cached bool
	var stat bool
	var noColor bool

	cmd := &cobra.Command{
		Use:   "diff [commit commit]",
		Short: "Show changes between working tree, index, HEAD, or two commits",
		Args:  cobra.RangeArgs(0, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			var diffs []diff.FileDiff
			switch {
			case len(args) == 2:
				a, err := r.ResolveCommit(args[0])
				if err != nil {
					return err
				}
				b, err := r.ResolveCommit(args[1])
				if err != nil {
					return err
				}
				diffs, err = r.DiffCommits(a, b)
				if err != nil {
					return err
				}
			case len(args) == 1:
				return fmt.Errorf("diff needs zero or two revisions")
			case cached:
				diffs, err = r.DiffCached()
				if err != nil {
					return err
				}
			default:
				diffs, err = r.DiffWorktree()
				if err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			useColor := !noColor

			if stat {
				totalAdd, totalDel := 0, 0
				for i := range diffs {
					d := diffs[i]
					d.NewPath = strings.TrimPrefix(d.NewPath, "b/")
					fmt.Fprintf(out, " %s\n", diff.Summary(&d, useColor))
					totalAdd += diffs[i].Additions()
					totalDel += diffs[i].Deletions()
				}
				if len(diffs) > 0 {
					fmt.Fprintf(out, " %d file(s) changed, %s\n", len(diffs), statLine(totalAdd, totalDel))
				}
				return nil
			}

			opts := diff.Options{Color: useColor}
			for i := range diffs {
				fmt.Fprint(out, diff.Unified(&diffs[i], opts))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&cached, "cached", false, "show staged changes (index vs HEAD)")
	cmd.Flags().BoolVar(&stat, "stat", false, "show a per-file summary instead of hunks")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored output")

	return cmd
}

func statLine(additions, deletions int) string {
	return fmt.Sprintf("%d insertion(s)(+), %d deletion(s)(-)", additions, deletions)
}
