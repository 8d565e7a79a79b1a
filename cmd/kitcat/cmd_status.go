package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"kitcat/pkg/repo"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show working tree status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			st, err := r.Status()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if st.Detached {
				fmt.Fprintln(out, "HEAD detached")
			} else {
				fmt.Fprintf(out, "on branch %s\n", st.Branch)
			}
			if r.MergeInProgress() {
				fmt.Fprintln(out, "merge in progress (use \"kitcat merge --continue\" or \"kitcat merge --abort\")")
			}

			var staged []string
			for _, p := range st.StagedAdded {
				staged = append(staged, "  + "+p)
			}
			for _, p := range st.StagedModified {
				staged = append(staged, "  ~ "+p)
			}
			for _, p := range st.StagedDeleted {
				staged = append(staged, "  - "+p)
			}
			printSection(out, "staged:", staged)

			var unstaged []string
			for _, p := range st.Modified {
				unstaged = append(unstaged, "  ~ "+p)
			}
			for _, p := range st.Deleted {
				unstaged = append(unstaged, "  - "+p)
			}
			printSection(out, "unstaged:", unstaged)

			var untracked []string
			for _, p := range st.Untracked {
				untracked = append(untracked, "  "+p)
			}
			printSection(out, "untracked:", untracked)

			if st.IsClean() {
				fmt.Fprintln(out, "nothing to commit, working tree clean")
			}
			return nil
		},
	}
}

func printSection(out io.Writer, title string, lines []string) {
	if len(lines) == 0 {
		return
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, title)
	for _, l := range lines {
		fmt.Fprintln(out, l)
	}
}
