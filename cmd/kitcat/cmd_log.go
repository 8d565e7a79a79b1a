package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"kitcat/pkg/object"
	"kitcat/pkg/repo"
)

func newLogCmd() *cobra.Command {
	var oneline bool
	var limit int

	cmd := &cobra.Command{
		Use:   "log [revision]",
		Short: "Show commit history",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			start := "HEAD"
			if len(args) == 1 {
				start = args[0]
			}
			startHash, err := r.ResolveCommit(start)
			if err != nil {
				return err
			}

			entries, err := r.Log(startHash, limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no commits yet")
				return nil
			}

			headHash, _ := r.ResolveRef("HEAD")
			branch, _ := r.CurrentBranch()

			out := cmd.OutOrStdout()
			for _, entry := range entries {
				decoration := buildDecoration(entry.Hash, headHash, branch)
				c := entry.Commit

				if oneline {
					subject, _, _ := strings.Cut(c.Message, "\n")
					if decoration != "" {
						fmt.Fprintf(out, "%s %s %s\n", shortHash(string(entry.Hash)), decoration, subject)
					} else {
						fmt.Fprintf(out, "%s %s\n", shortHash(string(entry.Hash)), subject)
					}
					continue
				}

				if decoration != "" {
					fmt.Fprintf(out, "commit %s %s\n", entry.Hash, decoration)
				} else {
					fmt.Fprintf(out, "commit %s\n", entry.Hash)
				}
				fmt.Fprintf(out, "Author: %s\n", c.Author)
				fmt.Fprintf(out, "Date:   %s\n", time.Unix(c.AuthorTime, 0).Format("2006-01-02 15:04:05"))
				fmt.Fprintln(out)
				for _, line := range strings.Split(strings.TrimRight(c.Message, "\n"), "\n") {
					fmt.Fprintf(out, "    %s\n", line)
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&oneline, "oneline", false, "compact one-line format")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of commits to show (0 = unlimited)")

	return cmd
}

// buildDecoration returns "(HEAD -> branch)" when the commit is the
// current HEAD, or "" otherwise.
func buildDecoration(commitHash, headHash object.Hash, branch string) string {
	if commitHash != headHash {
		return ""
	}
	if branch != "" {
		return "(HEAD -> " + branch + ")"
	}
	return "(HEAD)"
}
