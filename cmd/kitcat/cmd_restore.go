package main

import (
	"github.com/spf13/cobra"

	"kitcat/pkg/repo"
)

func newRestoreCmd() *cobra.Command {
	var staged bool

	cmd := &cobra.Command{
		Use:   "restore <paths...>",
		Short: "Restore working tree files, or unstage with --staged",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}
			for _, path := range args {
				if staged {
					err = r.Unstage(path)
				} else {
					err = r.RestoreFile(path)
				}
				if err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&staged, "staged", false, "remove the paths from the staging area instead")

	return cmd
}
