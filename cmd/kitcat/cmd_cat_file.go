package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"kitcat/pkg/object"
	"kitcat/pkg/repo"
)

func newCatFileCmd() *cobra.Command {
	var pretty bool
	var showType bool

	cmd := &cobra.Command{
		Use:   "cat-file <hash>",
		Short: "Show the content or type of a stored object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			h, err := r.Store.Resolve(args[0])
			if err != nil {
				return err
			}
			objType, payload, err := r.Store.Get(h)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if showType {
				fmt.Fprintln(out, objType)
				return nil
			}
			if !pretty {
				return fmt.Errorf("cat-file requires -p or -t")
			}

			switch objType {
			case object.TypeTree:
				tree, err := object.UnmarshalTree(payload)
				if err != nil {
					return err
				}
				for _, e := range tree.Entries {
					kind := object.TypeBlob
					if e.IsDir {
						kind = object.TypeTree
					}
					mode := e.Mode
					for len(mode) < 6 {
						mode = "0" + mode
					}
					fmt.Fprintf(out, "%s %s %s\t%s\n", mode, kind, e.Hash, e.Name)
				}
			default:
				fmt.Fprintf(out, "%s", payload)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&pretty, "pretty", "p", false, "pretty-print the object content")
	cmd.Flags().BoolVarP(&showType, "type", "t", false, "show the object type")

	return cmd
}
