package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"kitcat/pkg/repo"
)

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config <key> [value]",
		Short: "Get or set repository configuration (user.name, user.email)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}
			cfg, err := r.ReadConfig()
			if err != nil {
				return err
			}
			key := args[0]

			if len(args) == 1 {
				var value string
				switch key {
				case "user.name":
					value = cfg.User.Name
				case "user.email":
					value = cfg.User.Email
				default:
					return fmt.Errorf("unknown config key %q", key)
				}
				if value != "" {
					fmt.Fprintln(cmd.OutOrStdout(), value)
				}
				return nil
			}

			switch key {
			case "user.name":
				cfg.User.Name = args[1]
			case "user.email":
				cfg.User.Email = args[1]
			default:
				return fmt.Errorf("unknown config key %q", key)
			}
			return r.WriteConfig(cfg)
		},
	}
}
