package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/orchat/orchat/internal/update"
)

func newUpdateCmd() *cobra.Command {
	var checkOnly bool

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update orchat to the latest release",
		RunE: func(cmd *cobra.Command, args []string) error {
			if version == "dev" && !checkOnly {
				fmt.Println("Auto-update is not available for development builds.")
				return nil
			}

			ctx := context.Background()
			if checkOnly {
				res, err := update.Check(ctx, version)
				if err != nil {
					return err
				}
				if res.UpdateAvailable {
					fmt.Printf("Update available: v%s -> v%s. Run 'orchat update' to upgrade.\n",
						res.CurrentVersion, res.LatestVersion)
				} else {
					fmt.Println("Already running the latest version.")
				}
				return nil
			}

			fmt.Println("Checking for updates...")
			res, err := update.Apply(ctx, version)
			if err != nil {
				return err
			}
			if res.Applied {
				fmt.Printf("Updated to v%s. Restart orchat to use the new version.\n", res.LatestVersion)
			} else {
				fmt.Println("Already running the latest version.")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&checkOnly, "check", false, "check for a new release without installing")
	return cmd
}
