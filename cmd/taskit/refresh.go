package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"taskit/internal/service"
)

func refreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Run the anchored-task refresh for every user once",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			if err := service.RefreshAllUsers(context.Background(), a.users, a.due); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "anchored tasks refreshed for %s\n", a.clock.Today())
			return nil
		},
	}
}
