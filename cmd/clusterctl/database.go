package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/clusterpanel/internal/application"
)

func newDatabaseCommand(open openFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "database",
		Aliases: []string{"db"},
		Short:   "Create and delete databases",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "create <cluster> <name>",
			Short: "Create a database on a cluster",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withExplorer(cmd, open, func(explorer *application.Explorer) error {
					db, err := explorer.CreateDatabase(cmd.Context(), args[0], args[1])
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", db.FullID())
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "delete <cluster> <name>",
			Short: "Delete a database",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withExplorer(cmd, open, func(explorer *application.Explorer) error {
					if err := explorer.DeleteDatabase(cmd.Context(), args[0], args[1]); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s/%s\n", args[0], args[1])
					return nil
				})
			},
		},
	)

	return cmd
}
