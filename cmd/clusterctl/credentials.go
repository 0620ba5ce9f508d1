package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/clusterpanel/internal/application"
)

func newCredentialsCommand(open openFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credentials",
		Short: "Manage stored server credentials",
	}
	cmd.AddCommand(newCredentialsSetCommand(open), newCredentialsRemoveCommand(open))
	return cmd
}

func newCredentialsSetCommand(open openFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <cluster>",
		Short: "Store the username and password for a cluster",
		Args:  cobra.ExactArgs(1),
	}

	username := cmd.Flags().String("username", "", "Server admin login")
	passwordStdin := cmd.Flags().Bool("password-stdin", false, "Read the password from stdin")
	password := cmd.Flags().String("password", "", "Server admin password (prefer --password-stdin)")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		pw := *password
		if *passwordStdin {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("read password: %w", err)
			}
			pw = strings.TrimRight(line, "\r\n")
		}
		if pw == "" {
			return errors.New("a password is required: use --password or --password-stdin")
		}

		return withExplorer(cmd, open, func(explorer *application.Explorer) error {
			if err := explorer.SetCredentials(cmd.Context(), args[0], *username, pw); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Credentials stored for %s\n", args[0])
			return nil
		})
	}

	return cmd
}

func newCredentialsRemoveCommand(open openFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <cluster>",
		Short: "Forget the stored credentials of a cluster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withExplorer(cmd, open, func(explorer *application.Explorer) error {
				if err := explorer.RemoveCredentials(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Credentials removed for %s\n", args[0])
				return nil
			})
		},
	}
}
