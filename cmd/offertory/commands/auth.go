package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func loginCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "login <phone>",
		Short: "Sign in with a member phone number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			user, err := a.session.Login(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s)\n", user.DisplayName(), user.Role)
			return nil
		},
	}
}

func logoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the saved token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			if err := a.session.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func whoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in member",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireUser(cmd.Context()); err != nil {
				return err
			}
			user, _ := a.session.User()
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", user.DisplayName(), user.PhoneNumber, user.Role)
			return nil
		},
	}
}
