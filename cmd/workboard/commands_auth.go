// commands_auth.go defines the authentication commands: login, register,
// logout, whoami.
package main

import (
	"github.com/spf13/cobra"
)

func buildLoginCmd() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "login <username>",
		Short: "Sign in and persist the session token",
		Args:  cobra.ExactArgs(1),
		Example: `  # Prompt for the password
  workboard login alice

  # Non-interactive (scripts)
  workboard login alice --password s3cret`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd.Context(), args[0], password)
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (prompted when omitted)")
	return cmd
}

func buildRegisterCmd() *cobra.Command {
	var (
		password string
		email    string
		phone    string
		adminKey string
	)

	cmd := &cobra.Command{
		Use:   "register <username>",
		Short: "Create an account",
		Long: `Create an account on the backend.

With --admin-key the account is registered through the administrator
endpoint and granted admin rights; otherwise a regular account is created.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegister(cmd.Context(), registerForm{
				username: args[0],
				password: password,
				email:    email,
				phone:    phone,
				adminKey: adminKey,
			})
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (prompted when omitted)")
	cmd.Flags().StringVar(&email, "email", "", "Contact email")
	cmd.Flags().StringVar(&phone, "phone", "", "Contact phone number")
	cmd.Flags().StringVar(&adminKey, "admin-key", "", "Secret key for administrator registration")
	return cmd
}

func buildLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Discard the persisted session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout()
		},
	}
}

func buildWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWhoami()
		},
	}
}
