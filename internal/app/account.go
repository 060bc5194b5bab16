package app

import (
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newSignUpCommand(e *env) *cobra.Command {
	var email, password, name string

	cmd := &cobra.Command{
		Use:     "signup",
		Short:   "Create an account and sign in",
		Example: `  hookscontent signup --email ana@example.com --password secreto --name "Ana Ruiz"`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, err := e.account.SignUp(cmd.Context(), strings.TrimSpace(email), password, strings.TrimSpace(name))
			if err != nil {
				return err
			}
			e.printf("Signed up as %s (%s)\n", user.Email, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "password", "", "Password, at least 6 characters")
	cmd.Flags().StringVar(&name, "name", "", "Full name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newSignInCommand(e *env) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Sign in and remember the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, err := e.account.SignIn(cmd.Context(), strings.TrimSpace(email), password)
			if err != nil {
				return err
			}
			e.printf("Signed in as %s (%s)\n", user.Email, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "password", "", "Password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newSignOutCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e.account.SignOut(cmd.Context())
			e.printf("Signed out\n")
			return nil
		},
	}
}

func newWhoAmICommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			user, err := e.currentUser(ctx)
			if err != nil {
				return err
			}

			e.printf("%s (%s)\n", user.Email, user.ID)
			if exp, ok := e.sessions.TokenExpiry(ctx); ok {
				verb := "expires"
				if exp.Before(now()) {
					verb = "expired"
				}
				e.printf("Access token %s %s\n", verb, humanize.Time(exp))
			}
			return nil
		},
	}
}
