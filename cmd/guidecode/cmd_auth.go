package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/and161185/guidecode/internal/app"
)

func (c *cli) signupCmd() *cobra.Command {
	var form app.SignUpForm
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create a local account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if form.Name == "" {
				if form.Name, err = c.prompt.line("Full name: "); err != nil {
					return err
				}
			}
			if form.Email == "" {
				if form.Email, err = c.prompt.line("Email: "); err != nil {
					return err
				}
			}
			if form.Password == "" {
				if form.Password, err = c.prompt.password("Password: "); err != nil {
					return err
				}
				if form.Confirm, err = c.prompt.password("Confirm password: "); err != nil {
					return err
				}
			} else if form.Confirm == "" {
				form.Confirm = form.Password
			}

			u, err := c.app.SignUp(cmd.Context(), form)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, c.print.Success("Welcome to GuideCode, "+u.Name+"!"))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&form.Name, "name", "", "display name")
	f.StringVar(&form.Email, "email", "", "email address")
	f.StringVar(&form.Password, "password", "", "password (prompted when omitted)")
	f.StringVar(&form.Confirm, "confirm", "", "password confirmation (defaults to --password)")
	return cmd
}

func (c *cli) loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to an existing account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if email == "" {
				if email, err = c.prompt.line("Email: "); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = c.prompt.password("Password: "); err != nil {
					return err
				}
			}
			u, err := c.app.SignIn(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, c.print.Success("Welcome back, "+u.Name+"!"))
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when omitted)")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out; discussions stay on this device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.requireUser(); err != nil {
				return err
			}
			if !c.yes {
				ok, err := c.prompt.confirm("Sign Out?", "Your current mentoring progress is safely stored under your account.", "Sign Out")
				if err != nil || !ok {
					return err
				}
			}
			if err := c.app.SignOut(cmd.Context()); err != nil {
				c.log.Sugar().Warnw("sign out", "err", err)
				fmt.Fprintln(c.errw, c.print.Error(app.SignOutFailed))
				return errReported
			}
			fmt.Fprintln(c.out, c.print.Muted("Signed out."))
			return nil
		},
	}
}

func (c *cli) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			u := c.app.User()
			if u == nil {
				fmt.Fprintln(c.out, c.print.Muted("Not signed in."))
				return nil
			}
			fmt.Fprintln(c.out, c.print.User(*u))
			return nil
		},
	}
}
