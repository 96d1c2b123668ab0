package cli

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/calckeeper/internal/client/client"
	"github.com/dmitrijs2005/calckeeper/internal/common"
	"github.com/spf13/cobra"
)

func (a *App) registerCommand() *cobra.Command {
	var req client.RegisterRequest

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a new account",
		Long: `Create a new account. Username and email are prompted for when not
given as flags; the password is always read from the terminal.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()

			var err error
			if req.Username, err = textOrPrompt(a.reader, w, req.Username, "Username"); err != nil {
				return err
			}
			if req.Email, err = textOrPrompt(a.reader, w, req.Email, "Email"); err != nil {
				return err
			}

			password, err := GetPassword(w, "Password: ")
			if err != nil {
				return err
			}
			defer common.WipeByteArray(password)

			confirm, err := GetPassword(w, "Confirm password: ")
			if err != nil {
				return err
			}
			defer common.WipeByteArray(confirm)

			req.Password = string(password)
			req.ConfirmPassword = string(confirm)

			user, err := a.api.Register(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "Registered %s (%s). Run 'calckeeper login' to sign in.\n", user.Username, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&req.Username, "username", "u", "", "username (3-50 letters, digits, '_' or '-')")
	cmd.Flags().StringVarP(&req.Email, "email", "e", "", "email address")
	cmd.Flags().StringVar(&req.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&req.LastName, "last-name", "", "last name")
	return cmd
}

func (a *App) loginCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "login [username-or-email]",
		Short: "Sign in and remember the session",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()

			var login string
			if len(args) == 1 {
				login = args[0]
			}
			login, err := textOrPrompt(a.reader, w, login, "Username or email")
			if err != nil {
				return err
			}

			password, err := GetPassword(w, "Password: ")
			if err != nil {
				return err
			}
			defer common.WipeByteArray(password)

			tokens, err := a.api.Login(cmd.Context(), login, string(password))
			if err != nil {
				if errors.Is(err, client.ErrUnauthorized) {
					return errors.New("invalid credentials")
				}
				return err
			}

			sess := &client.Session{ServerURL: a.config.ServerURL}
			sess.Apply(tokens)
			if err := a.store.Save(sess); err != nil {
				return err
			}
			a.session = sess

			fmt.Fprintf(w, "Logged in as %s\n", sess.Username)
			return nil
		},
	}
}

func (a *App) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the current session and forget it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			if a.session == nil {
				fmt.Fprintln(w, "Not logged in")
				return nil
			}

			err := a.api.Logout(cmd.Context())
			if clearErr := a.store.Clear(); clearErr != nil {
				return clearErr
			}
			a.session = nil

			// Tokens that are already dead need no revoking.
			if err != nil && !errors.Is(err, client.ErrUnauthorized) {
				return fmt.Errorf("local session removed, server logout failed: %w", err)
			}
			fmt.Fprintln(w, "Logged out")
			return nil
		},
	}
}

func (a *App) whoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireSession(); err != nil {
				return err
			}
			user, err := a.api.Me(cmd.Context())
			if err != nil {
				return err
			}
			printUser(cmd.OutOrStdout(), user)
			return nil
		},
	}
}
