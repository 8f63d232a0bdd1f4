package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/vitrinecli/vitrine/internal/errs"
)

var (
	loginEmail    string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the session token",
	RunE: func(cmd *cobra.Command, args []string) error {
		if loginEmail == "" {
			return fmt.Errorf("need --email")
		}
		password := loginPassword
		if password == "" {
			if !term.IsTerminal(os.Stdin.Fd()) {
				return fmt.Errorf("need --password (stdin is not a terminal)")
			}
			fmt.Fprint(os.Stderr, "Password: ")
			raw, err := term.ReadPassword(os.Stdin.Fd())
			fmt.Fprintln(os.Stderr)
			if err != nil {
				return err
			}
			password = string(raw)
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		if err := sess.Login(ctx, loginEmail, password); err != nil {
			return fmt.Errorf("login failed: %s", errs.UserMessage(err))
		}
		cmd.Println("Signed in.")
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVarP(&loginEmail, "email", "e", "", "account email")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "account password")
	rootCmd.AddCommand(loginCmd)
}
