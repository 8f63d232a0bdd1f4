package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and discard the stored token",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Local logout always succeeds; the remote notification inside is
		// best-effort and bounded.
		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
		defer cancel()

		sess.Logout(ctx)
		cmd.Println("Signed out.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}
