package cmd

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current session status",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.Printf("API: %s\n", cfg.APIBaseURL)
		cmd.Printf("Session: %s\n", sess.Hydration())

		if !sess.Authenticated() {
			cmd.Println("Signed in: no")
			return nil
		}
		cmd.Println("Signed in: yes")

		// Best-effort expiry readout; the token is opaque to us and only
		// decoded, never validated, on the client.
		var claims jwt.RegisteredClaims
		_, _ = jwt.ParseWithClaims(sess.Token(), &claims,
			func(*jwt.Token) (any, error) { return nil, nil },
			jwt.WithoutClaimsValidation(),
		)
		if claims.ExpiresAt != nil {
			cmd.Printf("Token expires: %s\n", claims.ExpiresAt.Time.Format(time.RFC3339))
		}
		if claims.Subject != "" {
			cmd.Printf("Subject: %s\n", claims.Subject)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
