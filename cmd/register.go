package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vitrinecli/vitrine/internal/errs"
	"github.com/vitrinecli/vitrine/internal/session"
)

var (
	regName     string
	regEmail    string
	regPassword string
	regVerify   string
	regCountry  string
	regArea     string
	regNumber   string
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account",
	RunE: func(cmd *cobra.Command, args []string) error {
		input := session.RegisterInput{
			Name:           regName,
			Email:          regEmail,
			Password:       regPassword,
			VerifyPassword: regVerify,
		}
		if regCountry != "" || regArea != "" || regNumber != "" {
			input.Phone = &session.Phone{Country: regCountry, Area: regArea, Number: regNumber}
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		if err := sess.Register(ctx, input); err != nil {
			return fmt.Errorf("registration failed: %s", errs.UserMessage(err))
		}

		// The service may or may not sign the new account in; branch on
		// actual session state instead of assuming a token exists.
		if sess.Authenticated() {
			cmd.Println("Registered and signed in.")
		} else {
			cmd.Println("Registered. Run 'vitrine login' to sign in.")
		}
		return nil
	},
}

func init() {
	registerCmd.Flags().StringVar(&regName, "name", "", "full name")
	registerCmd.Flags().StringVarP(&regEmail, "email", "e", "", "account email")
	registerCmd.Flags().StringVarP(&regPassword, "password", "p", "", "account password")
	registerCmd.Flags().StringVar(&regVerify, "verify-password", "", "password confirmation")
	registerCmd.Flags().StringVar(&regCountry, "phone-country", "", "phone country code")
	registerCmd.Flags().StringVar(&regArea, "phone-area", "", "phone area code")
	registerCmd.Flags().StringVar(&regNumber, "phone-number", "", "phone local number")
	rootCmd.AddCommand(registerCmd)
}
