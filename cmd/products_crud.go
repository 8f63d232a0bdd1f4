package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vitrinecli/vitrine/internal/catalog"
	"github.com/vitrinecli/vitrine/internal/errs"
)

var (
	createTitle       string
	createDescription string
	createThumbURL    string
	createThumbFile   string
	createInactive    bool
)

var productsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a product",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
		defer cancel()

		err := cat.Create(ctx, catalog.CreateInput{
			Title:         createTitle,
			Description:   createDescription,
			ThumbnailURL:  createThumbURL,
			ThumbnailFile: createThumbFile,
			Status:        !createInactive,
		})
		if err != nil {
			return fmt.Errorf("create failed: %s", errs.UserMessage(err))
		}
		cmd.Println("Product created.")
		return nil
	},
}

var (
	updateTitle       string
	updateDescription string
	updateStatus      bool
	updateThumbURL    string
	updateThumbFile   string
)

var productsUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update product fields and/or its thumbnail",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}

		// Only flags the user actually set become part of the partial
		// update; everything else stays untouched remotely.
		input := catalog.UpdateInput{
			ThumbnailURL:  updateThumbURL,
			ThumbnailFile: updateThumbFile,
		}
		flags := cmd.Flags()
		if flags.Changed("title") {
			input.Title = &updateTitle
		}
		if flags.Changed("description") {
			input.Description = &updateDescription
		}
		if flags.Changed("status") {
			input.Status = &updateStatus
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
		defer cancel()

		err := cat.Update(ctx, args[0], input)
		var partial *errs.PartialError
		if errors.As(err, &partial) {
			// The field update went through; only the image is missing.
			// Report it as its own condition so the user re-runs just the
			// thumbnail step.
			return fmt.Errorf("fields saved, image not saved: %v", partial.Err)
		}
		if err != nil {
			return fmt.Errorf("update failed: %s", errs.UserMessage(err))
		}
		cmd.Println("Product updated.")
		return nil
	},
}

var deleteYes bool

var productsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a product",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}
		if !deleteYes {
			fmt.Fprintf(os.Stderr, "Delete product %s? [y/N]: ", args[0])
			line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
			if answer := strings.ToLower(strings.TrimSpace(line)); answer != "y" && answer != "yes" {
				cmd.Println("Aborted.")
				return nil
			}
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		if err := cat.Remove(ctx, args[0]); err != nil {
			return fmt.Errorf("delete failed: %s", errs.UserMessage(err))
		}
		cmd.Println("Product deleted.")
		return nil
	},
}

func init() {
	productsCreateCmd.Flags().StringVar(&createTitle, "title", "", "product title")
	productsCreateCmd.Flags().StringVar(&createDescription, "description", "", "product description")
	productsCreateCmd.Flags().StringVar(&createThumbURL, "thumbnail-url", "", "thumbnail URL reference")
	productsCreateCmd.Flags().StringVar(&createThumbFile, "thumbnail-file", "", "thumbnail image file to upload")
	productsCreateCmd.Flags().BoolVar(&createInactive, "inactive", false, "create as inactive")

	productsUpdateCmd.Flags().StringVar(&updateTitle, "title", "", "new title")
	productsUpdateCmd.Flags().StringVar(&updateDescription, "description", "", "new description")
	productsUpdateCmd.Flags().BoolVar(&updateStatus, "status", true, "active (true) or inactive (false)")
	productsUpdateCmd.Flags().StringVar(&updateThumbURL, "thumbnail-url", "", "new thumbnail URL reference")
	productsUpdateCmd.Flags().StringVar(&updateThumbFile, "thumbnail-file", "", "new thumbnail image file")

	productsDeleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "skip the confirmation prompt")

	productsCmd.AddCommand(productsCreateCmd, productsUpdateCmd, productsDeleteCmd)
}
