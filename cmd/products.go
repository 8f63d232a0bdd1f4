package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/vitrinecli/vitrine/internal/catalog"
	"github.com/vitrinecli/vitrine/internal/tui"
)

var (
	listFilter string
	listPage   int
	listSort   string
	listDesc   bool
)

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "Browse and manage the product catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}
		// Interactive terminal gets the browser; pipes get a plain listing.
		if term.IsTerminal(os.Stdout.Fd()) {
			return tui.Run(cmd.Context(), sess, cat)
		}
		return runList(cmd)
	},
}

var productsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List one page of products",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}
		return runList(cmd)
	},
}

// runList fetches and prints one page using the shared list flags.
func runList(cmd *cobra.Command) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	if err := cat.Search(ctx, listFilter); err != nil {
		return fmt.Errorf("fetching products: %s", cat.LastError())
	}
	if listPage > 1 {
		if err := cat.ChangePage(ctx, listPage); err != nil {
			return err
		}
	}
	if listSort != "" {
		field, err := sortField(listSort)
		if err != nil {
			return err
		}
		cat.SetSort(field)
		if listDesc {
			cat.SetSort(field) // second application flips to descending
		}
	}

	printPage(cmd, cat.Snapshot())
	return nil
}

// sortField maps a flag value onto a catalog sort field.
func sortField(name string) (catalog.SortField, error) {
	switch name {
	case "title":
		return catalog.SortTitle, nil
	case "status":
		return catalog.SortStatus, nil
	case "updated", "updatedAt":
		return catalog.SortUpdated, nil
	default:
		return "", fmt.Errorf("unknown sort field %q (want title, status or updated)", name)
	}
}

// printPage writes a plain-text listing to the command's output.
func printPage(cmd *cobra.Command, view catalog.View) {
	if len(view.Items) == 0 {
		cmd.Println("no products found")
		return
	}
	for _, p := range view.Items {
		status := "inactive"
		if p.Status {
			status = "active"
		}
		updated := ""
		if !p.UpdatedAt.IsZero() {
			updated = p.UpdatedAt.Format("2006-01-02 15:04")
		}
		cmd.Printf("%-36s  %-28s  %-8s  %s\n", p.ID, p.Title, status, updated)
	}
	cmd.Printf("page %d/%d\n", view.Page, view.TotalPages)
}

func init() {
	for _, c := range []*cobra.Command{productsCmd, productsListCmd} {
		c.Flags().StringVar(&listFilter, "filter", "", "title filter")
		c.Flags().IntVar(&listPage, "page", 1, "page number")
		c.Flags().StringVar(&listSort, "sort", "", "client-side sort: title, status or updated")
		c.Flags().BoolVar(&listDesc, "desc", false, "sort descending")
	}
	productsCmd.AddCommand(productsListCmd)
	rootCmd.AddCommand(productsCmd)
}
