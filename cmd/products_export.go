package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vitrinecli/vitrine/internal/export"
)

var (
	exportFormat string
	exportOutput string
)

var productsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export one page of products to markdown or JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}
		format := exportFormat
		if format == "" {
			format = cfg.DefaultFormat
		}
		renderer, err := export.RendererFor(format)
		if err != nil {
			return err
		}

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

		view := cat.Snapshot()
		page := &export.Page{
			Filter:     view.Filter,
			Page:       view.Page,
			TotalPages: view.TotalPages,
			ExportedAt: time.Now(),
			Items:      view.Items,
		}
		data, err := renderer.Render(page)
		if err != nil {
			return err
		}

		if exportOutput == "" || exportOutput == "-" {
			cmd.Print(string(data))
			return nil
		}
		if err := os.WriteFile(exportOutput, data, 0o644); err != nil {
			return err
		}
		cmd.Printf("Exported to %s\n", exportOutput)
		return nil
	},
}

func init() {
	productsExportCmd.Flags().StringVar(&listFilter, "filter", "", "title filter")
	productsExportCmd.Flags().IntVar(&listPage, "page", 1, "page number")
	productsExportCmd.Flags().StringVar(&exportFormat, "format", "", "markdown or json (default from config)")
	productsExportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file ('-' or empty for stdout)")
	productsCmd.AddCommand(productsExportCmd)
}
