// Package export serializes a catalog page to shareable formats.
package export

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/vitrinecli/vitrine/internal/api"
)

// Page is the exportable snapshot of one collection page.
type Page struct {
	Filter     string        `json:"filter,omitempty"`
	Page       int           `json:"page"`
	TotalPages int           `json:"totalPages"`
	ExportedAt time.Time     `json:"exportedAt"`
	Items      []api.Product `json:"items"`
}

// Renderer serializes a Page to bytes.
type Renderer interface {
	Render(page *Page) ([]byte, error)
}

// RendererFor picks a renderer by format name.
func RendererFor(format string) (Renderer, error) {
	switch strings.ToLower(format) {
	case "json":
		return &JSONRenderer{}, nil
	case "markdown", "md", "":
		return &MarkdownRenderer{}, nil
	default:
		return nil, fmt.Errorf("unknown export format %q (want markdown or json)", format)
	}
}

// JSONRenderer renders a Page as indented JSON.
type JSONRenderer struct{}

func (r *JSONRenderer) Render(page *Page) ([]byte, error) {
	return json.MarshalIndent(page, "", "  ")
}

// MarkdownRenderer renders a Page as a human-readable Markdown table.
type MarkdownRenderer struct{}

func (r *MarkdownRenderer) Render(page *Page) ([]byte, error) {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Products — page %d/%d — %s\n\n",
		page.Page, page.TotalPages,
		page.ExportedAt.Format("2006-01-02 15:04:05 MST"),
	)
	if page.Filter != "" {
		fmt.Fprintf(&sb, "Filter: `%s`\n\n", page.Filter)
	}

	if len(page.Items) == 0 {
		sb.WriteString("_No products._\n")
		return []byte(sb.String()), nil
	}

	sb.WriteString("| Title | Description | Status | Updated | Thumbnail |\n")
	sb.WriteString("|-------|-------------|--------|---------|-----------|\n")
	for _, p := range page.Items {
		status := "inactive"
		if p.Status {
			status = "active"
		}
		updated := ""
		if !p.UpdatedAt.IsZero() {
			updated = p.UpdatedAt.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(&sb, "| %s | %s | %s | %s | %s |\n",
			cell(p.Title), cell(p.Description), status, updated, cell(p.Thumbnail))
	}
	return []byte(sb.String()), nil
}

// cell escapes pipes so free text cannot break the table.
func cell(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "\\|")
}
