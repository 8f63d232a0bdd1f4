package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vitrinecli/vitrine/internal/config"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Configure vitrine (re-run anytime to edit settings)",
	// Bypass the normal PersistentPreRunE so setup works before any config
	// or session exists.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSetup()
	},
}

// runSetup runs the interactive setup wizard, seeding prompts from the
// existing global config when present.
func runSetup() error {
	existing, err := config.LoadGlobal()
	if err != nil || existing == nil {
		d := config.Defaults()
		existing = &d
	}

	reader := bufio.NewReader(os.Stdin)
	cfg := *existing

	cfg.APIBaseURL = prompt(reader, "API base URL", existing.APIBaseURL)
	if v := prompt(reader, "Request timeout (seconds)", strconv.Itoa(existing.RequestTimeout)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RequestTimeout = n
		}
	}
	cfg.Locale = prompt(reader, "Locale for sorting", existing.Locale)
	cfg.DefaultFormat = prompt(reader, "Default export format (markdown/json)", existing.DefaultFormat)

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Println("  ✓ Config saved.")
	fmt.Println("  Run 'vitrine login' to sign in.")
	return nil
}

// prompt asks one question, returning the default when the answer is empty.
func prompt(reader *bufio.Reader, label, def string) string {
	fmt.Printf("  %s [%s]: ", label, def)
	line, err := reader.ReadString('\n')
	if err != nil {
		return def
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return def
	}
	return line
}

func init() {
	rootCmd.AddCommand(setupCmd)
}
