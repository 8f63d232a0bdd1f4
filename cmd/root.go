package cmd

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vitrinecli/vitrine/internal/api"
	"github.com/vitrinecli/vitrine/internal/catalog"
	"github.com/vitrinecli/vitrine/internal/config"
	"github.com/vitrinecli/vitrine/internal/guard"
	"github.com/vitrinecli/vitrine/internal/logging"
	"github.com/vitrinecli/vitrine/internal/session"
)

// cfg holds the merged configuration, populated in PersistentPreRunE.
var cfg config.Config

// Application context, constructed once per invocation. The stores are
// explicit objects passed down from here; nothing else in the program holds
// session or collection state.
var (
	logger  *zap.Logger
	client  *api.Client
	sess    *session.Store
	cat     *catalog.Store
	baseURL string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "vitrine",
	Short: "Manage a remote product catalog from the terminal",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Setup only writes config; it must work before any session exists.
		if cmd.Name() == "setup" {
			return nil
		}

		// Load and merge config files.
		global, err := config.LoadGlobal()
		if err != nil {
			return fmt.Errorf("loading global config: %w", err)
		}
		project, err := config.LoadProject()
		if err != nil {
			return fmt.Errorf("loading project config: %w", err)
		}
		cfg = config.Merge(global, project)
		if baseURL != "" {
			cfg.APIBaseURL = baseURL
		}

		logPath := ""
		if debug {
			logPath = cfg.DebugLog
		}
		logger, err = logging.New(logPath)
		if err != nil {
			return fmt.Errorf("opening debug log: %w", err)
		}

		persister, err := session.NewPersister()
		if err != nil {
			return err
		}

		client = api.NewClient(cfg.APIBaseURL,
			api.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.RequestTimeout) * time.Second}),
			api.WithLogger(logger),
		)
		sess = session.New(client, persister, logger)
		client.SetTokenSource(sess)
		cat = catalog.New(client, cfg.Locale, logger)

		// Startup barrier: hydration must finish before any guard decision.
		if err := sess.Rehydrate(); err != nil {
			return fmt.Errorf("restoring session: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// ErrNotAuthenticated asks the user to sign in; commands return it when the
// route guard denies rendering.
var ErrNotAuthenticated = errors.New("not signed in — run 'vitrine login'")

// requireAuth is the command-level route guard. Hydration has already
// completed by the time any RunE executes, so the decision is final.
func requireAuth() error {
	d := guard.Evaluate(sess.Hydration() == session.Hydrated, sess.Token())
	if !d.ShouldRender {
		return ErrNotAuthenticated
	}
	return nil
}

// Execute runs the root command. Exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "override the API base URL")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "write structured debug logs")
}
