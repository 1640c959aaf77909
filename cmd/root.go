// Package cmd defines the CLI commands for the idiomcrawler executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/idiom-dictionary-crawler/internal/app"
	"github.com/JakeFAU/idiom-dictionary-crawler/internal/config"
	"github.com/JakeFAU/idiom-dictionary-crawler/internal/logging"
)

const shutdownTimeout = 10 * time.Second

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

// newApp is the application factory. Tests replace it to inject fakes.
var newApp = func(cfg config.Config, logger *zap.Logger) (*app.App, error) {
	return app.New(cfg, logger, app.Options{})
}

// newLogger builds the process logger. Tests replace it with an observer.
var newLogger = logging.New

func newRootCmd() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "idiomcrawler",
		Short: "Downloads and extracts entries of the online idiom dictionary.",
		Long: `idiomcrawler mirrors the idiom dictionary in two phases.

"fetch" downloads every entry page in the configured identifier range into
<output_root>/html. "extract" parses the stored pages into structured JSON
records under <output_root>/json. Either phase can be rerun on its own.`,
		SilenceUsage: true,

		// Runs before the subcommand's RunE; builds and injects the App.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err := newLogger(cfg.Logging.Development)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			appInstance, err := newApp(cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}
			appInstance.StartStatusServer(cmd.Context())

			cmd.SetContext(context.WithValue(cmd.Context(), appKey, appInstance))
			return nil
		},

		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return nil
			}
			ctx, cancel := context.WithTimeout(context.WithoutCancel(cmd.Context()), shutdownTimeout)
			defer cancel()
			defer logging.Sync(appInstance.Logger())
			if err := appInstance.Close(ctx); err != nil {
				appInstance.Logger().Warn("shutdown incomplete", zap.Error(err))
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a YAML, JSON or TOML config file")

	cmd.AddCommand(newFetchCmd())
	cmd.AddCommand(newExtractCmd())

	return cmd
}

func resolveApp(ctx context.Context) (*app.App, error) {
	appInstance, ok := ctx.Value(appKey).(*app.App)
	if !ok || appInstance == nil {
		return nil, errors.New("application services not initialized")
	}
	return appInstance, nil
}

// Execute runs the root command until it finishes or the process receives
// SIGINT or SIGTERM.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
