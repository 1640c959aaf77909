package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newExtractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract",
		Short: "Parse stored pages into JSON records",
		Long: `Reads every *.html file under <output_root>/html, extracts the entry into
a structured record and writes it to <output_root>/json with the same base
name. Unreadable or empty pages are skipped with a log line.`,
		Args: cobra.NoArgs,
		RunE: runExtractCommand,
	}
}

func runExtractCommand(cmd *cobra.Command, _ []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	job, err := appInstance.ExtractJob()
	if err != nil {
		return err
	}

	summary, err := job.Run(cmd.Context())
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}

	appInstance.Logger().Info("extract finished",
		zap.Int("listed", summary.Listed),
		zap.Int("written", summary.Written),
		zap.Int("load_failed", summary.LoadFailed),
		zap.Int("empty", summary.Empty),
		zap.Int("write_failed", summary.WriteFailed),
		zap.Bool("canceled", summary.Canceled),
		zap.Duration("duration", summary.Duration),
	)
	return nil
}
