package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/idiom-dictionary-crawler/internal/crawler"
)

func newFetchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Download every entry page in the identifier range",
		Long: `Fetches each identifier from start_id to max_id in chunks of chunk_size.
Pages answered with HTTP 200 are written to <output_root>/html; every other
outcome is logged and the run continues. An interrupt stops new chunks from
starting and waits for the current one to settle.`,
		Args: cobra.NoArgs,
		RunE: runFetchCommand,
	}
}

func runFetchCommand(cmd *cobra.Command, _ []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	s, err := appInstance.Scheduler()
	if err != nil {
		return err
	}

	summary := s.Run(cmd.Context())

	appInstance.Logger().Info("fetch finished",
		zap.Int("chunks", summary.Chunks),
		zap.Int("total", summary.Total),
		zap.Int("stored", summary.Count(crawler.OutcomeStored)),
		zap.Int("http_errors", summary.Count(crawler.OutcomeHTTPError)),
		zap.Int("transport_errors", summary.Count(crawler.OutcomeTransportError)),
		zap.Int("store_errors", summary.Count(crawler.OutcomeStoreError)),
		zap.Bool("canceled", summary.Canceled),
		zap.Duration("duration", summary.Duration),
	)
	return nil
}
