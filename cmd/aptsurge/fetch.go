package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"aptsurge/server/config"
	"aptsurge/server/internal/ingest"
	"aptsurge/server/internal/metrics"
	"aptsurge/server/internal/molit"
	"aptsurge/server/internal/runlog"
	"aptsurge/server/internal/summary"
	"aptsurge/server/internal/telegram"
)

const (
	modeFetch   = "fetch"
	modeSummary = "summary"
)

func newFetchCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Refresh partitions from the API and republish the documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd.Context(), opts, modeFetch)
		},
	}
}

func newSummaryCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Rebuild the documents from stored partitions without calling the API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd.Context(), opts, modeSummary)
		},
	}
}

func runBatch(ctx context.Context, opts *rootOptions, mode string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, logger, err := setup(opts)
	if err != nil {
		return err
	}
	if mode == modeFetch && cfg.API.ServiceKey == "" {
		return errors.New("MOLIT_SERVICE_KEY is required")
	}

	st, err := openStores(cfg, logger)
	if err != nil {
		return err
	}
	defer st.close()

	runs := openRunLog(cfg, logger)
	if runs != nil {
		defer runs.Close()
	}

	m := metrics.NewPipeline()
	assembler := summary.NewAssembler(st.partitions, st.files, cfg, m, logger)
	client := molit.NewClient(molit.Options{
		BaseURL:       cfg.API.BaseURL,
		OperationPath: cfg.API.OperationPath,
		ServiceKey:    cfg.API.ServiceKey,
		PageSize:      cfg.API.PageSize,
		MaxAttempts:   cfg.API.MaxAttempts,
		PageInterval:  cfg.API.PageInterval,
		Timeout:       cfg.API.Timeout,
	}, logger)
	runner := ingest.NewRunner(cfg, st.partitions, st.files, client, assembler, m, logger)

	var run *runlog.Run
	if runs != nil {
		if run, err = runs.Start(mode); err != nil {
			logger.WithError(err).Warn("Failed to record run start")
		}
	}

	var result *ingest.Result
	if mode == modeSummary {
		result, err = runner.SummaryOnly(ctx)
	} else {
		result, err = runner.Refresh(ctx)
	}

	if run != nil {
		if result != nil {
			run.Fetched = result.Fetched
			run.Skipped = result.Skipped
			run.Errors = result.Errors
			run.NewRecords = result.NewRecords
			run.TotalTxns = result.TotalTxns
		}
		if ferr := runs.Finish(run, err); ferr != nil {
			logger.WithError(ferr).Warn("Failed to record run result")
		}
	}

	if cfg.Metrics.PushgatewayURL != "" {
		if perr := m.Push(context.Background(), cfg.Metrics.PushgatewayURL, cfg.Metrics.JobName); perr != nil {
			logger.WithError(perr).Warn("Failed to push metrics")
		}
	}

	if err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"mode":        mode,
		"fetched":     result.Fetched,
		"skipped":     result.Skipped,
		"errors":      result.Errors,
		"removed":     result.Removed,
		"new_records": result.NewRecords,
		"total_txns":  result.TotalTxns,
		"api_stopped": result.APIStopped,
	}).Info("Run completed")

	notifier := telegram.NewService(telegram.Config{
		BotToken:   cfg.Telegram.BotToken,
		ChatID:     cfg.Telegram.ChatID,
		APIBaseURL: cfg.Telegram.APIBaseURL,
	}, logger)
	if err := notifier.NotifyTopMovers(ctx, result.Summary); err != nil {
		logger.WithError(err).Error("Failed to send Telegram digest")
	}

	return nil
}

// openRunLog returns nil when the run log is disabled or cannot be opened
func openRunLog(cfg *config.Config, logger *logrus.Logger) *runlog.Store {
	if cfg.Paths.RunLogPath == "" {
		return nil
	}
	runs, err := runlog.Open(cfg.Paths.RunLogPath, logger)
	if err != nil {
		logger.WithError(err).Warn("Run log disabled")
		return nil
	}
	return runs
}
