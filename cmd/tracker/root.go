package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/covid-data-tracker/internal/adapter/chart"
	"github.com/couchcryptid/covid-data-tracker/internal/adapter/choropleth"
	kafkaadapter "github.com/couchcryptid/covid-data-tracker/internal/adapter/kafka"
	"github.com/couchcryptid/covid-data-tracker/internal/adapter/owid"
	"github.com/couchcryptid/covid-data-tracker/internal/adapter/report"
	"github.com/couchcryptid/covid-data-tracker/internal/config"
	"github.com/couchcryptid/covid-data-tracker/internal/observability"
	"github.com/couchcryptid/covid-data-tracker/internal/pipeline"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tracker",
		Short: "Download OWID COVID-19 data and render trend charts, a world map and summaries",
		Long: "tracker loads the Our World in Data COVID-19 dataset (falling back to " +
			config.LocalDataPath + " when offline), cleans it for a fixed set of countries " +
			"and writes charts, an interactive map and summary tables to " + config.OutputDir + "/.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return run(ctx, cfg, cmd.OutOrStdout())
		},
	}
}

func run(ctx context.Context, cfg *config.Config, out io.Writer) error {
	logger := observability.NewLogger(cfg).With("run_id", uuid.NewString())
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	client := owid.NewClient(cfg.SourceURL, cfg.FetchTimeout, logger)
	loader := owid.NewLoader(client, cfg.LocalDataPath, out, logger, metrics)

	plotly, err := os.ReadFile(cfg.PlotlyPath)
	if err != nil {
		logger.Warn("plotly.js not vendored", "path", cfg.PlotlyPath, "error", err)
	}

	stages := pipeline.Stages{
		Loader:  loader,
		Cleaner: pipeline.NewCleaner(nil, logger),
		Renderers: []pipeline.Renderer{
			chart.NewTrendRenderer(cfg.OutputDir, out, logger),
			chart.NewVaccinationRenderer(cfg.OutputDir, out, logger),
			choropleth.NewRenderer(cfg.OutputDir, plotly, out, logger),
			report.NewSummaryRenderer(cfg.OutputDir, out, logger),
			report.NewWorkbookRenderer(cfg.OutputDir, out, logger),
		},
	}

	var publisher *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		publisher = kafkaadapter.NewPublisher(cfg, clock, logger)
		stages.Publisher = publisher
		logger.Info("kafka publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	logger.Info("run started", "source", cfg.SourceURL, "output_dir", cfg.OutputDir)
	_, runErr := pipeline.New(stages, cfg.OutputDir, out, clock, logger, metrics).Run(ctx)

	flush(cfg, publisher, metrics, logger)

	if runErr != nil {
		logger.Error("run failed", "error", runErr)
		return runErr
	}
	logger.Info("run complete")
	return nil
}

// flush closes the optional exporters within the shutdown timeout. Failures
// are logged and never change the exit status.
func flush(cfg *config.Config, publisher *kafkaadapter.Publisher, metrics *observability.Metrics, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Warn("kafka publisher close error", "error", err)
		}
	}
	if cfg.PushgatewayURL != "" {
		if err := metrics.Push(ctx, cfg.PushgatewayURL); err != nil {
			logger.Warn("metrics push failed", "error", err, "url", cfg.PushgatewayURL)
		}
	}
}
