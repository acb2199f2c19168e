package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/newsroom-cloud/analytics/internal/api"
	"github.com/newsroom-cloud/analytics/internal/chart"
	"github.com/newsroom-cloud/analytics/internal/config"
	"github.com/newsroom-cloud/analytics/internal/dates"
	"github.com/newsroom-cloud/analytics/internal/directory"
	"github.com/newsroom-cloud/analytics/internal/elastic"
	"github.com/newsroom-cloud/analytics/internal/httpserver"
	"github.com/newsroom-cloud/analytics/internal/logger"
	"github.com/newsroom-cloud/analytics/internal/profiling"
	"github.com/newsroom-cloud/analytics/internal/render"
	"github.com/newsroom-cloud/analytics/internal/schedule"
	"github.com/newsroom-cloud/analytics/internal/service"
	"github.com/newsroom-cloud/analytics/internal/stats"
	"github.com/newsroom-cloud/analytics/internal/telemetry"
)

func main() {
	os.Exit(run())
}

func run() int {
	profiling.StartPprofServer()
	if profiler, err := profiling.StartPyroscope("analytics"); err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: Pyroscope failed to start: %v\n", err)
	} else if profiler != nil {
		defer profiler.Stop() //nolint:errcheck // best-effort cleanup
	}

	cfg, err := config.Load(config.GetConfigPath("config.yml"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	log, err := createLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting analytics service",
		logger.String("name", cfg.Service.Name),
		logger.String("version", cfg.Service.Version),
		logger.Int("port", cfg.Service.Port),
		logger.Bool("debug", cfg.Service.Debug))

	esClient, err := elastic.NewClient(&cfg.Elasticsearch, log)
	if err != nil {
		log.Error("failed to connect to Elasticsearch", logger.Error(err))
		return 1
	}
	log.Info("connected to Elasticsearch", logger.String("url", cfg.Elasticsearch.URL))

	return runServer(cfg, esClient, log)
}

// createLogger builds the service logger from configuration.
func createLogger(cfg *config.Config) (logger.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Development: cfg.Service.Debug,
	})
	if err != nil {
		return nil, err
	}
	return log.With(logger.String("service", "analytics")), nil
}

// runServer wires the report service, schedule runner and HTTP server.
func runServer(cfg *config.Config, esClient *elastic.Client, log logger.Logger) int {
	resolver := dates.NewResolver(cfg.Reports.Location(), cfg.Reports.StartOfWeek)
	cms := directory.NewClient(&cfg.CMS, log)
	lookups := chart.Lookups{Vocabularies: cms, Desks: cms, Users: cms}

	reports := service.NewService(esClient, resolver, lookups, cms, cfg.Reports.DefaultRepos, log)
	renderer := render.NewHighchartsClient(&cfg.Highcharts, log)
	metrics := telemetry.NewMetrics()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Schedule.Enabled {
		if err := startScheduleRunner(ctx, cfg, reports, renderer, resolver, log); err != nil {
			log.Error("failed to start schedule runner", logger.Error(err))
			return 1
		}
	}

	if cfg.Stats.Enabled {
		store := stats.NewElasticStore(esClient, esClient, cfg.Stats.BatchSize, log)
		generator := stats.NewGenerator(store, store, log)
		go generator.Run(ctx, cfg.Stats.Interval)
	}

	handler := api.NewHandler(reports, renderer, esClient, metrics, log)
	server := httpserver.New(cfg, log, func(router *gin.Engine) {
		api.SetupRoutes(router, handler, metrics, cfg.Auth.JWTSecret)
	})

	if err := server.Run(ctx); err != nil {
		log.Error("server error", logger.Error(err))
		return 1
	}

	log.Info("analytics service exited cleanly")
	return 0
}

// startScheduleRunner connects redis and launches the scheduled report
// delivery loop.
func startScheduleRunner(
	ctx context.Context,
	cfg *config.Config,
	reports *service.Service,
	renderer *render.HighchartsClient,
	resolver *dates.Resolver,
	log logger.Logger,
) error {
	redisClient, err := schedule.NewRedisClient(&cfg.Redis)
	if err != nil {
		return err
	}

	runner := schedule.NewRunner(
		schedule.NewCMSStore(&cfg.CMS, log),
		reports,
		renderer,
		schedule.NewEmailSender(&cfg.Email, log),
		schedule.NewLock(redisClient, cfg.Schedule.LockTTL),
		resolver.Location,
		cfg.Schedule.PollInterval,
		log,
	)
	go runner.Run(ctx)

	log.Info("schedule runner started",
		logger.Duration("poll_interval", cfg.Schedule.PollInterval))
	return nil
}
