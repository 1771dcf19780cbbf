package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"gptenrich/internal/cli"
	"gptenrich/internal/config"
	"gptenrich/internal/enrich"
	"gptenrich/internal/env"
	"gptenrich/internal/logging"
	"gptenrich/internal/metrics"
	"gptenrich/internal/recipe"
	"gptenrich/internal/server"
	"gptenrich/internal/service"
	"gptenrich/internal/storage"
	"gptenrich/internal/storage/postgres"
	"gptenrich/pkg/graceful"
	"gptenrich/pkg/kafkaclient"
)

func main() {
	// Load environment variables from a .env file.
	// This is typically used in a development environment.
	env.LoadEnv()
	configPath := flag.String("config", env.Get("CONFIG_PATH", "config.yaml"), "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Setup("info", "text")
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, cancel := graceful.Context(context.Background())
	defer cancel()

	if err := run(ctx, cfg); err != nil {
		slog.Error("Enricher stopped with error", "error", err)
		os.Exit(1)
	}
	slog.Info("Main method finished, application exiting.")
}

func run(ctx context.Context, cfg *config.Config) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewRecorder(reg)

	s3Service, err := storage.NewS3Service(cfg.Storage)
	if err != nil {
		return err
	}
	if cfg.Storage.OutputBucket != "" {
		if _, err := s3Service.CreateBucket(ctx, cfg.Storage.OutputBucket, cfg.Storage.Region); err != nil {
			return err
		}
	}

	opts := server.Options{Gatherer: reg, Checks: map[string]server.Check{}}
	var ledger service.RunRecorder
	if cfg.Database.URL != "" {
		pool, err := postgres.Connect(ctx, cfg.Database.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		if err := postgres.Migrate(pool); err != nil {
			return err
		}
		runs := postgres.NewLedger(pool)
		ledger, opts.Runs = runs, runs
		opts.Checks["postgres"] = pool.Ping
	}

	gen, closeGen, err := cli.NewGenerator(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeGen()

	engineCfg := cfg.EngineConfig()
	runner, err := recipe.NewRunner(cfg.RecipeParams(), engineCfg, gen,
		enrich.WithLogger(slog.Default()),
		enrich.WithRecorder(recorder),
	)
	if err != nil {
		return err
	}

	var publisher service.Publisher
	if cfg.Kafka.EventsTopic != "" {
		producer, err := kafkaclient.NewProducer(cfg.Kafka.EventsTopic, cfg.Kafka.Brokers)
		if err != nil {
			return err
		}
		defer producer.Close()
		publisher = producer
	}

	slog.Info("Connecting to Kafka", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic, "group_id", cfg.Kafka.GroupID)
	consumer, err := kafkaclient.NewKafkaConsumer(cfg.Kafka.Topic, cfg.Kafka.GroupID, cfg.Kafka.Brokers)
	if err != nil {
		return err
	}
	defer consumer.Stop()

	enricher := service.NewEnricher(runner, s3Service, ledger, publisher, cfg.Storage.OutputBucket, engineCfg.ErrorHandling)
	iterator := service.NewIterator(consumer, s3Service.ReadTable,
		service.WithSkip[*enrich.Table](func(_, key string) bool {
			return strings.HasPrefix(key, "enriched/")
		}),
	)

	ctx, stop := context.WithCancel(ctx)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	srv := server.New(cfg.Server.Addr, opts)
	g.Go(func() error { return srv.Run(gctx) })
	g.Go(func() error {
		defer stop()
		consumer.StartConsuming(gctx)
		for obj := range iterator.Objects(gctx) {
			if _, err := enricher.Process(gctx, obj.Bucket, obj.Key, obj.Data); err != nil && gctx.Err() != nil {
				return nil
			}
			if err := obj.Commit(gctx); err != nil {
				slog.Error("Failed to commit offset", "key", obj.Key, "error", err)
			}
		}
		return nil
	})
	return g.Wait()
}
