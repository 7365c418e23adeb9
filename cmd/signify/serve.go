package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/matthewbaird/signify/internal/config"
	"github.com/matthewbaird/signify/internal/engine"
	"github.com/matthewbaird/signify/internal/eventbus"
	"github.com/matthewbaird/signify/internal/handler"
	"github.com/matthewbaird/signify/internal/logging"
	"github.com/matthewbaird/signify/internal/metrics"
	"github.com/matthewbaird/signify/internal/people"
	"github.com/matthewbaird/signify/internal/server"
)

func serveCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "Path to a YAML config file")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, "signify")
	if err != nil {
		return err
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	logs, closeLogs, err := openLogStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer closeLogs()

	ps := people.NewMemoryStore()
	if cfg.Seed.Demo {
		if err := seedDemo(ctx, ps, logs); err != nil {
			return err
		}
		logger.Info("demo data seeded")
	}

	timelines, closeCache, err := openTimelineCache(ctx, cfg.Cache, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	bus := eventbus.New(cfg.Bus.Buffer, logger, m)
	e := engine.New(logs, ps,
		engine.WithCache(timelines),
		engine.WithPublisher(bus),
		engine.WithMetrics(m),
		engine.WithLogger(logger),
	)
	hub := handler.NewStreamHub(e, logger, m)

	bus.Subscribe("log", eventbus.NewLogConsumer(logger))
	bus.Subscribe("escalation", eventbus.NewEscalationConsumer(logger, m))
	bus.Subscribe("stream", hub)
	bus.Start(ctx)
	defer bus.Stop()

	logger.Info("signify starting",
		zap.String("version", version),
		zap.String("store", cfg.Store.Driver),
		zap.String("cache", cfg.Cache.Driver))

	return server.Run(ctx, server.Config{
		Addr:            cfg.Addr(),
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		API:             handler.NewAPI(e, hub, logger),
		Metrics:         m,
		Logger:          logger,
	})
}
