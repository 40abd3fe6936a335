// Command limpad runs the background refresh daemon. It sweeps every
// subscription on a fixed interval, publishing ad-free episodes and feeds as
// new episodes appear.
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/duarteocarmo/limpa/internal/config"
	"github.com/duarteocarmo/limpa/internal/daemon"
	"github.com/duarteocarmo/limpa/internal/logging"
	"github.com/duarteocarmo/limpa/internal/pipeline"
	"github.com/duarteocarmo/limpa/internal/subscription"
)

func main() {
	configPath := flag.String("config", "", "Configuration file path")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("ensure directories: %v", err)
	}
	if err := cfg.ValidateServices(); err != nil {
		log.Fatalf("validate services: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	store, err := subscription.Open(cfg)
	if err != nil {
		logger.Error("open subscription store", logging.Error(err))
		return
	}

	deps, err := pipeline.ProductionDeps(ctx, cfg, store, logger)
	if err != nil {
		logger.Error("wire pipeline", logging.Error(err))
		store.Close()
		return
	}
	runner, err := pipeline.NewRunner(cfg, deps)
	if err != nil {
		logger.Error("create runner", logging.Error(err))
		store.Close()
		return
	}

	d, err := daemon.New(cfg, store, runner, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		store.Close()
		return
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("start daemon", logging.Error(err))
		return
	}

	<-ctx.Done()
	logger.Info("limpad shutting down")
}
