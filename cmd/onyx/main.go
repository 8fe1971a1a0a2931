// Onyx is the consumer binary: it drains the shared memory ring into
// the per-symbol market state index.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/aditya-git16/lithos/config"
	"github.com/aditya-git16/lithos/engine"
	"github.com/aditya-git16/lithos/logging"
	"github.com/aditya-git16/lithos/market"
	"github.com/aditya-git16/lithos/metrics"
	"github.com/aditya-git16/lithos/shm"
)

func main() {
	cfgPath := flag.String("config", "config/onyx.toml", "path to consumer config")
	flag.Parse()

	godotenv.Load()

	cfg, err := config.LoadConsumer(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logging.New(cfg.Logging.Level, "logs", "onyx")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	reader, err := shm.OpenReader(cfg.Ring.Path, cfg.Ring.LayoutVersion, shm.StartLatest)
	if err != nil {
		log.Error("ring attach failed", "path", cfg.Ring.Path, "error", err)
		os.Exit(1)
	}
	defer reader.Close()
	log.Info("attached to ring", "path", cfg.Ring.Path, "position", reader.Position())

	index, err := market.NewIndex(cfg.MaxSymbols)
	if err != nil {
		log.Error("index setup failed", "error", err)
		os.Exit(1)
	}

	var met *metrics.Consumer
	if cfg.MetricsAddr != "" {
		met = metrics.NewConsumer()
		go met.Serve(ctx, cfg.MetricsAddr, log)
	}

	consumer := engine.NewConsumer(reader, index, engine.ParseBackoff(cfg.Backoff), log, met)
	consumer.Run(ctx)
}
