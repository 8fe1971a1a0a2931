// Obsidian is the producer binary: it consumes the exchange feed and
// publishes top-of-book records into the shared memory ring.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/aditya-git16/lithos/config"
	"github.com/aditya-git16/lithos/engine"
	"github.com/aditya-git16/lithos/events"
	"github.com/aditya-git16/lithos/feed"
	"github.com/aditya-git16/lithos/logging"
	"github.com/aditya-git16/lithos/shm"
)

func main() {
	cfgPath := flag.String("config", "config/obsidian.toml", "path to producer config")
	flag.Parse()

	godotenv.Load()

	cfg, err := config.LoadProducer(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logging.New(cfg.Logging.Level, "logs", "obsidian")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	writer, err := shm.NewWriter(cfg.Ring.Path, cfg.Ring.Capacity, cfg.Ring.LayoutVersion)
	if err != nil {
		log.Error("ring setup failed", "path", cfg.Ring.Path, "error", err)
		os.Exit(1)
	}
	defer writer.Close()
	log.Info("publishing to ring",
		"path", cfg.Ring.Path, "capacity", cfg.Ring.Capacity, "next_seq", writer.Cursor())

	producer := engine.NewProducer(writer, log)

	symbols := make(map[string]events.SymbolID, len(cfg.Feed.Symbols))
	for ticker, id := range cfg.Feed.Symbols {
		symbols[ticker] = events.SymbolID(id)
	}

	var src engine.Feed
	switch cfg.Feed.Mode {
	case "mock":
		src = feed.NewMock(symbols,
			time.Duration(cfg.Feed.MockTickMs)*time.Millisecond, producer.Publish, log)
	default:
		src = feed.NewBinance(cfg.Feed.WSURL, symbols,
			cfg.Feed.PxDecimals, cfg.Feed.QtyDecimals, producer.Publish, log)
	}

	if err := producer.Run(ctx, src); err != nil && ctx.Err() == nil {
		log.Error("producer failed", "error", err)
		os.Exit(1)
	}
}
