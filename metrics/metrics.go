// Package metrics exposes the consumer counters over /metrics.
package metrics

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Consumer holds the counters the consumer engine reports. The engine
// keeps its own local counters on the hot path and syncs deltas here
// once per summary interval.
type Consumer struct {
	registry *prometheus.Registry

	EventsApplied prometheus.Counter
	Duplicates    prometheus.Counter
	Malformed     prometheus.Counter
	OverrunEvents prometheus.Counter
	RecordsLost   prometheus.Counter
}

// NewConsumer registers the consumer counters on a fresh registry.
func NewConsumer() *Consumer {
	reg := prometheus.NewRegistry()
	c := &Consumer{
		registry: reg,
		EventsApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lithos_events_applied_total",
			Help: "Records accepted into the market state index.",
		}),
		Duplicates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lithos_duplicates_total",
			Help: "Records dropped as duplicate or stale per symbol.",
		}),
		Malformed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lithos_malformed_total",
			Help: "Records dropped by validation (bounds, negative spread).",
		}),
		OverrunEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lithos_overrun_events_total",
			Help: "Times the writer lapped this reader.",
		}),
		RecordsLost: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lithos_records_lost_total",
			Help: "Records skipped while recovering from overruns.",
		}),
	}
	reg.MustRegister(c.EventsApplied, c.Duplicates, c.Malformed, c.OverrunEvents, c.RecordsLost)
	return c
}

// Serve runs an HTTP server exposing /metrics until ctx is cancelled.
func (c *Consumer) Serve(ctx context.Context, addr string, log *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info("metrics listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Warn("metrics server stopped", "error", err)
	}
}
