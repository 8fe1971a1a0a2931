package engine

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/aditya-git16/lithos/events"
	"github.com/aditya-git16/lithos/market"
	"github.com/aditya-git16/lithos/metrics"
	"github.com/aditya-git16/lithos/shm"
)

// Backoff is the consumer's reaction to an empty ring.
type Backoff int

const (
	BackoffSpin Backoff = iota
	BackoffYield
	BackoffSleep
)

// ParseBackoff maps the config string to a Backoff; unknown values
// yield.
func ParseBackoff(s string) Backoff {
	switch s {
	case "spin":
		return BackoffSpin
	case "sleep":
		return BackoffSleep
	default:
		return BackoffYield
	}
}

const (
	sleepBackoff    = 50 * time.Microsecond
	summaryInterval = time.Second
	// timerCheckMask paces time.Since checks on a saturated stream.
	timerCheckMask = 1<<13 - 1
)

// Consumer drains the ring into the market state index. Single
// goroutine; the loop polls ctx between iterations, so shutdown is a
// flag check away and no read ever blocks.
type Consumer struct {
	reader  *shm.Reader
	index   *market.Index
	backoff Backoff
	log     *slog.Logger
	met     *metrics.Consumer // optional

	overrunEvents uint64
}

// NewConsumer binds a ring reader to an index. met may be nil.
func NewConsumer(r *shm.Reader, x *market.Index, backoff Backoff, log *slog.Logger, met *metrics.Consumer) *Consumer {
	return &Consumer{reader: r, index: x, backoff: backoff, log: log, met: met}
}

// metricsSnapshot carries the last values synced to prometheus so the
// hot path only touches plain local counters.
type metricsSnapshot struct {
	applied, duplicates, malformed, overruns, lost uint64
}

// Run consumes until ctx is cancelled, then logs the shutdown summary.
func (c *Consumer) Run(ctx context.Context) error {
	var (
		ev        events.TopOfBookEvent
		lastMidX2 int64
		reads     uint64
		prev      metricsSnapshot
	)
	lastSummary := time.Now()

	for ctx.Err() == nil {
		status, _ := c.reader.TryRead(&ev)
		switch status {
		case shm.ReadReady:
			seq := c.reader.Position() - 1
			if c.index.Apply(ev, seq) {
				lastMidX2 = ev.MidX2()
			}
			reads++
			if reads&timerCheckMask != 0 {
				continue
			}
		case shm.ReadOverrun:
			c.overrunEvents++
			continue
		case shm.ReadEmpty:
			c.idle()
		}

		if time.Since(lastSummary) >= summaryInterval {
			c.log.Info("consume rate",
				"events_per_sec", reads,
				"last_mid_x2", lastMidX2,
				"position", c.reader.Position(),
				"overruns", c.overrunEvents)
			reads = 0
			lastSummary = time.Now()
			prev = c.syncMetrics(prev)
		}
	}

	counters := c.index.Counters()
	c.syncMetrics(prev)
	c.log.Info("consumer stopped",
		"events_applied", counters.Applied,
		"duplicates", counters.Duplicates,
		"malformed", counters.Malformed(),
		"overruns", c.overrunEvents,
		"records_lost", c.reader.OverrunCount())
	return nil
}

// OverrunEvents returns how many times this consumer was lapped.
func (c *Consumer) OverrunEvents() uint64 { return c.overrunEvents }

func (c *Consumer) idle() {
	switch c.backoff {
	case BackoffSpin:
	case BackoffSleep:
		time.Sleep(sleepBackoff)
	default:
		runtime.Gosched()
	}
}

func (c *Consumer) syncMetrics(prev metricsSnapshot) metricsSnapshot {
	if c.met == nil {
		return prev
	}
	counters := c.index.Counters()
	cur := metricsSnapshot{
		applied:    counters.Applied,
		duplicates: counters.Duplicates,
		malformed:  counters.Malformed(),
		overruns:   c.overrunEvents,
		lost:       c.reader.OverrunCount(),
	}
	c.met.EventsApplied.Add(float64(cur.applied - prev.applied))
	c.met.Duplicates.Add(float64(cur.duplicates - prev.duplicates))
	c.met.Malformed.Add(float64(cur.malformed - prev.malformed))
	c.met.OverrunEvents.Add(float64(cur.overruns - prev.overruns))
	c.met.RecordsLost.Add(float64(cur.lost - prev.lost))
	return cur
}
