package feed

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/aditya-git16/lithos/events"
)

// Mock generates random-walk top-of-book records for configured
// symbols, for running the producer without network access. Prices walk
// in integer ticks around a per-symbol base; spreads stay nonnegative.
type Mock struct {
	ids      []events.SymbolID
	interval time.Duration
	publish  Publish
	log      *slog.Logger
}

// NewMock builds a mock feed over the configured symbol ids.
func NewMock(symbols map[string]events.SymbolID, interval time.Duration, publish Publish, log *slog.Logger) *Mock {
	ids := make([]events.SymbolID, 0, len(symbols))
	for _, id := range symbols {
		ids = append(ids, id)
	}
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	return &Mock{ids: ids, interval: interval, publish: publish, log: log}
}

// Run emits one record per symbol per tick until ctx is cancelled.
func (m *Mock) Run(ctx context.Context) error {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	mids := make([]int64, len(m.ids))
	for i := range mids {
		mids[i] = 1_000_000 * int64(i+1) // per-symbol base, in ticks
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	m.log.Info("mock feed running", "symbols", len(m.ids), "interval", m.interval)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			for i, id := range m.ids {
				mids[i] += rng.Int63n(201) - 100 // ±100 ticks
				if mids[i] < 1_000 {
					mids[i] = 1_000
				}
				half := rng.Int63n(5) + 1
				m.publish(events.TopOfBookEvent{
					SymbolID: id,
					BidPx:    mids[i] - half,
					AskPx:    mids[i] + half,
					BidQty:   rng.Int63n(10_000) + 1,
					AskQty:   rng.Int63n(10_000) + 1,
				})
			}
		}
	}
}
