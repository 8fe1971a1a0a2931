package feed

import (
	"context"
	"log/slog"
	"time"

	"github.com/aditya-git16/lithos/events"
)

// Publish hands one decoded record to the producer engine.
type Publish func(rec events.TopOfBookEvent)

// connectFunc is one websocket connection attempt: dial, subscribe,
// read until error or cancellation.
type connectFunc func(ctx context.Context) error

const reconnectDelay = 3 * time.Second

// runConnectionLoop drives the infinite reconnect/backoff loop around a
// connection attempt, so individual feeds don't duplicate it.
func runConnectionLoop(ctx context.Context, log *slog.Logger, name string, connect connectFunc) error {
	for {
		if err := connect(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Warn("feed disconnected, reconnecting",
				"feed", name, "error", err, "delay", reconnectDelay)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(reconnectDelay):
			}
		}
	}
}
