// Package engine binds the collaborators together: the feed to the
// ring writer, and the ring reader to the market state index.
package engine

import (
	"context"
	"log/slog"

	"github.com/aditya-git16/lithos/events"
	"github.com/aditya-git16/lithos/shm"
)

// Feed is the upstream producing decoded records via a Publish callback.
type Feed interface {
	Run(ctx context.Context) error
}

// Producer stamps and publishes records into the ring. The publish path
// does not allocate.
type Producer struct {
	writer    *shm.Writer
	log       *slog.Logger
	published uint64
}

// NewProducer binds a ring writer.
func NewProducer(w *shm.Writer, log *slog.Logger) *Producer {
	return &Producer{writer: w, log: log}
}

// Publish stamps the event time immediately before handing the record
// to the ring. Passed to the feed as its Publish callback.
func (p *Producer) Publish(rec events.TopOfBookEvent) {
	rec.Flags = 0
	rec.TsEventNs = events.NowNs()
	p.writer.Publish(rec)
	p.published++
}

// Published returns the number of records published so far.
func (p *Producer) Published() uint64 { return p.published }

// Run drives the feed until ctx is cancelled and logs the final count.
func (p *Producer) Run(ctx context.Context, f Feed) error {
	err := f.Run(ctx)
	p.log.Info("producer stopped",
		"published", p.published, "next_seq", p.writer.Cursor())
	if err == context.Canceled {
		return nil
	}
	return err
}
