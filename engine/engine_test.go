package engine

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/aditya-git16/lithos/events"
	"github.com/aditya-git16/lithos/market"
	"github.com/aditya-git16/lithos/shm"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRing(t *testing.T) (*shm.Writer, *shm.Reader) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ring")
	w, err := shm.NewWriter(path, 64, 1)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	t.Cleanup(func() { w.Close() })
	r, err := shm.OpenReader(path, 1, shm.StartLatest)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return w, r
}

func TestProducerStampsBeforePublish(t *testing.T) {
	w, r := testRing(t)
	p := NewProducer(w, quietLogger())

	p.Publish(events.TopOfBookEvent{SymbolID: 1, Flags: 0xFFFF, BidPx: 10, AskPx: 11})
	if p.Published() != 1 {
		t.Fatalf("Published = %d, want 1", p.Published())
	}

	var ev events.TopOfBookEvent
	if status, _ := r.TryRead(&ev); status != shm.ReadReady {
		t.Fatalf("status = %v, want ReadReady", status)
	}
	if ev.TsEventNs == 0 {
		t.Error("TsEventNs not stamped")
	}
	if ev.Flags != 0 {
		t.Errorf("Flags = %d, want 0 (reserved)", ev.Flags)
	}
}

func TestConsumerAppliesStream(t *testing.T) {
	w, r := testRing(t)
	index, err := market.NewIndex(256)
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}

	w.Publish(events.TopOfBookEvent{SymbolID: 1, BidPx: 100, AskPx: 101})
	w.Publish(events.TopOfBookEvent{SymbolID: 2, BidPx: 200, AskPx: 201})
	w.Publish(events.TopOfBookEvent{SymbolID: 1, BidPx: 99, AskPx: 101})
	w.Publish(events.TopOfBookEvent{SymbolID: 3, BidPx: 100, AskPx: 50}) // crossed, dropped

	c := NewConsumer(r, index, BackoffSleep, quietLogger(), nil)
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	if err := c.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	counters := index.Counters()
	if counters.Applied != 3 {
		t.Errorf("Applied = %d, want 3", counters.Applied)
	}
	if counters.NegativeSpread != 1 {
		t.Errorf("NegativeSpread = %d, want 1", counters.NegativeSpread)
	}

	s1, _ := index.Get(1)
	if s1.LastTOB.BidPx != 99 || s1.UpdateCount != 2 || s1.LastSeq != 2 {
		t.Errorf("slot 1 = %+v", s1)
	}
	s2, _ := index.Get(2)
	if s2.LastTOB.AskPx != 201 || s2.LastSeq != 1 {
		t.Errorf("slot 2 = %+v", s2)
	}
	if s3, _ := index.Get(3); s3.UpdateCount != 0 {
		t.Errorf("crossed record reached state: %+v", s3)
	}
	if c.OverrunEvents() != 0 {
		t.Errorf("OverrunEvents = %d, want 0", c.OverrunEvents())
	}
}

func TestParseBackoff(t *testing.T) {
	cases := map[string]Backoff{
		"spin":  BackoffSpin,
		"yield": BackoffYield,
		"sleep": BackoffSleep,
		"":      BackoffYield,
		"other": BackoffYield,
	}
	for in, want := range cases {
		if got := ParseBackoff(in); got != want {
			t.Errorf("ParseBackoff(%q) = %v, want %v", in, got, want)
		}
	}
}
