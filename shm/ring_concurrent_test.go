package shm

import (
	"testing"
	"time"

	"github.com/aditya-git16/lithos/events"
)

// A live writer/reader pair over the same ring file: the reader must
// only ever observe bit-exact records at its expected sequences, with
// any shortfall fully accounted for by overruns.
func TestConcurrentWriterReaderIntegrity(t *testing.T) {
	const (
		capacity   = 1 << 12
		total      = 200_000
		batchSize  = 1_000
		batchPause = 200 * time.Microsecond
	)

	path := ringPath(t)
	w := mustWriter(t, path, capacity)
	r := mustReader(t, path, StartLatest)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for seq := uint64(0); seq < total; seq++ {
			w.Publish(eventForSeq(seq))
			if seq%batchSize == batchSize-1 {
				time.Sleep(batchPause)
			}
		}
	}()

	var (
		ev       events.TopOfBookEvent
		received uint64
		done     bool
	)
	deadline := time.Now().Add(30 * time.Second)
	for !done {
		if time.Now().After(deadline) {
			t.Fatalf("timed out: received %d, dropped %d", received, r.OverrunCount())
		}
		status, _ := r.TryRead(&ev)
		switch status {
		case ReadReady:
			seq := r.Position() - 1
			if want := eventForSeq(seq); ev != want {
				t.Fatalf("seq %d: torn or wrong record:\n got %+v\nwant %+v", seq, ev, want)
			}
			received++
		case ReadOverrun:
			// Accounted for below.
		case ReadEmpty:
			select {
			case <-writerDone:
				// Drain whatever is left, then stop.
				if r.Position() >= total {
					done = true
				}
			default:
			}
		}
	}

	if got := received + r.OverrunCount(); got != total {
		t.Fatalf("conservation violated: received %d + dropped %d = %d, want %d",
			received, r.OverrunCount(), got, total)
	}
}
