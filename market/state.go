// Package market maintains authoritative per-symbol market state,
// updated by a consumer from the stream of top-of-book records.
package market

import (
	"fmt"
	"unsafe"

	"github.com/aditya-git16/lithos/events"
)

// stateSize pads MarketState to two cache lines.
const stateSize = 128

// MarketState is one slot of the index. A zero slot (UpdateCount == 0)
// means the symbol has never been updated.
type MarketState struct {
	LastTOB      events.TopOfBookEvent // most recent accepted record
	MidX2        int64                 // bid + ask, twice the mid
	SpreadTicks  int64                 // ask - bid, never negative
	UpdateCount  uint64
	LastUpdateNs uint64 // consumer-side receipt stamp
	LastSeq      uint64 // ring sequence of LastTOB, strictly increasing
	_            [32]byte
}

func init() {
	if unsafe.Sizeof(MarketState{}) != stateSize {
		panic(fmt.Sprintf("MarketState size is %d, expected %d", unsafe.Sizeof(MarketState{}), stateSize))
	}
}

// Counters tracks Apply outcomes. Rejections are counted by kind.
type Counters struct {
	Applied        uint64
	Duplicates     uint64
	OutOfRange     uint64
	NegativeSpread uint64
}

// Malformed is the total of validation rejections.
func (c Counters) Malformed() uint64 {
	return c.OutOfRange + c.NegativeSpread
}

// Index is the fixed-slot per-symbol store. Lookup is a single array
// index on the raw symbol id: no hashing, no probing, no branches
// beyond the bounds guard. Slots are preallocated once and the index
// never resizes.
//
// The index serves a single consumer goroutine; Get and IterActive are
// same-goroutine APIs.
type Index struct {
	slots    []MarketState
	counters Counters
}

// NewIndex allocates an index with n slots. Every symbol id used by the
// producer must be below n.
func NewIndex(n int) (*Index, error) {
	if n <= 0 || n > 1<<16 {
		return nil, fmt.Errorf("market: index capacity must be in 1..%d, got %d", 1<<16, n)
	}
	return &Index{slots: make([]MarketState, n)}, nil
}

// Capacity returns the slot count.
func (x *Index) Capacity() int { return len(x.slots) }

// Apply folds one record with its ring sequence into the index.
// Rejects, in order: out-of-range symbol id, stale or duplicate
// sequence for the symbol, negative spread. Returns whether the record
// was accepted. Never allocates.
func (x *Index) Apply(rec events.TopOfBookEvent, seq uint64) bool {
	s := int(rec.SymbolID)
	if s >= len(x.slots) {
		x.counters.OutOfRange++
		return false
	}
	slot := &x.slots[s]
	if slot.UpdateCount != 0 && seq <= slot.LastSeq {
		x.counters.Duplicates++
		return false
	}
	spread := rec.AskPx - rec.BidPx
	if spread < 0 {
		x.counters.NegativeSpread++
		return false
	}

	slot.LastTOB = rec
	slot.MidX2 = rec.BidPx + rec.AskPx
	slot.SpreadTicks = spread
	slot.LastSeq = seq
	slot.UpdateCount++
	slot.LastUpdateNs = events.NowNs()
	x.counters.Applied++
	return true
}

// Get returns the state for a symbol by value. ok is false when the id
// is out of range.
func (x *Index) Get(id events.SymbolID) (st MarketState, ok bool) {
	if int(id) >= len(x.slots) {
		return MarketState{}, false
	}
	return x.slots[int(id)], true
}

// IterActive calls fn for every slot that has been updated at least
// once, in symbol id order. Not for the hot path.
func (x *Index) IterActive(fn func(id events.SymbolID, st MarketState)) {
	for i := range x.slots {
		if x.slots[i].UpdateCount > 0 {
			fn(events.SymbolID(i), x.slots[i])
		}
	}
}

// Counters returns a snapshot of the apply counters.
func (x *Index) Counters() Counters { return x.counters }
