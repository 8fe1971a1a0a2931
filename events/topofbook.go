// Package events defines the fixed-layout records carried through the
// shared memory ring. The in-memory representation of a record is its
// wire representation: producer and consumer must run on the same
// architecture.
package events

import (
	"fmt"
	"unsafe"
)

// SymbolID identifies a trading pair. IDs are assigned by configuration,
// dense, and start at zero; the maximum id in use must be below the
// market state index capacity on the consumer side.
type SymbolID uint16

// RecordSize is the byte size of a TopOfBookEvent inside a ring slot.
const RecordSize = 56

// TopOfBookEvent is the 56-byte top-of-book record. Together with the
// slot's 8-byte sequence word it fills exactly one cache line.
//
// Prices are integer ticks and quantities integer lots, pre-scaled by
// the feed layer. No floating point anywhere on this path.
type TopOfBookEvent struct {
	SymbolID     SymbolID // 0..2
	Flags        uint16   // 2..4  reserved, producers must zero
	_            [4]byte  // 4..8  padding
	BidPx        int64    // 8..16
	AskPx        int64    // 16..24
	BidQty       int64    // 24..32
	AskQty       int64    // 32..40
	TsEventNs    uint64   // 40..48 producer monotonic stamp
	TsExchangeNs uint64   // 48..56 upstream epoch ns, zero if absent
}

func init() {
	if unsafe.Sizeof(TopOfBookEvent{}) != RecordSize {
		panic(fmt.Sprintf("TopOfBookEvent size is %d, expected %d", unsafe.Sizeof(TopOfBookEvent{}), RecordSize))
	}
}

// MidX2 returns twice the mid price (bid + ask), avoiding division.
func (e *TopOfBookEvent) MidX2() int64 {
	return e.BidPx + e.AskPx
}

// SpreadTicks returns ask minus bid. Negative values mark a crossed,
// malformed update and are rejected by the consumer.
func (e *TopOfBookEvent) SpreadTicks() int64 {
	return e.AskPx - e.BidPx
}
