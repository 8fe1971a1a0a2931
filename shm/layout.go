package shm

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/aditya-git16/lithos/events"
)

// ringMagic identifies a ring file: ASCII "LITHOSBU".
const ringMagic uint64 = 0x4C49_5448_4F53_4255

const (
	cacheLine  = 64
	headerSize = cacheLine
	slotSize   = cacheLine
)

// ringHeader occupies the first cache line of the region so it never
// false-shares with slot[0]. Only writeCursor mutates after init, and
// only the writer mutates it.
type ringHeader struct {
	magic         uint64   // 0..8
	capacity      uint64   // 8..16  power of two, constant
	recordSize    uint32   // 16..20 constant
	layoutVersion uint32   // 20..24 constant
	writeCursor   uint64   // 24..32 atomic, writer-owned
	_             [32]byte // 32..64 padding
}

// ringSlot is one cache line: the sequence word followed by the record.
// An odd sequence marks a write in progress; 2k+2 marks the record
// published at sequence k.
type ringSlot struct {
	seq uint64
	rec events.TopOfBookEvent
}

func init() {
	if unsafe.Sizeof(ringHeader{}) != headerSize {
		panic(fmt.Sprintf("ringHeader size is %d, expected %d", unsafe.Sizeof(ringHeader{}), headerSize))
	}
	if unsafe.Sizeof(ringSlot{}) != slotSize {
		panic(fmt.Sprintf("ringSlot size is %d, expected %d", unsafe.Sizeof(ringSlot{}), slotSize))
	}
	if unsafe.Offsetof(ringSlot{}.rec) != 8 {
		panic("ringSlot record must follow the sequence word")
	}
}

func isPowerOfTwo(n uint64) bool {
	return n != 0 && n&(n-1) == 0
}

// bytesForRing returns the region size for a capacity-C ring: one
// header line plus C slot lines, rounded up to a page multiple.
func bytesForRing(capacity uint64) int {
	raw := headerSize + int(capacity)*slotSize
	page := unix.Getpagesize()
	return (raw + page - 1) &^ (page - 1)
}

// header interprets the start of a mapped region as the ring header.
func header(data []byte) *ringHeader {
	return (*ringHeader)(unsafe.Pointer(&data[0]))
}

// slotAt returns the slot for sequence seq. mask is capacity-1.
func slotAt(data []byte, seq, mask uint64) *ringSlot {
	off := headerSize + int(seq&mask)*slotSize
	return (*ringSlot)(unsafe.Pointer(&data[off]))
}

// validateHeader checks a mapped header against the compiled-in layout.
// wantCapacity zero accepts any power-of-two capacity (readers take the
// capacity from the file; writers pin it from configuration).
func validateHeader(h *ringHeader, wantCapacity uint64, wantVersion uint32) error {
	if h.magic != ringMagic {
		return layoutErr("magic", ringMagic, h.magic)
	}
	if h.layoutVersion != wantVersion {
		return layoutErr("layout_version", uint64(wantVersion), uint64(h.layoutVersion))
	}
	if h.recordSize != events.RecordSize {
		return layoutErr("record_size", events.RecordSize, uint64(h.recordSize))
	}
	if !isPowerOfTwo(h.capacity) {
		return layoutErr("capacity", 0, h.capacity)
	}
	if wantCapacity != 0 && h.capacity != wantCapacity {
		return layoutErr("capacity", wantCapacity, h.capacity)
	}
	return nil
}
