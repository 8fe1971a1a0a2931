package shm

import (
	"sync/atomic"

	"github.com/aditya-git16/lithos/events"
)

// ReadStatus is the outcome of a single TryRead.
type ReadStatus int

const (
	// ReadEmpty: no new record is available.
	ReadEmpty ReadStatus = iota
	// ReadReady: a record was copied out and the cursor advanced.
	ReadReady
	// ReadOverrun: the writer lapped this reader; the cursor jumped
	// forward to the oldest safe position.
	ReadOverrun
)

// StartPolicy selects the initial read position of a new Reader.
type StartPolicy int

const (
	// StartLatest begins at the current write cursor: new records only.
	StartLatest StartPolicy = iota
	// StartEarliest begins as far back as the ring still retains.
	StartEarliest
)

// overrunMargin keeps a recovering reader ahead of the slot the writer
// is about to reuse, so it is not re-lapped mid-catchup.
const overrunMargin = 1

// Reader is one independent consumer of a broadcast ring. Readers never
// write shared state: the cursor is private, reads are wait-free, and
// record integrity is validated by the slot sequence word before and
// after the copy.
type Reader struct {
	region   *Region
	hdr      *ringHeader
	data     []byte
	mask     uint64
	capacity uint64
	next     uint64
	dropped  uint64
}

// OpenReader maps an existing ring read-only and validates its header.
// Capacity is taken from the file. Fails if the file does not exist or
// the layout does not match.
func OpenReader(path string, layoutVersion uint32, policy StartPolicy) (*Reader, error) {
	region, err := openRegion(path)
	if err != nil {
		return nil, err
	}
	data := region.Bytes()
	hdr := header(data)
	if err := validateHeader(hdr, 0, layoutVersion); err != nil {
		region.Close()
		return nil, err
	}
	if region.Len() < bytesForRing(hdr.capacity) {
		got := uint64(region.Len())
		region.Close()
		return nil, layoutErr("region_size", uint64(bytesForRing(hdr.capacity)), got)
	}

	w := atomic.LoadUint64(&hdr.writeCursor)
	next := w
	if policy == StartEarliest && w > hdr.capacity {
		next = w - hdr.capacity
	} else if policy == StartEarliest {
		next = 0
	}

	return &Reader{
		region:   region,
		hdr:      hdr,
		data:     data,
		mask:     hdr.capacity - 1,
		capacity: hdr.capacity,
		next:     next,
	}, nil
}

// TryRead copies the next record into out. It is wait-free and returns
// immediately in all cases. On ReadOverrun, lost reports how far behind
// the write cursor this reader had fallen, or 1 when the slot was
// overwritten during the copy; the cursor has already been advanced to
// the oldest safe record.
func (r *Reader) TryRead(out *events.TopOfBookEvent) (status ReadStatus, lost uint64) {
	w := atomic.LoadUint64(&r.hdr.writeCursor)
	if w <= r.next {
		return ReadEmpty, 0
	}

	if w-r.next > r.capacity {
		lost = w - r.next
		resume := w - r.capacity + overrunMargin
		r.dropped += resume - r.next
		r.next = resume
		return ReadOverrun, lost
	}

	target := r.next
	slot := slotAt(r.data, target, r.mask)
	want := 2*target + 2

	seq1 := atomic.LoadUint64(&slot.seq)
	if seq1 != want {
		// The cursor said the record exists but the slot is not yet
		// stable at this sequence; treat as not-yet-visible.
		return ReadEmpty, 0
	}

	*out = slot.rec

	seq2 := atomic.LoadUint64(&slot.seq)
	if seq2 != want {
		// Lapped mid-copy. Resync against the live cursor.
		w = atomic.LoadUint64(&r.hdr.writeCursor)
		resume := w - r.capacity + overrunMargin
		r.dropped += resume - r.next
		r.next = resume
		return ReadOverrun, 1
	}

	r.next = target + 1
	return ReadReady, 0
}

// Position returns the sequence this reader expects next. After a
// ReadReady, Position()-1 is the ring sequence of the returned record.
func (r *Reader) Position() uint64 { return r.next }

// OverrunCount returns the cumulative number of records this reader
// skipped over due to overruns.
func (r *Reader) OverrunCount() uint64 { return r.dropped }

// Close releases the mapping.
func (r *Reader) Close() error { return r.region.Close() }
