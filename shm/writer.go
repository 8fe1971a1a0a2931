package shm

import (
	"fmt"
	"sync/atomic"

	"github.com/aditya-git16/lithos/events"
)

// Writer is the single producer of a broadcast ring. At most one Writer
// may own a ring file at a time; construction takes an exclusive flock
// so a second producer fails with ErrWriterActive instead of corrupting
// slots.
type Writer struct {
	region *Region
	hdr    *ringHeader
	data   []byte
	mask   uint64
	cursor uint64
}

// NewWriter creates or reuses the ring at path. A missing file is
// created, sized and zero-initialized; an existing file must carry a
// matching header and the writer resumes from its persisted cursor.
func NewWriter(path string, capacity uint64, layoutVersion uint32) (*Writer, error) {
	if !isPowerOfTwo(capacity) {
		return nil, fmt.Errorf("shm: capacity must be a power of two, got %d", capacity)
	}

	region, fresh, err := createRegion(path, bytesForRing(capacity))
	if err != nil {
		return nil, err
	}
	if err := region.lockExclusive(); err != nil {
		region.Close()
		return nil, err
	}

	data := region.Bytes()
	hdr := header(data)
	if fresh {
		// Slots are already zero (file-backed pages start zeroed), so
		// every slot reads as "never written". Publish the header last.
		hdr.capacity = capacity
		hdr.recordSize = events.RecordSize
		hdr.layoutVersion = layoutVersion
		atomic.StoreUint64(&hdr.writeCursor, 0)
		atomic.StoreUint64(&hdr.magic, ringMagic)
	} else if err := validateHeader(hdr, capacity, layoutVersion); err != nil {
		region.Close()
		return nil, err
	}

	return &Writer{
		region: region,
		hdr:    hdr,
		data:   data,
		mask:   capacity - 1,
		cursor: atomic.LoadUint64(&hdr.writeCursor),
	}, nil
}

// Publish writes one record into the ring. It never fails and never
// blocks: mark the slot in progress (odd), copy the record with plain
// stores, publish the slot (even), then advance the global cursor.
func (w *Writer) Publish(rec events.TopOfBookEvent) {
	seq := w.cursor
	slot := slotAt(w.data, seq, w.mask)

	atomic.StoreUint64(&slot.seq, 2*seq+1)
	slot.rec = rec
	atomic.StoreUint64(&slot.seq, 2*seq+2)

	w.cursor = seq + 1
	atomic.StoreUint64(&w.hdr.writeCursor, w.cursor)
}

// Cursor returns the sequence the next Publish will use.
func (w *Writer) Cursor() uint64 { return w.cursor }

// Close releases the mapping and the writer lock. The ring file stays
// on disk; a later Writer resumes from the persisted cursor.
func (w *Writer) Close() error { return w.region.Close() }
