// Package shm implements the single-producer multi-consumer broadcast
// ring over a file-backed shared memory region. Readers are wait-free;
// the writer publishes through a seqlock and never blocks.
package shm

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Region is a mapped file-backed shared memory span. The file handle is
// kept open for the lifetime of the mapping.
type Region struct {
	file *os.File
	data []byte
	ro   bool
}

// createRegion opens or creates the backing file read-write and maps it
// at exactly size bytes. A brand new (zero-length) file is truncated up
// to size and reported as fresh; an existing file must already be that
// size.
func createRegion(path string, size int) (r *Region, fresh bool, err error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, false, fmt.Errorf("shm: open %s: %w", path, err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, false, fmt.Errorf("shm: stat %s: %w", path, err)
	}
	fresh = st.Size() == 0
	if fresh {
		if err := f.Truncate(int64(size)); err != nil {
			f.Close()
			return nil, false, fmt.Errorf("shm: truncate %s: %w", path, err)
		}
	} else if st.Size() != int64(size) {
		f.Close()
		return nil, false, layoutErr("region_size", uint64(size), uint64(st.Size()))
	}

	data, err := unix.Mmap(int(f.Fd()), 0, size,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, false, fmt.Errorf("shm: mmap %s: %w", path, err)
	}
	return &Region{file: f, data: data}, fresh, nil
}

// openRegion maps an existing file read-only at its current size.
func openRegion(path string) (*Region, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("shm: open %s: %w", path, err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("shm: stat %s: %w", path, err)
	}
	if st.Size() < headerSize {
		f.Close()
		return nil, layoutErr("region_size", headerSize, uint64(st.Size()))
	}
	data, err := unix.Mmap(int(f.Fd()), 0, int(st.Size()),
		unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("shm: mmap %s: %w", path, err)
	}
	return &Region{file: f, data: data, ro: true}, nil
}

// lockExclusive takes a non-blocking exclusive flock on the backing
// file. Held until Close; a second writer on the same ring fails fast.
func (r *Region) lockExclusive() error {
	if err := unix.Flock(int(r.file.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		if err == unix.EWOULDBLOCK {
			return ErrWriterActive
		}
		return fmt.Errorf("shm: flock %s: %w", r.file.Name(), err)
	}
	return nil
}

// Bytes returns the mapped span.
func (r *Region) Bytes() []byte { return r.data }

// Len returns the mapped length in bytes.
func (r *Region) Len() int { return len(r.data) }

// PageSize returns the system page size the region is padded to.
func (r *Region) PageSize() int { return unix.Getpagesize() }

// Close unmaps the region and releases the file handle (and with it any
// flock). The backing file stays on disk for subsequent runs.
func (r *Region) Close() error {
	if r.data == nil {
		return nil
	}
	err := unix.Munmap(r.data)
	r.data = nil
	if cerr := r.file.Close(); err == nil {
		err = cerr
	}
	return err
}
