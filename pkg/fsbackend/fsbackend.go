// Package fsbackend implements a durable overflow backend that stores one
// file per entry inside a directory it owns exclusively.
//
// Files are named "<index>.data" where index is a decimal integer assigned in
// arrival order, starting at 1 and restarting at 1 whenever the on-disk
// portion fully drains. The directory itself is the only manifest: a restart
// recovers the backend state purely by scanning it.
package fsbackend

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fanatics-live/persistent-queue/pkg/backend"
	"github.com/fanatics-live/persistent-queue/pkg/codec"
)

const fileSuffix = ".data"

// Options configures a filesystem backend.
type Options[T any] struct {
	// Dir is the directory holding the entry files. Created if absent. The
	// backend assumes exclusive ownership of it.
	Dir string

	// MaxBytes bounds the cumulative encoded size of all stored entries.
	// An enqueue that would exceed it is dropped. Must be positive.
	MaxBytes int64

	// Codec encodes entries to file contents. Defaults to codec.Gob[T].
	Codec codec.Codec[T]
}

// Backend is a byte-limited, crash-recoverable overflow store. An entry
// accepted by Enqueue is flushed to disk before the call returns, so a crash
// afterwards cannot lose it.
type Backend[T any] struct {
	dir      string
	maxBytes int64
	codec    codec.Codec[T]

	// first and last delimit the contiguous index range currently on disk.
	// Both are zero iff the backend is empty; live indices start at 1.
	first uint64
	last  uint64
	size  int64 // sum of exact encoded byte lengths of all stored files
}

var _ backend.Backend[int] = (*Backend[int])(nil)

// New opens the backend over opts.Dir, creating the directory if needed, and
// rebuilds the index range and byte size from the files present.
func New[T any](opts Options[T]) (*Backend[T], error) {
	if opts.Dir == "" {
		return nil, fmt.Errorf("fsbackend: directory path must not be empty")
	}
	if opts.MaxBytes <= 0 {
		return nil, fmt.Errorf("fsbackend: byte limit must be positive, got %d", opts.MaxBytes)
	}
	if opts.Codec == nil {
		opts.Codec = codec.Gob[T]{}
	}

	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("fsbackend: create directory %q: %w", opts.Dir, err)
	}

	b := &Backend[T]{
		dir:      opts.Dir,
		maxBytes: opts.MaxBytes,
		codec:    opts.Codec,
	}
	if err := b.scan(); err != nil {
		return nil, err
	}
	return b, nil
}

// scan recomputes first, last and size from the directory contents.
func (b *Backend[T]) scan() error {
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		return fmt.Errorf("fsbackend: list directory %q: %w", b.dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		index, ok := parseIndex(entry.Name())
		if !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return fmt.Errorf("fsbackend: stat %q: %w", entry.Name(), err)
		}
		if b.first == 0 || index < b.first {
			b.first = index
		}
		if index > b.last {
			b.last = index
		}
		b.size += info.Size()
	}
	return nil
}

// parseIndex extracts the entry index from a file name of the form
// "<integer>.data". Anything else is not an entry file.
func parseIndex(name string) (uint64, bool) {
	stem, found := strings.CutSuffix(name, fileSuffix)
	if !found {
		return 0, false
	}
	index, err := strconv.ParseUint(stem, 10, 64)
	if err != nil || index == 0 {
		return 0, false
	}
	return index, true
}

func (b *Backend[T]) path(index uint64) string {
	return filepath.Join(b.dir, strconv.FormatUint(index, 10)+fileSuffix)
}

// Enqueue encodes the entry and appends it as a new file, or drops it when
// the encoded bytes would push the backend past its byte limit. Nothing is
// written on a drop.
func (b *Backend[T]) Enqueue(entry T) (bool, error) {
	data, err := b.codec.Encode(entry)
	if err != nil {
		return false, fmt.Errorf("fsbackend: encode entry: %w", err)
	}
	if b.size+int64(len(data)) > b.maxBytes {
		return false, nil
	}

	index := uint64(1)
	if b.last > 0 {
		index = b.last + 1
	}
	if err := writeDurable(b.path(index), data); err != nil {
		return false, err
	}

	if b.first == 0 {
		b.first = index
	}
	b.last = index
	b.size += int64(len(data))
	return true, nil
}

// writeDurable writes data to a new file and flushes it to stable storage
// before returning. This is the durability boundary of the backend.
func writeDurable(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("fsbackend: create %q: %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("fsbackend: write %q: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("fsbackend: sync %q: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("fsbackend: close %q: %w", path, err)
	}
	return nil
}

// Dequeue reads, deletes and decodes the oldest entry file.
func (b *Backend[T]) Dequeue() (entry T, ok bool, err error) {
	if b.first == 0 {
		return entry, false, nil
	}

	path := b.path(b.first)
	data, err := os.ReadFile(path)
	if err != nil {
		return entry, false, fmt.Errorf("fsbackend: read %q: %w", path, err)
	}
	if err := os.Remove(path); err != nil {
		return entry, false, fmt.Errorf("fsbackend: delete %q: %w", path, err)
	}

	if b.first == b.last {
		// Last remaining entry: the index range restarts at 1 on the next
		// enqueue.
		b.first, b.last, b.size = 0, 0, 0
	} else {
		b.first++
		b.size -= int64(len(data))
	}

	entry, err = b.codec.Decode(data)
	if err != nil {
		return entry, false, fmt.Errorf("fsbackend: decode entry %q: %w", path, err)
	}
	return entry, true, nil
}

// DequeueN removes up to n entries in FIFO order.
func (b *Backend[T]) DequeueN(n int) ([]T, error) {
	return backend.DequeueN[T](b, n)
}

// Size returns the number of entries currently on disk.
func (b *Backend[T]) Size() int {
	if b.first == 0 {
		return 0
	}
	return int(b.last - b.first + 1)
}

// UsedBytes returns the cumulative encoded size of all entries on disk.
func (b *Backend[T]) UsedBytes() int64 {
	return b.size
}
