// Package boundedqueue implements a FIFO queue that keeps at most a fixed
// number of entries in memory and hands the overflow to a pluggable backend.
//
// With a dropping backend the queue is a plain capacity-bounded buffer; with
// a filesystem backend the overflow survives process restarts. Either way the
// caller sees one logical FIFO queue.
package boundedqueue

import (
	"errors"
	"fmt"

	"github.com/fanatics-live/persistent-queue/pkg/backend"
)

// ErrInvalidLimit is returned by New when the in-memory limit is not a
// positive count.
var ErrInvalidLimit = errors.New("boundedqueue: memory limit must be positive")

// Queue is a bounded FIFO queue over an owned overflow backend.
//
// The in-memory window uses two buffers: entries are appended to the input
// buffer and popped from the output buffer; when the output buffer runs dry
// the input buffer is reversed into it, which keeps head removal amortized
// O(1).
//
// A Queue has a single owner: it performs no internal locking, and the
// backend instance (including a filesystem backend's directory) must not be
// shared with anyone else.
type Queue[T any] struct {
	in  []T // newest last
	out []T // oldest last, popped from the end

	size    int // total entries across memory and backend
	limit   int // maximum entries held in memory
	backend backend.Backend[T]
}

// New builds a queue over an already-constructed backend and immediately
// drains up to limit entries from it into the memory window, so a queue
// rebuilt over a recovered filesystem backend resumes where the previous one
// left off. The resulting Size equals the backend's pre-existing size.
func New[T any](limit int, b backend.Backend[T]) (*Queue[T], error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidLimit, limit)
	}

	q := &Queue[T]{
		limit:   limit,
		backend: b,
		size:    b.Size(),
	}

	n := q.size
	if n > limit {
		n = limit
	}
	drained, err := b.DequeueN(n)
	if err != nil {
		return nil, err
	}
	q.in = append(q.in, drained...)
	return q, nil
}

// Size returns the total number of entries across memory and backend.
func (q *Queue[T]) Size() int {
	return q.size
}

// Enqueue appends an entry to the tail of the queue. While the queue holds
// fewer than limit entries it goes straight to memory with no backend I/O;
// past that it is offered to the backend, which may drop it. The returned
// bool reports whether the entry was retained; a drop is an expected,
// designed outcome, not an error.
func (q *Queue[T]) Enqueue(entry T) (bool, error) {
	if q.size < q.limit {
		q.in = append(q.in, entry)
		q.size++
		return true, nil
	}

	accepted, err := q.backend.Enqueue(entry)
	if err != nil {
		return false, err
	}
	if accepted {
		q.size++
	}
	return accepted, nil
}

// Dequeue removes and returns the oldest entry. ok is false when the queue is
// empty. Whenever entries remain in the backend, one is pulled into memory so
// the window stays as full as the backend's remaining content allows.
func (q *Queue[T]) Dequeue() (entry T, ok bool, err error) {
	var zero T
	if q.size == 0 {
		return zero, false, nil
	}

	// Refill before popping: every memory entry precedes the backend's
	// oldest, so appending it to the input buffer preserves FIFO order, and
	// a backend failure leaves the queue untouched.
	if q.size > q.limit {
		pulled, ok, err := q.backend.Dequeue()
		if err != nil {
			return zero, false, err
		}
		if ok {
			q.in = append(q.in, pulled)
		}
	}

	if len(q.out) == 0 {
		for i := len(q.in) - 1; i >= 0; i-- {
			q.out = append(q.out, q.in[i])
		}
		q.in = q.in[:0]
	}

	head := q.out[len(q.out)-1]
	q.out[len(q.out)-1] = zero // release the reference
	q.out = q.out[:len(q.out)-1]
	q.size--
	return head, true, nil
}

// DequeueN removes and returns up to n entries in FIFO order, stopping early
// when the queue empties.
func (q *Queue[T]) DequeueN(n int) ([]T, error) {
	var collected []T
	for i := 0; i < n; i++ {
		entry, ok, err := q.Dequeue()
		if err != nil {
			return collected, err
		}
		if !ok {
			break
		}
		collected = append(collected, entry)
	}
	return collected, nil
}
