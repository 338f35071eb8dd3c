// Package backend defines the overflow-backend contract of the bounded
// queue. A backend receives the entries that no longer fit into the queue's
// in-memory window and either stores them or drops them.
package backend

// Backend is the capability set every overflow strategy must implement.
// Implementations are owned by a single queue instance at a time and perform
// no internal locking; concurrent use of one instance is outside the
// contract.
type Backend[T any] interface {
	// Enqueue offers an entry to the backend. It returns true if the entry
	// was accepted and false if it was dropped because a capacity limit was
	// reached. A drop is an expected outcome, not an error; err reports only
	// fatal failures (I/O, encoding).
	Enqueue(entry T) (accepted bool, err error)

	// Dequeue removes and returns the oldest stored entry.
	// ok is false when the backend is empty.
	Dequeue() (entry T, ok bool, err error)

	// DequeueN removes and returns up to n entries in FIFO order.
	// Implementations may optimize, but the observable order and count must
	// match repeated single-entry Dequeue; most delegate to the package-level
	// DequeueN helper.
	DequeueN(n int) ([]T, error)

	// Size returns the number of entries currently stored. The bounded queue
	// reads it once, at construction, to seed its memory window.
	Size() int
}

// DequeueN is the default batch-dequeue algorithm: repeated single-entry
// Dequeue until n entries were collected or the backend reports empty.
func DequeueN[T any](b Backend[T], n int) ([]T, error) {
	var out []T
	for i := 0; i < n; i++ {
		entry, ok, err := b.Dequeue()
		if err != nil {
			return out, err
		}
		if !ok {
			break
		}
		out = append(out, entry)
	}
	return out, nil
}
