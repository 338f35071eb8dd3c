// Package dropping implements the null overflow backend: every entry offered
// to it is discarded. Pairing it with a bounded queue yields pure
// capacity-bounded, non-durable behavior.
package dropping

import "github.com/fanatics-live/persistent-queue/pkg/backend"

// Backend stores nothing and reports every overflow as dropped.
type Backend[T any] struct{}

var _ backend.Backend[int] = (*Backend[int])(nil)

// New creates a dropping backend.
func New[T any]() *Backend[T] {
	return &Backend[T]{}
}

// Enqueue discards the entry and reports the drop.
func (*Backend[T]) Enqueue(T) (bool, error) {
	return false, nil
}

// Dequeue always reports empty.
func (*Backend[T]) Dequeue() (entry T, ok bool, err error) {
	return entry, false, nil
}

// DequeueN always returns no entries.
func (b *Backend[T]) DequeueN(n int) ([]T, error) {
	return backend.DequeueN[T](b, n)
}

// Size is always zero.
func (*Backend[T]) Size() int {
	return 0
}
