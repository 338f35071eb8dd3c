package boundedqueue_test

import (
	"encoding/binary"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fanatics-live/persistent-queue/pkg/boundedqueue"
	"github.com/fanatics-live/persistent-queue/pkg/dropping"
	"github.com/fanatics-live/persistent-queue/pkg/fsbackend"
)

// int24Codec encodes an int into exactly 3 bytes.
type int24Codec struct{}

func (int24Codec) Encode(v int) ([]byte, error) {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(v))
	return buf[1:], nil
}

func (int24Codec) Decode(data []byte) (int, error) {
	if len(data) != 3 {
		return 0, fmt.Errorf("want 3 bytes, got %d", len(data))
	}
	var buf [4]byte
	copy(buf[1:], data)
	return int(binary.BigEndian.Uint32(buf[:])), nil
}

func newFSBackend(t *testing.T, dir string, maxBytes int64) *fsbackend.Backend[int] {
	t.Helper()
	b, err := fsbackend.New(fsbackend.Options[int]{
		Dir:      dir,
		MaxBytes: maxBytes,
		Codec:    int24Codec{},
	})
	require.NoError(t, err)
	return b
}

func drain(t *testing.T, q *boundedqueue.Queue[int]) []int {
	t.Helper()
	var values []int
	for {
		v, ok, err := q.Dequeue()
		require.NoError(t, err)
		if !ok {
			return values
		}
		values = append(values, v)
	}
}

func TestNewRejectsNonPositiveLimit(t *testing.T) {
	for _, limit := range []int{0, -1} {
		_, err := boundedqueue.New[int](limit, dropping.New[int]())
		require.ErrorIs(t, err, boundedqueue.ErrInvalidLimit)
	}
}

func TestFIFOWithinMemoryWindow(t *testing.T) {
	q, err := boundedqueue.New[int](10, dropping.New[int]())
	require.NoError(t, err)

	for i := 1; i <= 10; i++ {
		accepted, err := q.Enqueue(i)
		require.NoError(t, err)
		require.True(t, accepted)
	}
	require.Equal(t, 10, q.Size())

	require.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, drain(t, q))
}

// Scenario: limit=1 with a dropping backend. The first entry takes the memory
// window; everything after is delegated to the backend and discarded.
func TestDroppingBackendLimitOne(t *testing.T) {
	q, err := boundedqueue.New[int](1, dropping.New[int]())
	require.NoError(t, err)

	accepted, err := q.Enqueue(1)
	require.NoError(t, err)
	require.True(t, accepted)

	for _, v := range []int{2, 3} {
		accepted, err := q.Enqueue(v)
		require.NoError(t, err)
		require.False(t, accepted)
	}
	require.Equal(t, 1, q.Size())

	v, ok, err := q.Dequeue()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, v)

	_, ok, err = q.Dequeue()
	require.NoError(t, err)
	require.False(t, ok)
}

// Scenario: limit=3 with a dropping backend. Drops past the limit leave the
// queued entries and their order untouched.
func TestDropsDoNotDisturbQueuedEntries(t *testing.T) {
	q, err := boundedqueue.New[int](3, dropping.New[int]())
	require.NoError(t, err)

	for _, v := range []int{1, 2, 3} {
		accepted, err := q.Enqueue(v)
		require.NoError(t, err)
		require.True(t, accepted)
	}
	for _, v := range []int{4, 5} {
		accepted, err := q.Enqueue(v)
		require.NoError(t, err)
		require.False(t, accepted)
	}
	require.Equal(t, 3, q.Size())

	require.Equal(t, []int{1, 2, 3}, drain(t, q))

	_, ok, err := q.Dequeue()
	require.NoError(t, err)
	require.False(t, ok)
}

// Scenario: limit=1 over a filesystem backend with a 6-byte limit and 3-byte
// entries. Entry 1 sits in memory, 2 and 3 fill the disk budget, 4 drops.
func TestFilesystemOverflowByteLimit(t *testing.T) {
	b := newFSBackend(t, t.TempDir(), 6)
	q, err := boundedqueue.New[int](1, b)
	require.NoError(t, err)

	wantAccepted := []bool{true, true, true, false}
	for i, v := range []int{1, 2, 3, 4} {
		accepted, err := q.Enqueue(v)
		require.NoError(t, err)
		require.Equal(t, wantAccepted[i], accepted, "entry %d", v)
	}
	require.Equal(t, 3, q.Size())

	require.Equal(t, []int{1, 2, 3}, drain(t, q))
	require.Equal(t, 0, q.Size())
}

func TestWindowRefillsFromBackend(t *testing.T) {
	b := newFSBackend(t, t.TempDir(), 1024)
	q, err := boundedqueue.New[int](2, b)
	require.NoError(t, err)

	for i := 1; i <= 5; i++ {
		accepted, err := q.Enqueue(i)
		require.NoError(t, err)
		require.True(t, accepted)
	}
	require.Equal(t, 5, q.Size())
	require.Equal(t, 3, b.Size())

	// Each dequeue pulls exactly one entry off disk while any remain there.
	v, ok, err := q.Dequeue()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, v)
	require.Equal(t, 2, b.Size())

	require.Equal(t, []int{2, 3, 4, 5}, drain(t, q))
	require.Equal(t, 0, b.Size())
	require.Equal(t, int64(0), b.UsedBytes())
}

func TestConstructionSeedsWindowFromBackend(t *testing.T) {
	dir := t.TempDir()

	b1 := newFSBackend(t, dir, 1024)
	for i := 1; i <= 4; i++ {
		accepted, err := b1.Enqueue(i)
		require.NoError(t, err)
		require.True(t, accepted)
	}

	q, err := boundedqueue.New[int](2, b1)
	require.NoError(t, err)
	require.Equal(t, 4, q.Size())
	require.Equal(t, 2, b1.Size(), "construction drains min(limit, backend size) into memory")

	require.Equal(t, []int{1, 2, 3, 4}, drain(t, q))
}

// A queue rebuilt over a recovered backend must reproduce the exact sequence
// the discarded one would have drained.
func TestRecoveryReproducesSequence(t *testing.T) {
	dir := t.TempDir()

	b1 := newFSBackend(t, dir, 9)
	var expected []int
	for i := 1; i <= 5; i++ {
		accepted, err := b1.Enqueue(i)
		require.NoError(t, err)
		if accepted {
			expected = append(expected, i)
		}
	}
	require.Equal(t, []int{1, 2, 3}, expected, "9-byte budget holds three 3-byte entries")

	// Drop b1 without draining; only the directory survives the "crash".
	b2 := newFSBackend(t, dir, 9)
	q, err := boundedqueue.New[int](2, b2)
	require.NoError(t, err)
	require.Equal(t, len(expected), q.Size())

	require.Equal(t, expected, drain(t, q))
}

func TestEmptyDequeueRepeats(t *testing.T) {
	q, err := boundedqueue.New[int](4, dropping.New[int]())
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, ok, err := q.Dequeue()
		require.NoError(t, err)
		require.False(t, ok)
		require.Equal(t, 0, q.Size())
	}
}

func TestDequeueN(t *testing.T) {
	b := newFSBackend(t, t.TempDir(), 1024)
	q, err := boundedqueue.New[int](2, b)
	require.NoError(t, err)

	for i := 1; i <= 6; i++ {
		_, err := q.Enqueue(i)
		require.NoError(t, err)
	}

	values, err := q.DequeueN(4)
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 3, 4}, values)

	// Asking past the remaining entries stops at empty.
	values, err = q.DequeueN(10)
	require.NoError(t, err)
	require.Equal(t, []int{5, 6}, values)
	require.Equal(t, 0, q.Size())
}

func TestInterleavedEnqueueDequeue(t *testing.T) {
	b := newFSBackend(t, t.TempDir(), 1024)
	q, err := boundedqueue.New[int](3, b)
	require.NoError(t, err)

	next := 1
	var got []int
	for round := 0; round < 10; round++ {
		for i := 0; i < 4; i++ {
			_, err := q.Enqueue(next)
			require.NoError(t, err)
			next++
		}
		for i := 0; i < 2; i++ {
			v, ok, err := q.Dequeue()
			require.NoError(t, err)
			require.True(t, ok)
			got = append(got, v)
		}
	}
	got = append(got, drain(t, q)...)

	want := make([]int, next-1)
	for i := range want {
		want[i] = i + 1
	}
	require.Equal(t, want, got)
}
