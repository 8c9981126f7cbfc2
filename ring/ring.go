// Package ring provides a fixed-capacity single-producer single-consumer
// queue. The producer side is safe to call from an audio callback: Push is
// wait-free, never allocates, and reports rejection instead of blocking when
// the buffer is full.
package ring

import "sync/atomic"

// Buffer is a bounded FIFO queue over a circular array. One slot is kept
// empty to distinguish full from empty, so a Buffer created with capacity N
// holds at most N-1 elements.
//
// Exactly one goroutine may push and exactly one may pop. Len, Empty and
// Full are safe from either side.
type Buffer[T any] struct {
	data []T
	head atomic.Uint64 // next slot to pop
	tail atomic.Uint64 // next slot to push
}

// New creates a Buffer backed by capacity slots (usable capacity-1).
// capacity must be at least 2.
func New[T any](capacity int) *Buffer[T] {
	if capacity < 2 {
		panic("ring: capacity must be at least 2")
	}
	return &Buffer[T]{data: make([]T, capacity)}
}

// Push enqueues v at the tail. It returns false without modifying the
// buffer when the buffer is full.
func (b *Buffer[T]) Push(v T) bool {
	tail := b.tail.Load()
	next := (tail + 1) % uint64(len(b.data))
	if next == b.head.Load() {
		return false
	}
	b.data[tail] = v
	b.tail.Store(next)
	return true
}

// PushSlice enqueues as many elements of vs as fit, honoring wraparound,
// and returns how many were accepted.
func (b *Buffer[T]) PushSlice(vs []T) int {
	n := 0
	for _, v := range vs {
		if !b.Push(v) {
			break
		}
		n++
	}
	return n
}

// Pop dequeues the oldest element. The second return is false when the
// buffer is empty.
func (b *Buffer[T]) Pop() (T, bool) {
	var zero T
	head := b.head.Load()
	if head == b.tail.Load() {
		return zero, false
	}
	v := b.data[head]
	b.data[head] = zero // release reference
	b.head.Store((head + 1) % uint64(len(b.data)))
	return v, true
}

// PopSlice dequeues up to len(out) elements into out and returns how many
// were written.
func (b *Buffer[T]) PopSlice(out []T) int {
	n := 0
	for n < len(out) {
		v, ok := b.Pop()
		if !ok {
			break
		}
		out[n] = v
		n++
	}
	return n
}

// Len returns the number of buffered elements.
func (b *Buffer[T]) Len() int {
	head := b.head.Load()
	tail := b.tail.Load()
	if tail >= head {
		return int(tail - head)
	}
	return len(b.data) - int(head-tail)
}

// Empty reports whether the buffer holds no elements.
func (b *Buffer[T]) Empty() bool {
	return b.head.Load() == b.tail.Load()
}

// Full reports whether another Push would be rejected.
func (b *Buffer[T]) Full() bool {
	next := (b.tail.Load() + 1) % uint64(len(b.data))
	return next == b.head.Load()
}
