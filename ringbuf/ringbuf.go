// Package ringbuf provides a bounded ring buffer of sample pairs for one
// writer and one reader running concurrently without a lock.
package ringbuf

import "sync/atomic"

// Pair is a pair of samples written in the same frame.
type Pair struct {
	S1, S2 float32
}

// Buffer is a single-producer single-consumer ring buffer. Write must only be
// called from one goroutine and Read from one other goroutine.
type Buffer struct {
	pairs []Pair
	mask  uint64
	head  atomic.Uint64 // next position to write, owned by the writer
	tail  atomic.Uint64 // next position to read, owned by the reader
}

// New returns a buffer that holds at least size pairs. The capacity is
// rounded up to a power of two.
func New(size int) *Buffer {
	n := 1
	for n < size {
		n <<= 1
	}
	return &Buffer{
		pairs: make([]Pair, n),
		mask:  uint64(n - 1),
	}
}

// Write appends a pair. It returns false and drops the pair if the buffer
// is full. It never blocks or allocates.
func (b *Buffer) Write(p Pair) bool {
	head := b.head.Load()
	if head-b.tail.Load() == uint64(len(b.pairs)) {
		return false
	}
	b.pairs[head&b.mask] = p
	b.head.Store(head + 1)
	return true
}

// Read moves up to len(dst) of the oldest pairs into dst and returns how
// many were read.
func (b *Buffer) Read(dst []Pair) int {
	tail := b.tail.Load()
	n := int(b.head.Load() - tail)
	if n > len(dst) {
		n = len(dst)
	}
	for i := 0; i < n; i++ {
		dst[i] = b.pairs[(tail+uint64(i))&b.mask]
	}
	b.tail.Store(tail + uint64(n))
	return n
}

// Discard drops all pairs that are available to the reader.
func (b *Buffer) Discard() {
	b.tail.Store(b.head.Load())
}

// Len returns the number of pairs available to the reader.
func (b *Buffer) Len() int {
	return int(b.head.Load() - b.tail.Load())
}

// Cap returns the capacity of the buffer.
func (b *Buffer) Cap() int {
	return len(b.pairs)
}
