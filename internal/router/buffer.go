package router

import "sync"

// growThresholdPercent is the fill level at which the buffer doubles.
const growThresholdPercent = 70

// GrowableBuffer is a thread-safe FIFO ring that doubles its capacity when it
// reaches 70% full. With a non-zero maximum it stops growing there and
// overwrites the oldest item instead, so a stalled consumer costs bounded memory.
type GrowableBuffer[T any] struct {
	mu     sync.Mutex
	cond   *sync.Cond
	ring   []T
	head   int // index of the oldest item
	count  int
	max    int // 0 = unbounded
	closed bool

	stats BufferStats
}

// BufferStats contains buffer statistics.
type BufferStats struct {
	Count         int
	Capacity      int
	TotalReceived int64 // Items accepted by Send
	TotalSent     int64 // Items handed to consumers
	Dropped       int64 // Items overwritten at max capacity
	ResizeCount   int
}

// NewGrowableBuffer creates a buffer with the given initial capacity.
// maxCapacity <= 0 lets it grow without limit.
func NewGrowableBuffer[T any](initialCapacity, maxCapacity int) *GrowableBuffer[T] {
	if initialCapacity < 1 {
		initialCapacity = 1
	}
	if maxCapacity > 0 && maxCapacity < initialCapacity {
		maxCapacity = initialCapacity
	}
	b := &GrowableBuffer[T]{
		ring: make([]T, initialCapacity),
		max:  maxCapacity,
	}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Send appends item. Returns false if the buffer is closed.
func (b *GrowableBuffer[T]) Send(item T) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return false
	}

	threshold := max(len(b.ring)*growThresholdPercent/100, 1)
	if b.count+1 >= threshold && b.canGrow() {
		b.grow()
	}

	if b.count == len(b.ring) {
		// At max capacity: drop the oldest.
		b.pop()
		b.stats.Dropped++
	}

	b.ring[(b.head+b.count)%len(b.ring)] = item
	b.count++
	b.stats.TotalReceived++

	b.cond.Signal()
	return true
}

// Receive blocks until an item is available or the buffer is closed and
// drained, in which case ok is false.
func (b *GrowableBuffer[T]) Receive() (item T, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for b.count == 0 && !b.closed {
		b.cond.Wait()
	}
	if b.count == 0 {
		return item, false
	}
	return b.take(), true
}

// TryReceive returns the oldest item without blocking.
func (b *GrowableBuffer[T]) TryReceive() (item T, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.count == 0 {
		return item, false
	}
	return b.take(), true
}

// DrainTo removes up to limit items (all when limit <= 0) in FIFO order.
func (b *GrowableBuffer[T]) DrainTo(limit int) []T {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.count == 0 {
		return nil
	}

	n := b.count
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]T, n)
	for i := range out {
		out[i] = b.take()
	}
	return out
}

// Close stops accepting items. Receivers drain what is left, then see ok=false.
func (b *GrowableBuffer[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	b.cond.Broadcast()
}

// Len returns the number of buffered items.
func (b *GrowableBuffer[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// Cap returns the current capacity.
func (b *GrowableBuffer[T]) Cap() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.ring)
}

// Stats returns a snapshot of buffer statistics.
func (b *GrowableBuffer[T]) Stats() BufferStats {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := b.stats
	s.Count = b.count
	s.Capacity = len(b.ring)
	return s
}

// take pops the oldest item for a consumer.
func (b *GrowableBuffer[T]) take() T {
	b.stats.TotalSent++
	return b.pop()
}

// pop removes the oldest item. Must be called with lock held and count > 0.
func (b *GrowableBuffer[T]) pop() T {
	var zero T
	item := b.ring[b.head]
	b.ring[b.head] = zero
	b.head = (b.head + 1) % len(b.ring)
	b.count--
	return item
}

func (b *GrowableBuffer[T]) canGrow() bool {
	return b.max <= 0 || len(b.ring) < b.max
}

// grow doubles capacity (clamped to max) and unwraps the ring.
// Must be called with lock held.
func (b *GrowableBuffer[T]) grow() {
	newCap := len(b.ring) * 2
	if b.max > 0 && newCap > b.max {
		newCap = b.max
	}

	ring := make([]T, newCap)
	n := copy(ring, b.ring[b.head:min(b.head+b.count, len(b.ring))])
	if n < b.count {
		copy(ring[n:], b.ring[:b.count-n])
	}

	b.ring = ring
	b.head = 0
	b.stats.ResizeCount++
}
