package pipebuf

import (
	"context"
	"errors"
	"sync"

	"github.com/dmitrymomot/watchkit/pkg/watch"
)

// Compile-time interface satisfaction check.
var _ watch.Transport = (*Buffer)(nil)

// Buffer is the in-memory transport behind a queue: a fixed set of note
// slots on the producer side and an ordered stream of published slots on the
// consumer side. Slots stay claimed until the consumer decodes them, so the
// queue's note pool provides the only buffering — a consumer that stops
// draining makes the pool run dry and the queue mark overrun, never the
// producer block.
type Buffer struct {
	mu       sync.Mutex
	slots    [][]byte
	lens     []int
	release  func(slot uint32)
	detached bool

	// pub carries published slot indexes to the consumer. It is sized for
	// the largest legal note pool once, so Reserve never has to swap the
	// channel out from under a blocked Next.
	pub chan uint32
}

// New creates an attached buffer with no slots reserved yet.
func New() *Buffer {
	return &Buffer{
		pub: make(chan uint32, watch.MaxQueueNotes),
	}
}

// Reserve backs n slots of the given size. The queue calls it through
// SetSize; replacing an earlier reservation is allowed only while no
// published slot is pending.
func (b *Buffer) Reserve(_ context.Context, n uint32, size int, release func(slot uint32)) error {
	if n == 0 || n > watch.MaxQueueNotes || size <= 0 || release == nil {
		return ErrInvalidReserve
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.detached {
		return ErrDetached
	}
	if len(b.pub) > 0 {
		return ErrBusy
	}

	b.slots = make([][]byte, n)
	for i := range b.slots {
		b.slots[i] = make([]byte, size)
	}
	b.lens = make([]int, n)
	b.release = release
	return nil
}

// Write stores an encoded record into a claimed slot.
func (b *Buffer) Write(slot uint32, p []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch {
	case b.detached:
		return ErrDetached
	case b.slots == nil:
		return ErrNotReserved
	case int(slot) >= len(b.slots):
		return ErrBadSlot
	case len(p) > len(b.slots[slot]):
		return ErrShortSlot
	}
	copy(b.slots[slot], p)
	b.lens[slot] = len(p)
	return nil
}

// Publish makes a written slot visible to the consumer. It never blocks; the
// publish stream is at least as large as any legal note pool.
func (b *Buffer) Publish(slot uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch {
	case b.detached:
		return ErrDetached
	case b.slots == nil:
		return ErrNotReserved
	case int(slot) >= len(b.slots):
		return ErrBadSlot
	}
	select {
	case b.pub <- slot:
		return nil
	default:
		// Cannot happen while the queue honours its note pool capacity.
		return ErrBusy
	}
}

// Attached reports whether the consumer side is still connected.
func (b *Buffer) Attached() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.detached
}

// Detach disconnects the consumer side. Publishes fail from then on, so the
// delivering queue recycles its notes; records already published remain
// readable through Next until drained. Detach is idempotent.
func (b *Buffer) Detach() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.detached {
		b.detached = true
		close(b.pub)
	}
}

// Pending reports the number of published records not yet consumed.
func (b *Buffer) Pending() int {
	return len(b.pub)
}

// Next blocks until a record is published, the context is cancelled, or the
// buffer is detached and drained. The slot backing the record is returned to
// the queue's note pool before Next returns.
func (b *Buffer) Next(ctx context.Context) (watch.Record, error) {
	select {
	case <-ctx.Done():
		return watch.Record{}, ctx.Err()
	case slot, ok := <-b.pub:
		if !ok {
			return watch.Record{}, ErrDetached
		}
		return b.consume(slot)
	}
}

// TryNext returns the next published record without blocking. It reports
// false when nothing is pending.
func (b *Buffer) TryNext() (watch.Record, bool, error) {
	select {
	case slot, ok := <-b.pub:
		if !ok {
			return watch.Record{}, false, ErrDetached
		}
		rec, err := b.consume(slot)
		return rec, err == nil, err
	default:
		return watch.Record{}, false, nil
	}
}

// consume decodes a published slot and recycles it.
func (b *Buffer) consume(slot uint32) (watch.Record, error) {
	b.mu.Lock()
	if int(slot) >= len(b.slots) {
		b.mu.Unlock()
		return watch.Record{}, ErrBadSlot
	}
	data := b.slots[slot][:b.lens[slot]]
	rec, err := watch.Decode(data)
	release := b.release
	b.mu.Unlock()

	if release != nil {
		release(slot)
	}
	if err != nil {
		return watch.Record{}, errors.Join(ErrBadSlot, err)
	}
	return rec, nil
}
