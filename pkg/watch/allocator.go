package watch

import (
	"math/bits"
	"sync"
)

// Note pool sizing limits. The upper bound keeps the memory pinned per queue
// within reason; a pool size must be a power of two between the two.
const (
	MinQueueNotes uint32 = 1
	MaxQueueNotes uint32 = 4096
)

// noteAllocator tracks the free note slots backing one queue. A set bit
// means the slot is free. allocate and release are the only mutators and
// share a single mutex, keeping concurrent posting paths correct without
// slowing down membership lookups.
type noteAllocator struct {
	mu       sync.Mutex
	capacity uint32
	free     uint32
	bitmap   []uint64
}

func newNoteAllocator(capacity uint32) (*noteAllocator, error) {
	if capacity < MinQueueNotes || capacity > MaxQueueNotes || bits.OnesCount32(capacity) != 1 {
		return nil, ErrInvalidSize
	}
	words := (capacity + 63) / 64
	a := &noteAllocator{
		capacity: capacity,
		free:     capacity,
		bitmap:   make([]uint64, words),
	}
	for i := range a.bitmap {
		a.bitmap[i] = ^uint64(0)
	}
	if rem := capacity % 64; rem != 0 {
		// Bits beyond capacity must never read as free.
		a.bitmap[words-1] = 1<<rem - 1
	}
	return a, nil
}

// allocate claims the lowest-numbered free slot. It reports false when the
// pool is exhausted; the pool never grows.
func (a *noteAllocator) allocate() (uint32, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, word := range a.bitmap {
		if word == 0 {
			continue
		}
		bit := uint32(bits.TrailingZeros64(word))
		a.bitmap[i] = word &^ (1 << bit)
		a.free--
		return uint32(i)*64 + bit, true
	}
	return 0, false
}

// release returns a slot to the pool. Releasing a slot that is already free
// is reported as an error and leaves the pool untouched.
func (a *noteAllocator) release(slot uint32) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if slot >= a.capacity {
		return ErrNoteNotClaimed
	}
	word, bit := slot/64, slot%64
	if a.bitmap[word]&(1<<bit) != 0 {
		return ErrNoteNotClaimed
	}
	a.bitmap[word] |= 1 << bit
	a.free++
	return nil
}

// outstanding reports how many slots are currently claimed.
func (a *noteAllocator) outstanding() uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.capacity - a.free
}

func (a *noteAllocator) size() uint32 { return a.capacity }
