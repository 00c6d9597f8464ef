package watch

import (
	"context"
	"sync"
	"sync/atomic"
)

// DefaultSlotSize is the note slot size used when no option overrides it.
const DefaultSlotSize = 256

// Queue is a subscriber's delivery endpoint: a fixed pool of note slots, an
// optional type filter, and the transport the consumer drains. A queue
// starts unsized; SetSize must run before records can be delivered, and
// deliveries targeting an unsized queue are skipped silently.
type Queue struct {
	transport Transport
	slotSize  int

	alloc   atomic.Pointer[noteAllocator]
	filter  atomic.Pointer[TypeFilter]
	cleared atomic.Bool
	overrun atomic.Bool

	mu      sync.Mutex
	watches map[*Watch]struct{}

	refs atomic.Int64
}

// QueueOption configures a Queue.
type QueueOption func(*Queue)

// WithSlotSize overrides the note slot size. Records that do not fit a slot
// are dropped at delivery. Values smaller than the record header are ignored.
func WithSlotSize(n int) QueueOption {
	return func(q *Queue) {
		if n >= headerSize {
			q.slotSize = n
		}
	}
}

// NewQueue creates a delivery endpoint over the given transport.
func NewQueue(transport Transport, opts ...QueueOption) (*Queue, error) {
	if transport == nil {
		return nil, ErrNilTransport
	}
	q := &Queue{
		transport: transport,
		slotSize:  DefaultSlotSize,
		watches:   make(map[*Watch]struct{}),
	}
	q.refs.Store(1)
	for _, opt := range opts {
		opt(q)
	}
	return q, nil
}

// SetSize replaces the note pool with one of n slots, asking the transport
// to confirm it can back them first. n must be a power of two within
// [MinQueueNotes, MaxQueueNotes]. Resizing is rejected with ErrQueueBusy
// while any watch feeds the queue or any note is outstanding, so a record in
// flight can never land in a recycled pool.
func (q *Queue) SetSize(ctx context.Context, n uint32) error {
	alloc, err := newNoteAllocator(n)
	if err != nil {
		return err
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.watches) > 0 {
		return ErrQueueBusy
	}
	if cur := q.alloc.Load(); cur != nil && cur.outstanding() > 0 {
		return ErrQueueBusy
	}
	if err := q.transport.Reserve(ctx, n, q.slotSize, q.releaseNote); err != nil {
		return err
	}
	q.alloc.Store(alloc)
	return nil
}

// Size reports the note pool capacity, zero while unsized.
func (q *Queue) Size() uint32 {
	if a := q.alloc.Load(); a != nil {
		return a.size()
	}
	return 0
}

// Outstanding reports how many notes are claimed but not yet recycled.
func (q *Queue) Outstanding() uint32 {
	if a := q.alloc.Load(); a != nil {
		return a.outstanding()
	}
	return 0
}

// releaseNote is handed to the transport so consumed slots flow back into
// the note pool.
func (q *Queue) releaseNote(slot uint32) {
	if a := q.alloc.Load(); a != nil {
		_ = a.release(slot)
	}
}

// SetFilter validates and installs a type filter. The new filter is built in
// full before it is published; a delivery that already loaded the previous
// filter keeps using it. A spec with no criteria removes the filter.
func (q *Queue) SetFilter(spec FilterSpec) error {
	f, err := compileFilter(spec)
	if err != nil {
		return err
	}
	q.filter.Store(f)
	return nil
}

// Filter returns the active filter, nil when the queue accepts everything.
func (q *Queue) Filter() *TypeFilter { return q.filter.Load() }

// Clear detaches the queue from its transport: subsequent deliveries become
// silent no-ops. Watches feeding the queue are not removed; they keep
// resolving to the cleared queue until explicitly unwatched or their object
// is torn down.
func (q *Queue) Clear() { q.cleared.Store(true) }

// Cleared reports whether the queue has been detached from its transport.
func (q *Queue) Cleared() bool { return q.cleared.Load() }

// Overrun reports the sticky overrun condition: at least one record was
// dropped because the note pool was exhausted. It stays set until the
// consumer acknowledges it.
func (q *Queue) Overrun() bool { return q.overrun.Load() }

// AckOverrun clears the overrun condition.
func (q *Queue) AckOverrun() { q.overrun.Store(false) }

// Watching reports how many watches currently feed the queue.
func (q *Queue) Watching() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.watches)
}

func (q *Queue) get() *Queue {
	q.refs.Add(1)
	return q
}

func (q *Queue) put() {
	if q.refs.Add(-1) < 0 {
		panic("watch: queue reference count underflow")
	}
}
