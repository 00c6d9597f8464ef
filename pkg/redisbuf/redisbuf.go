package redisbuf

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/watchkit/pkg/logger"
	"github.com/dmitrymomot/watchkit/pkg/watch"
)

// Compile-time interface satisfaction check.
var _ watch.Transport = (*Bridge)(nil)

// StreamClient is the slice of the go-redis API the bridge needs. Both
// *redis.Client and redis.UniversalClient satisfy it.
type StreamClient interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// Bridge forwards notifications published by a watch queue into a capped
// Redis stream, so out-of-process consumers can follow a process's watched
// objects with XREAD.
//
// The delivery path never touches the network: Publish hands the slot to a
// forwarder goroutine and returns. The stream is capped near the note pool
// size, keeping the non-durability contract — a stalled reader loses old
// entries rather than growing the stream without bound.
type Bridge struct {
	client      StreamClient
	stream      string
	log         *slog.Logger
	timeout     time.Duration
	capOverride int64

	mu      sync.Mutex
	slots   [][]byte
	lens    []int
	release func(slot uint32)
	maxLen  int64

	pending chan uint32
	done    chan struct{}
	wg      sync.WaitGroup
	closed  atomic.Bool

	forwarded atomic.Int64
	failed    atomic.Int64
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithLogger sets the logger used for forwarding failures.
func WithLogger(log *slog.Logger) Option {
	return func(b *Bridge) {
		if log != nil {
			b.log = log
		}
	}
}

// WithMaxLen overrides the stream cap. By default the cap follows the
// reserved note count, tracking it across re-reservations.
func WithMaxLen(n int64) Option {
	return func(b *Bridge) {
		if n > 0 {
			b.capOverride = n
		}
	}
}

// WithForwardTimeout bounds each XADD call. Default is 5 seconds.
func WithForwardTimeout(d time.Duration) Option {
	return func(b *Bridge) {
		if d > 0 {
			b.timeout = d
		}
	}
}

// New creates a bridge appending to the named stream. Close must be called
// to stop the forwarder goroutine.
func New(client StreamClient, stream string, opts ...Option) (*Bridge, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	if stream == "" {
		return nil, ErrEmptyStream
	}

	b := &Bridge{
		client:  client,
		stream:  stream,
		log:     slog.Default(),
		timeout: 5 * time.Second,
		pending: make(chan uint32, watch.MaxQueueNotes),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}

	b.wg.Add(1)
	go b.forward()
	return b, nil
}

// Reserve backs n slots of the given size. Called by Queue.SetSize.
func (b *Bridge) Reserve(_ context.Context, n uint32, size int, release func(slot uint32)) error {
	if n == 0 || n > watch.MaxQueueNotes || size <= 0 || release == nil {
		return ErrInvalidReserve
	}
	if b.closed.Load() {
		return ErrClosed
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.pending) > 0 {
		return ErrBusy
	}
	b.slots = make([][]byte, n)
	for i := range b.slots {
		b.slots[i] = make([]byte, size)
	}
	b.lens = make([]int, n)
	b.release = release
	if b.capOverride > 0 {
		b.maxLen = b.capOverride
	} else {
		b.maxLen = int64(n)
	}
	return nil
}

// Write stores an encoded record into a claimed slot.
func (b *Bridge) Write(slot uint32, p []byte) error {
	if b.closed.Load() {
		return ErrClosed
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	switch {
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

// Publish hands the slot to the forwarder. It never blocks: a full forward
// channel rejects the publication and the queue recycles the note.
func (b *Bridge) Publish(slot uint32) error {
	if b.closed.Load() {
		return ErrClosed
	}

	b.mu.Lock()
	if b.slots == nil {
		b.mu.Unlock()
		return ErrNotReserved
	}
	if int(slot) >= len(b.slots) {
		b.mu.Unlock()
		return ErrBadSlot
	}
	b.mu.Unlock()

	select {
	case b.pending <- slot:
		return nil
	default:
		return ErrBusy
	}
}

// Attached reports whether the bridge still forwards to Redis.
func (b *Bridge) Attached() bool { return !b.closed.Load() }

// Forwarded reports how many records reached the stream.
func (b *Bridge) Forwarded() int64 { return b.forwarded.Load() }

// Failed reports how many records were lost to XADD errors.
func (b *Bridge) Failed() int64 { return b.failed.Load() }

// Close detaches the bridge and stops the forwarder once queued slots have
// been flushed. Subsequent publishes fail, so delivering queues recycle
// their notes. Close is idempotent.
func (b *Bridge) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(b.done)
	b.wg.Wait()
	return nil
}

// forward drains published slots into the stream. The slot is recycled no
// matter how the XADD went; a failed append is logged and counted, never
// retried — delivery was best-effort the moment the record was posted.
func (b *Bridge) forward() {
	defer b.wg.Done()
	for {
		select {
		case slot := <-b.pending:
			b.forwardOne(slot)
		case <-b.done:
			for {
				select {
				case slot := <-b.pending:
					b.forwardOne(slot)
				default:
					return
				}
			}
		}
	}
}

func (b *Bridge) forwardOne(slot uint32) {
	b.mu.Lock()
	if int(slot) >= len(b.slots) {
		b.mu.Unlock()
		return
	}
	raw := append([]byte(nil), b.slots[slot][:b.lens[slot]]...)
	release := b.release
	maxLen := b.maxLen
	b.mu.Unlock()

	if release != nil {
		defer release(slot)
	}

	rec, err := watch.Decode(raw)
	if err != nil {
		b.failed.Add(1)
		b.log.LogAttrs(context.Background(), slog.LevelWarn, "dropping undecodable slot",
			logger.Component("redisbuf"),
			logger.Error(err),
		)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()

	err = b.client.XAdd(ctx, &redis.XAddArgs{
		Stream: b.stream,
		MaxLen: maxLen,
		Approx: true,
		Values: map[string]any{
			"record":   raw,
			"type":     uint32(rec.Type),
			"subtype":  rec.Subtype,
			"watch_id": rec.WatchID(),
		},
	}).Err()
	if err != nil {
		b.failed.Add(1)
		b.log.LogAttrs(ctx, slog.LevelWarn, "failed to append notification to stream",
			logger.Component("redisbuf"),
			slog.String("stream", b.stream),
			logger.EventType(uint32(rec.Type)),
			logger.Error(err),
		)
		return
	}
	b.forwarded.Add(1)
}
