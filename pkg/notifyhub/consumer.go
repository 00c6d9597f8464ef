package notifyhub

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/watchkit/pkg/pipebuf"
	"github.com/dmitrymomot/watchkit/pkg/watch"
)

// Consumer is one subscriber's view of the hub: a queue, its in-memory
// transport, and the set of objects it watches.
type Consumer struct {
	id  uuid.UUID
	key string
	buf *pipebuf.Buffer
	q   *watch.Queue

	mu   sync.Mutex
	subs []subscription
	seen time.Time
}

type subscription struct {
	list *watch.List
	id   uint64
}

func newConsumer(ctx context.Context, key string, cfg Config, filter *watch.FilterSpec) (*Consumer, error) {
	buf := pipebuf.New()
	q, err := watch.NewQueue(buf, watch.WithSlotSize(cfg.SlotSize))
	if err != nil {
		return nil, err
	}
	if err := q.SetSize(ctx, cfg.QueueNotes); err != nil {
		return nil, err
	}
	if filter != nil {
		if err := q.SetFilter(*filter); err != nil {
			return nil, err
		}
	}

	return &Consumer{
		id:   uuid.New(),
		key:  key,
		buf:  buf,
		q:    q,
		seen: time.Now(),
	}, nil
}

// ID returns the queue's unique identity.
func (c *Consumer) ID() uuid.UUID { return c.id }

// Key returns the consumer key the hub registered this queue under.
func (c *Consumer) Key() string { return c.key }

// Queue exposes the underlying delivery queue.
func (c *Consumer) Queue() *watch.Queue { return c.q }

// Next blocks until a notification is delivered or ctx is cancelled.
func (c *Consumer) Next(ctx context.Context) (watch.Record, error) {
	c.touch()
	return c.buf.Next(ctx)
}

// TryNext returns a pending notification without blocking.
func (c *Consumer) TryNext() (watch.Record, bool, error) {
	c.touch()
	return c.buf.TryNext()
}

// Pending reports delivered-but-unread notifications.
func (c *Consumer) Pending() int { return c.buf.Pending() }

// Overrun reports whether notifications were dropped since the last Ack.
func (c *Consumer) Overrun() bool { return c.q.Overrun() }

// AckOverrun acknowledges the overrun condition.
func (c *Consumer) AckOverrun() { c.q.AckOverrun() }

// SetFilter replaces the queue's filter.
func (c *Consumer) SetFilter(spec watch.FilterSpec) error {
	c.touch()
	return c.q.SetFilter(spec)
}

func (c *Consumer) subscribe(list *watch.List, id uint64, opts ...watch.WatchOption) error {
	if _, err := watch.Subscribe(list, c.q, id, opts...); err != nil {
		return err
	}
	c.mu.Lock()
	c.subs = append(c.subs, subscription{list: list, id: id})
	c.seen = time.Now()
	c.mu.Unlock()
	return nil
}

func (c *Consumer) unsubscribe(list *watch.List, id uint64) error {
	if err := list.Remove(c.q, id); err != nil {
		return err
	}
	c.mu.Lock()
	for i, s := range c.subs {
		if s.list == list && s.id == id {
			c.subs = append(c.subs[:i], c.subs[i+1:]...)
			break
		}
	}
	c.mu.Unlock()
	return nil
}

// shutdown detaches the consumer from every watched object and from its
// transport. Objects torn down in the meantime already removed their side.
func (c *Consumer) shutdown() {
	c.mu.Lock()
	subs := c.subs
	c.subs = nil
	c.mu.Unlock()

	for _, s := range subs {
		_ = ignoreNotFound(s.list.Remove(c.q, s.id))
	}
	c.q.Clear()
	c.buf.Detach()
}

func (c *Consumer) touch() {
	c.mu.Lock()
	c.seen = time.Now()
	c.mu.Unlock()
}

func (c *Consumer) lastSeen() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seen
}
