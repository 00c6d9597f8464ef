package notifyhub

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/watchkit/pkg/logger"
	"github.com/dmitrymomot/watchkit/pkg/watch"
)

// Hub manages one delivery queue per consumer key. A queue is created on
// first use, sized and filtered from the hub defaults, and evicted once the
// consumer stops touching it. The hub owns the glue between the watch core
// and its consumers so application code deals with keys, not queue lifecycle.
type Hub struct {
	cfg           Config
	log           *slog.Logger
	defaultFilter *watch.FilterSpec

	mu        sync.Mutex
	consumers map[string]*Consumer
	closed    bool

	janitorStop chan struct{}
	janitorDone chan struct{}
}

// Option configures a Hub.
type Option func(*Hub)

// WithConfig replaces the default configuration.
func WithConfig(cfg Config) Option {
	return func(h *Hub) {
		if cfg.QueueNotes > 0 {
			h.cfg.QueueNotes = cfg.QueueNotes
		}
		if cfg.SlotSize > 0 {
			h.cfg.SlotSize = cfg.SlotSize
		}
		if cfg.IdleTTL > 0 {
			h.cfg.IdleTTL = cfg.IdleTTL
		}
		if cfg.SweepInterval > 0 {
			h.cfg.SweepInterval = cfg.SweepInterval
		}
	}
}

// WithLogger sets the hub logger.
func WithLogger(log *slog.Logger) Option {
	return func(h *Hub) {
		if log != nil {
			h.log = log
		}
	}
}

// WithDefaultFilter installs the given filter on every new queue. Consumers
// may still replace it per queue.
func WithDefaultFilter(spec watch.FilterSpec) Option {
	return func(h *Hub) { h.defaultFilter = &spec }
}

// New creates a hub and starts its idle-eviction janitor. Close must be
// called to stop it.
func New(opts ...Option) *Hub {
	h := &Hub{
		cfg: Config{
			QueueNotes:    64,
			SlotSize:      watch.DefaultSlotSize,
			IdleTTL:       10 * time.Minute,
			SweepInterval: time.Minute,
		},
		log:         slog.Default(),
		consumers:   make(map[string]*Consumer),
		janitorStop: make(chan struct{}),
		janitorDone: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}

	go h.janitor()
	return h
}

// Consumer returns the consumer registered under key, creating it — with a
// freshly sized queue and the hub's default filter — on first use.
func (h *Hub) Consumer(ctx context.Context, key string) (*Consumer, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrHubClosed
	}
	if c, ok := h.consumers[key]; ok {
		c.touch()
		return c, nil
	}

	c, err := newConsumer(ctx, key, h.cfg, h.defaultFilter)
	if err != nil {
		return nil, err
	}
	h.consumers[key] = c

	h.log.LogAttrs(ctx, slog.LevelInfo, "consumer queue created",
		logger.Component("notifyhub"),
		logger.ConsumerKey(key),
		logger.QueueID(c.ID()),
		logger.NoteCount(h.cfg.QueueNotes),
	)
	return c, nil
}

// Lookup returns the consumer for key without creating one.
func (h *Hub) Lookup(key string) (*Consumer, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrHubClosed
	}
	c, ok := h.consumers[key]
	if !ok {
		return nil, ErrConsumerNotFound
	}
	c.touch()
	return c, nil
}

// Subscribe binds the consumer's queue to a watched object's list. The
// consumer is created on first use. id is the caller-chosen watch id whose
// low byte is stamped into delivered records.
func (h *Hub) Subscribe(ctx context.Context, key string, list *watch.List, id uint64, opts ...watch.WatchOption) error {
	c, err := h.Consumer(ctx, key)
	if err != nil {
		return err
	}
	return c.subscribe(list, id, opts...)
}

// Unsubscribe removes the consumer's watch on the given list.
func (h *Hub) Unsubscribe(key string, list *watch.List, id uint64) error {
	c, err := h.Lookup(key)
	if err != nil {
		return err
	}
	return c.unsubscribe(list, id)
}

// Drop evicts the consumer: its watches are removed from their objects, the
// queue is cleared, and the transport detached. Records already published
// stay readable until drained.
func (h *Hub) Drop(key string) error {
	h.mu.Lock()
	c, ok := h.consumers[key]
	if ok {
		delete(h.consumers, key)
	}
	h.mu.Unlock()

	if !ok {
		return ErrConsumerNotFound
	}

	c.shutdown()
	h.log.LogAttrs(context.Background(), slog.LevelInfo, "consumer queue dropped",
		logger.Component("notifyhub"),
		logger.ConsumerKey(key),
		logger.QueueID(c.ID()),
	)
	return nil
}

// Len reports the number of live consumers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.consumers)
}

// Close evicts every consumer and stops the janitor. Close is idempotent.
func (h *Hub) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	evicted := make([]*Consumer, 0, len(h.consumers))
	for _, c := range h.consumers {
		evicted = append(evicted, c)
	}
	clear(h.consumers)
	h.mu.Unlock()

	close(h.janitorStop)
	<-h.janitorDone

	for _, c := range evicted {
		c.shutdown()
	}
	return nil
}

// janitor periodically evicts consumers whose queues nobody has touched for
// IdleTTL. A consumer holding no watches and no reader is dead weight:
// its notes would pile up to overrun anyway.
func (h *Hub) janitor() {
	defer close(h.janitorDone)
	ticker := time.NewTicker(h.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.janitorStop:
			return
		case <-ticker.C:
			h.sweep()
		}
	}
}

func (h *Hub) sweep() {
	cutoff := time.Now().Add(-h.cfg.IdleTTL)

	h.mu.Lock()
	var idle []*Consumer
	for key, c := range h.consumers {
		if c.lastSeen().Before(cutoff) {
			idle = append(idle, c)
			delete(h.consumers, key)
		}
	}
	h.mu.Unlock()

	for _, c := range idle {
		c.shutdown()
		h.log.LogAttrs(context.Background(), slog.LevelInfo, "idle consumer evicted",
			logger.Component("notifyhub"),
			logger.ConsumerKey(c.Key()),
			logger.QueueID(c.ID()),
		)
	}
}

// ignoreNotFound drops the not-found errors that are expected when an object
// was torn down before the consumer side cleaned up.
func ignoreNotFound(err error) error {
	if errors.Is(err, watch.ErrWatchNotFound) {
		return nil
	}
	return err
}
