package watch

import (
	"sync"
	"sync/atomic"
)

// Authorizer decides whether a record posted under the producer credential
// may be delivered to a watch owned by the watch credential. The core treats
// both tokens as opaque.
type Authorizer interface {
	Authorize(watchCred, postCred any, r *Record) bool
}

// AuthorizerFunc adapts a function to the Authorizer interface.
type AuthorizerFunc func(watchCred, postCred any, r *Record) bool

func (f AuthorizerFunc) Authorize(watchCred, postCred any, r *Record) bool {
	return f(watchCred, postCred, r)
}

// List is the set of watches attached to one watched object. The object owns
// it: create the list alongside the object and call TearDown when the object
// goes away. Membership edits take the list's own lock and republish a
// read-only snapshot, so delivery never contends with other objects or with
// membership changes.
type List struct {
	mu       sync.Mutex
	watchers []*Watch
	snapshot atomic.Pointer[[]*Watch]
	onRemove func(*Watch)
	auth     Authorizer
	torn     bool
}

// ListOption configures a List.
type ListOption func(*List)

// WithRemoveHook registers a callback invoked exactly once for every watch
// removed from the list, whether by Remove, TearDown, or a failed teardown
// race. The hook runs outside the list lock.
func WithRemoveHook(fn func(*Watch)) ListOption {
	return func(l *List) { l.onRemove = fn }
}

// WithAuthorizer installs a delivery-time authorization check. When set,
// every (watch, record) pair must pass it before a note is claimed.
func WithAuthorizer(a Authorizer) ListOption {
	return func(l *List) { l.auth = a }
}

// NewList creates an empty watch list.
func NewList(opts ...ListOption) *List {
	l := &List{}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Len reports the number of attached watches.
func (l *List) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.watchers)
}

// Add attaches a watch to the object. At most one watch per (object, queue)
// pair may exist: a duplicate is rejected with ErrAlreadyWatching and leaves
// the list unchanged. The list and the queue each take a strong reference on
// the watch.
func (l *List) Add(w *Watch) error {
	if w == nil {
		return ErrNilWatch
	}
	q := w.queue.Load()
	if q == nil {
		return ErrNilQueue
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.torn {
		return ErrObjectGone
	}
	for _, cur := range l.watchers {
		if cur.queue.Load() == q {
			return ErrAlreadyWatching
		}
	}
	if !w.attached.CompareAndSwap(false, true) {
		return ErrAlreadyWatching
	}

	l.watchers = append(l.watchers, w)
	l.publishSnapshot()

	w.get() // queue-side reference
	q.mu.Lock()
	q.watches[w] = struct{}{}
	q.mu.Unlock()
	return nil
}

// Subscribe creates a watch delivering the object's notifications into q
// under the given id and attaches it in one step.
func Subscribe(l *List, q *Queue, id uint64, opts ...WatchOption) (*Watch, error) {
	w, err := NewWatch(q, id, opts...)
	if err != nil {
		return nil, err
	}
	if err := l.Add(w); err != nil {
		return nil, err
	}
	return w, nil
}

// Remove detaches the watch identified by the (queue, id) pair. The remove
// hook fires once, and both the list and the queue drop their references.
func (l *List) Remove(q *Queue, id uint64) error {
	if q == nil {
		return ErrNilQueue
	}

	l.mu.Lock()
	idx := -1
	for i, w := range l.watchers {
		if w.id == id && w.queue.Load() == q {
			idx = i
			break
		}
	}
	if idx < 0 {
		l.mu.Unlock()
		return ErrWatchNotFound
	}
	w := l.watchers[idx]
	l.watchers = append(l.watchers[:idx], l.watchers[idx+1:]...)
	l.publishSnapshot()
	l.mu.Unlock()

	l.releaseWatch(w)
	return nil
}

// TearDown removes every watch; the watched object calls it on destruction.
// Consumers receive no farewell record: their watches simply stop producing
// and resolve to a detached state. Posting concurrently with TearDown is
// safe — an in-flight delivery either completes against the old snapshot or
// finds the watch marked gone. Once torn down the list rejects new watches.
func (l *List) TearDown() {
	l.mu.Lock()
	removed := l.watchers
	l.watchers = nil
	l.torn = true
	l.publishSnapshot()
	l.mu.Unlock()

	for _, w := range removed {
		l.releaseWatch(w)
	}
}

// publishSnapshot rebuilds the read-only traversal snapshot. Callers hold l.mu.
func (l *List) publishSnapshot() {
	snap := make([]*Watch, len(l.watchers))
	copy(snap, l.watchers)
	l.snapshot.Store(&snap)
}

// releaseWatch completes a removal outside the list lock: it marks the watch
// gone, fires the remove hook, unlinks the queue side, and drops both strong
// references. The gone flag guarantees all of that happens exactly once even
// if removal races teardown.
func (l *List) releaseWatch(w *Watch) {
	if !w.gone.CompareAndSwap(false, true) {
		return
	}
	if l.onRemove != nil {
		l.onRemove(w)
	}
	if q := w.queue.Swap(nil); q != nil {
		q.mu.Lock()
		delete(q.watches, w)
		q.mu.Unlock()
		q.put()
	}
	w.put() // queue-side reference
	w.put() // list-side reference
}
