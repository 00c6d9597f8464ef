package watch

import "sync/atomic"

// Watch binds one watched object to one delivery queue. It is jointly owned
// by the object's List and by the queue; its links are severed only once the
// list side has released it, and a delivery traversing an older membership
// snapshot observes a watch marked gone rather than freed state.
type Watch struct {
	id         uint64
	credential any
	private    any

	queue    atomic.Pointer[Queue]
	attached atomic.Bool
	gone     atomic.Bool
	refs     atomic.Int64
}

// WatchOption configures a new Watch.
type WatchOption func(*Watch)

// WithCredential attaches the owner's credential token. The core never
// inspects it; it is handed unchanged to the list's Authorizer at delivery.
func WithCredential(cred any) WatchOption {
	return func(w *Watch) { w.credential = cred }
}

// WithPrivate attaches opaque data for the watched object's own use.
func WithPrivate(p any) WatchOption {
	return func(w *Watch) { w.private = p }
}

// NewWatch prepares a watch that will deliver into q under the given id. The
// id doubles as the delivery key — List.Post(id) only reaches watches
// registered under the same id — and its low byte is stamped into every
// delivered record. The watch is inert until added to a List.
func NewWatch(q *Queue, id uint64, opts ...WatchOption) (*Watch, error) {
	if q == nil {
		return nil, ErrNilQueue
	}
	w := &Watch{id: id}
	for _, opt := range opts {
		opt(w)
	}
	w.queue.Store(q.get())
	w.refs.Store(1)
	return w, nil
}

// ID returns the caller-chosen watch identifier.
func (w *Watch) ID() uint64 { return w.id }

// Credential returns the owner token supplied at creation.
func (w *Watch) Credential() any { return w.credential }

// Private returns the opaque per-object data supplied at creation.
func (w *Watch) Private() any { return w.private }

// Queue returns the delivery queue, or nil once the watch has been detached.
func (w *Watch) Queue() *Queue { return w.queue.Load() }

// Gone reports whether the watch has been removed from its object.
func (w *Watch) Gone() bool { return w.gone.Load() }

func (w *Watch) get() {
	w.refs.Add(1)
}

// put drops one reference. The watch holds no resources beyond its links, so
// the final put simply leaves it to the garbage collector; links were already
// severed during removal. Dropping below zero means a removal ran twice and
// the joint-ownership accounting is corrupt.
func (w *Watch) put() {
	if w.refs.Add(-1) < 0 {
		panic("watch: watch reference count underflow")
	}
}
