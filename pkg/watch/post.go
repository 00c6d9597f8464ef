package watch

// Post fans the record out to every watch registered on the list under the
// given id. cred is the producer's credential token, forwarded untouched to
// the list's Authorizer. Delivery is best-effort and never blocks the
// caller: a record is dropped for a queue that is unsized, cleared, or
// detached, rejected by the queue's filter, or — setting the queue's sticky
// overrun flag — whose note pool is exhausted. Post returns the number of
// queues the record was published to.
//
// Post runs on the event producer's goroutine and performs no unbounded
// work: it traverses a read-only membership snapshot and contends only on
// each queue's note allocator.
func (l *List) Post(r *Record, cred any, id uint64) int {
	if r == nil || r.Validate() != nil {
		return 0
	}
	snap := l.snapshot.Load()
	if snap == nil {
		return 0
	}

	delivered := 0
	for _, w := range *snap {
		if w.id != id || w.gone.Load() {
			continue
		}
		q := w.queue.Load()
		if q == nil {
			continue
		}
		if !q.Filter().Matches(r) {
			continue
		}
		if l.auth != nil && !l.auth.Authorize(w.credential, cred, r) {
			continue
		}
		if q.postOne(r, w.id) {
			delivered++
		}
	}
	return delivered
}

// postOne claims a note, encodes the record into it, and publishes it.
// Failures are absorbed: a cleared or detached queue skips silently, an
// exhausted pool sets the sticky overrun flag, and a transport rejection
// recycles the note.
func (q *Queue) postOne(r *Record, watchID uint64) bool {
	if q.cleared.Load() || !q.transport.Attached() {
		return false
	}
	alloc := q.alloc.Load()
	if alloc == nil {
		return false
	}
	if r.EncodedLen() > q.slotSize {
		return false
	}

	slot, ok := alloc.allocate()
	if !ok {
		q.overrun.Store(true)
		return false
	}

	buf := make([]byte, r.EncodedLen())
	if _, err := r.encode(buf, watchID); err != nil {
		_ = alloc.release(slot)
		return false
	}
	if err := q.transport.Write(slot, buf); err != nil {
		_ = alloc.release(slot)
		return false
	}
	if err := q.transport.Publish(slot); err != nil {
		_ = alloc.release(slot)
		return false
	}
	return true
}
