// Package watch provides an in-process publish/subscribe notification core:
// arbitrary objects can be watched, and events on a watched object are fanned
// out as compact fixed-layout records into each subscriber's bounded queue.
//
// The package is organised around four pieces:
//
//   - List   — the set of watches attached to one watched object
//   - Watch  — one subscription binding an object to a delivery queue
//   - Queue  — a subscriber's endpoint: note pool, optional filter, transport
//   - Record — the fixed-layout notification payload
//
// Producers call List.Post on whatever goroutine the event occurs on; the
// delivery path never blocks, never sleeps, and never queues beyond the
// note pool's fixed capacity. Slow consumers lose records and learn about it
// through the queue's sticky overrun flag rather than slowing producers down.
//
// # Concurrency
//
// Membership and filters follow a read-mostly discipline: Post traverses an
// atomically published snapshot of the watch list and loads the queue's
// filter through an atomic pointer, so unrelated objects' event traffic
// never serialises on a shared lock. Mutations (Add, Remove, TearDown,
// SetFilter, SetSize) take the owning structure's lock and republish.
// Watches are reference counted by the list and the queue jointly; a removed
// watch is only marked gone, so a delivery still traversing an older
// snapshot observes a detached watch, never freed state.
//
// # Usage
//
//	buf := pipebuf.New()
//	q, _ := watch.NewQueue(buf)
//	_ = q.SetSize(ctx, 64)
//	_ = q.SetFilter(watch.FilterSpec{Criteria: []watch.Criteria{{Type: mountEvent}}})
//
//	list := watch.NewList()
//	w, _ := watch.Subscribe(list, q, objectID)
//
//	// On the producing side, whenever the object changes:
//	list.Post(&watch.Record{Type: mountEvent, Subtype: added}, nil, objectID)
//
//	// The consumer drains decoded records from the transport:
//	rec, _ := buf.Next(ctx)
//
// The transport behind a queue is pluggable; see pipebuf for the in-memory
// implementation and redisbuf for a Redis Streams bridge.
package watch
