// Package notifyhub manages watch queues per consumer key.
//
// The hub creates a queue and in-memory transport on first use of a key,
// applies default sizing and filtering, binds the queue to watched objects
// on request, and evicts consumers nobody has touched for a configurable
// idle period. It is the piece that turns the low-level watch core into
// something an application can hand out to users or components by name.
//
// # Usage
//
//	hub := notifyhub.New(notifyhub.WithConfig(cfg))
//	defer hub.Close()
//
//	mounts := watch.NewList()
//	_ = hub.Subscribe(ctx, "user-42", mounts, watchID)
//
//	c, _ := hub.Lookup("user-42")
//	for {
//	    rec, err := c.Next(ctx)
//	    if err != nil {
//	        break
//	    }
//	    handle(rec)
//	}
//
// # HTTP surface
//
// Handler exposes the hub over HTTP: an SSE stream of a consumer's
// notifications (overrun surfaced as its own event type), filter
// installation from a YAML spec, queue statistics, and consumer removal.
package notifyhub
