// Package pipebuf provides the in-memory transport for watch queues: a
// slot-addressed buffer the delivery path writes encoded records into and a
// consumer drains with Next.
//
// The buffer holds exactly the slots the queue's note pool reserved, so flow
// control is entirely the pool's: a slot stays claimed from the moment the
// delivery path allocates it until the consumer decodes it, at which point
// it flows back through the release callback. There is no hidden buffering
// and nothing ever blocks the producing side.
//
// Usage:
//
//	buf := pipebuf.New()
//	q, _ := watch.NewQueue(buf)
//	_ = q.SetSize(ctx, 16)
//
//	for {
//	    rec, err := buf.Next(ctx)
//	    if err != nil {
//	        break // detached or cancelled
//	    }
//	    handle(rec)
//	}
//
// Detach disconnects the consumer side; already-published records remain
// readable until drained, after which Next reports ErrDetached.
package pipebuf
