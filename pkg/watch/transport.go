package watch

import "context"

// Transport is the byte-stream buffer a queue publishes notes into. The core
// treats it purely as a sink: Reserve negotiates backing for the note pool,
// Write fills a claimed slot, Publish hands it to the consumer side, and
// Attached reports whether a consumer is still connected.
//
// Publish transfers ownership of the slot to the transport. The transport
// returns the slot through the release callback passed to Reserve once its
// consumer is done with it — or immediately, if it copies the bytes out.
// Write and Publish must not block; a transport that cannot accept a slot
// returns an error and the queue recycles the note.
type Transport interface {
	// Reserve confirms the transport can back n slots of size bytes each.
	// It is called by Queue.SetSize and may replace an earlier reservation
	// as long as no slot is outstanding. The release callback returns a
	// published slot to the queue's note pool.
	Reserve(ctx context.Context, n uint32, size int, release func(slot uint32)) error

	// Write stores the encoded record into a claimed slot.
	Write(slot uint32, p []byte) error

	// Publish makes a written slot visible to the consumer.
	Publish(slot uint32) error

	// Attached reports whether the consumer side is still connected.
	Attached() bool
}
