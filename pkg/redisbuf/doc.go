// Package redisbuf bridges in-process watch notifications to out-of-process
// consumers through a capped Redis stream.
//
// A Bridge satisfies watch.Transport, so it plugs into a queue exactly like
// the in-memory pipebuf. Published notes are handed to a forwarder goroutine
// that XADDs them to the configured stream and recycles the slot; the
// delivery path itself never performs network I/O, preserving the core's
// never-block contract.
//
// The stream is capped (MAXLEN ~, defaulting to the note pool size), so a
// reader that falls behind loses old entries. Notifications were never
// durable to begin with; the bridge keeps that property across the process
// boundary.
//
// # Usage
//
//	client, _ := redis.Connect(ctx, cfg)
//	bridge, _ := redisbuf.New(client, "notifications:mounts")
//	defer bridge.Close()
//
//	q, _ := watch.NewQueue(bridge)
//	_ = q.SetSize(ctx, 64)
//	_, _ = watch.Subscribe(mounts, q, id)
//
// Remote consumers follow the stream with XREAD and decode the "record"
// field with watch.Decode.
package redisbuf
