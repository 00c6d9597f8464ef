package pipebuf_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/watchkit/pkg/pipebuf"
	"github.com/dmitrymomot/watchkit/pkg/watch"
)

// rawRecord builds the wire image of a record the way the delivery path
// writes it, for tests that drive Write and Publish directly.
func rawRecord(r watch.Record) []byte {
	b := make([]byte, 8+len(r.Data))
	word := uint32(r.Type)&0x00ffffff | uint32(r.Subtype)<<24
	b[0], b[1], b[2], b[3] = byte(word), byte(word>>8), byte(word>>16), byte(word>>24)
	b[4], b[5], b[6], b[7] = byte(r.Info), byte(r.Info>>8), byte(r.Info>>16), byte(r.Info>>24)
	copy(b[8:], r.Data)
	return b
}

func TestBuffer_Reserve(t *testing.T) {
	t.Parallel()

	release := func(uint32) {}

	t.Run("validates the request", func(t *testing.T) {
		b := pipebuf.New()
		assert.ErrorIs(t, b.Reserve(context.Background(), 0, 64, release), pipebuf.ErrInvalidReserve)
		assert.ErrorIs(t, b.Reserve(context.Background(), watch.MaxQueueNotes+1, 64, release), pipebuf.ErrInvalidReserve)
		assert.ErrorIs(t, b.Reserve(context.Background(), 4, 0, release), pipebuf.ErrInvalidReserve)
		assert.ErrorIs(t, b.Reserve(context.Background(), 4, 64, nil), pipebuf.ErrInvalidReserve)
	})

	t.Run("rejects while published slots pend", func(t *testing.T) {
		b := pipebuf.New()
		require.NoError(t, b.Reserve(context.Background(), 4, 64, release))
		require.NoError(t, b.Write(0, rawRecord(watch.Record{Type: 1})))
		require.NoError(t, b.Publish(0))

		assert.ErrorIs(t, b.Reserve(context.Background(), 8, 64, release), pipebuf.ErrBusy)
	})

	t.Run("rejects after detach", func(t *testing.T) {
		b := pipebuf.New()
		b.Detach()
		assert.ErrorIs(t, b.Reserve(context.Background(), 4, 64, release), pipebuf.ErrDetached)
	})
}

func TestBuffer_WritePublish(t *testing.T) {
	t.Parallel()

	release := func(uint32) {}

	t.Run("requires a reservation", func(t *testing.T) {
		b := pipebuf.New()
		assert.ErrorIs(t, b.Write(0, []byte{1}), pipebuf.ErrNotReserved)
		assert.ErrorIs(t, b.Publish(0), pipebuf.ErrNotReserved)
	})

	t.Run("bounds checks the slot", func(t *testing.T) {
		b := pipebuf.New()
		require.NoError(t, b.Reserve(context.Background(), 4, 64, release))
		assert.ErrorIs(t, b.Write(4, []byte{1}), pipebuf.ErrBadSlot)
		assert.ErrorIs(t, b.Publish(4), pipebuf.ErrBadSlot)
	})

	t.Run("rejects writes beyond the slot size", func(t *testing.T) {
		b := pipebuf.New()
		require.NoError(t, b.Reserve(context.Background(), 4, 16, release))
		assert.ErrorIs(t, b.Write(0, make([]byte, 17)), pipebuf.ErrShortSlot)
	})
}

func TestBuffer_Next(t *testing.T) {
	t.Parallel()

	t.Run("delivers published records in order", func(t *testing.T) {
		var mu sync.Mutex
		var released []uint32
		b := pipebuf.New()
		require.NoError(t, b.Reserve(context.Background(), 4, 64, func(slot uint32) {
			mu.Lock()
			released = append(released, slot)
			mu.Unlock()
		}))

		for i := uint32(0); i < 3; i++ {
			require.NoError(t, b.Write(i, rawRecord(watch.Record{Type: 2, Subtype: uint8(i), Info: uint32(8) << 16})))
			require.NoError(t, b.Publish(i))
		}
		assert.Equal(t, 3, b.Pending())

		for i := uint8(0); i < 3; i++ {
			rec, err := b.Next(context.Background())
			require.NoError(t, err)
			assert.Equal(t, i, rec.Subtype)
		}

		mu.Lock()
		assert.Equal(t, []uint32{0, 1, 2}, released, "consumed slots flow back to the pool")
		mu.Unlock()
		assert.Equal(t, 0, b.Pending())
	})

	t.Run("honours context cancellation", func(t *testing.T) {
		b := pipebuf.New()
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err := b.Next(ctx)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestBuffer_TryNext(t *testing.T) {
	t.Parallel()

	b := pipebuf.New()
	require.NoError(t, b.Reserve(context.Background(), 4, 64, func(uint32) {}))

	_, ok, err := b.TryNext()
	require.NoError(t, err)
	assert.False(t, ok, "empty buffer")

	require.NoError(t, b.Write(0, rawRecord(watch.Record{Type: 2, Info: uint32(8) << 16})))
	require.NoError(t, b.Publish(0))

	rec, ok, err := b.TryNext()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, watch.Type(2), rec.Type)
}

func TestBuffer_Detach(t *testing.T) {
	t.Parallel()

	t.Run("publish fails after detach", func(t *testing.T) {
		b := pipebuf.New()
		require.NoError(t, b.Reserve(context.Background(), 4, 64, func(uint32) {}))
		require.NoError(t, b.Write(0, rawRecord(watch.Record{Type: 1, Info: uint32(8) << 16})))

		b.Detach()
		assert.False(t, b.Attached())
		assert.ErrorIs(t, b.Publish(0), pipebuf.ErrDetached)
	})

	t.Run("published records drain before ErrDetached", func(t *testing.T) {
		b := pipebuf.New()
		require.NoError(t, b.Reserve(context.Background(), 4, 64, func(uint32) {}))
		require.NoError(t, b.Write(0, rawRecord(watch.Record{Type: 2, Info: uint32(8) << 16})))
		require.NoError(t, b.Publish(0))

		b.Detach()

		rec, err := b.Next(context.Background())
		require.NoError(t, err)
		assert.Equal(t, watch.Type(2), rec.Type)

		_, err = b.Next(context.Background())
		assert.ErrorIs(t, err, pipebuf.ErrDetached)
	})

	t.Run("idempotent", func(t *testing.T) {
		b := pipebuf.New()
		b.Detach()
		assert.NotPanics(t, func() { b.Detach() })
	})

	t.Run("delivery path recycles notes on detached buffer", func(t *testing.T) {
		buf := pipebuf.New()
		q, err := watch.NewQueue(buf)
		require.NoError(t, err)
		require.NoError(t, q.SetSize(context.Background(), 4))

		list := watch.NewList()
		_, err = watch.Subscribe(list, q, 1)
		require.NoError(t, err)

		buf.Detach()
		assert.Equal(t, 0, list.Post(&watch.Record{Type: 2}, nil, 1))
		assert.Equal(t, uint32(0), q.Outstanding())
	})
}

func TestBuffer_EndToEnd(t *testing.T) {
	t.Parallel()

	buf := pipebuf.New()
	q, err := watch.NewQueue(buf)
	require.NoError(t, err)
	require.NoError(t, q.SetSize(context.Background(), 2))

	list := watch.NewList()
	_, err = watch.Subscribe(list, q, 9)
	require.NoError(t, err)

	// Fill the pool, overrun, then drain and post again: the note pool is
	// the only buffering between producer and consumer.
	require.Equal(t, 1, list.Post(&watch.Record{Type: 2, Data: []byte("a")}, nil, 9))
	require.Equal(t, 1, list.Post(&watch.Record{Type: 2, Data: []byte("b")}, nil, 9))
	require.Equal(t, 0, list.Post(&watch.Record{Type: 2, Data: []byte("c")}, nil, 9))
	require.True(t, q.Overrun())

	rec, err := buf.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), rec.Data)
	assert.Equal(t, uint8(9), rec.WatchID())

	require.Equal(t, 1, list.Post(&watch.Record{Type: 2, Data: []byte("d")}, nil, 9))

	rec, err = buf.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("b"), rec.Data)
	rec, err = buf.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("d"), rec.Data)
}
