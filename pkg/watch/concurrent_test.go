package watch_test

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/watchkit/pkg/watch"
)

// Teardown racing delivery: posts either land against the old membership
// snapshot or find the watch gone, never freed state, and hooks fire once.
func TestList_TearDownDuringPost(t *testing.T) {
	t.Parallel()

	const watches = 8

	for _i := 0; _i < 25; _i++ {
		var removed atomic.Int32
		list := watch.NewList(watch.WithRemoveHook(func(*watch.Watch) {
			removed.Add(1)
		}))

		queues := make([]*watch.Queue, watches)
		for i := range queues {
			q, _ := newSizedQueue(t, 32)
			queues[i] = q
			_, err := watch.Subscribe(list, q, 1)
			require.NoError(t, err)
		}

		var wg sync.WaitGroup
		start := make(chan struct{})
		for _i := 0; _i < 4; _i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				for _i := 0; _i < 16; _i++ {
					list.Post(&watch.Record{Type: typeMount}, nil, 1)
				}
			}()
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			list.TearDown()
		}()

		close(start)
		wg.Wait()

		require.Equal(t, int32(watches), removed.Load())
		require.Equal(t, 0, list.Len())
		for _, q := range queues {
			require.Equal(t, 0, q.Watching())
		}
	}
}

// Concurrent posters against one queue contend only on the note allocator;
// the pool must hand out each slot exactly once.
func TestList_ConcurrentPosters(t *testing.T) {
	t.Parallel()

	const capacity = 64

	q, tr := newSizedQueue(t, capacity)
	list := watch.NewList()
	_, err := watch.Subscribe(list, q, 1)
	require.NoError(t, err)

	var wg sync.WaitGroup
	var delivered atomic.Int32
	for _i := 0; _i < 8; _i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _i := 0; _i < capacity; _i++ {
				delivered.Add(int32(list.Post(&watch.Record{Type: typeMount}, nil, 1)))
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int32(capacity), delivered.Load())
	require.Equal(t, capacity, tr.publishedCount())
	require.Equal(t, uint32(capacity), q.Outstanding())
	require.True(t, q.Overrun())
}
