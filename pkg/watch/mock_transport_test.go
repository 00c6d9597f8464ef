package watch_test

import (
	"context"
	"errors"
	"sync"

	"github.com/dmitrymomot/watchkit/pkg/watch"
)

var errPublishRejected = errors.New("publish rejected")

// mockTransport records what the delivery path hands it and lets tests
// detach the consumer side or force publish failures.
type mockTransport struct {
	mu         sync.Mutex
	slots      map[uint32][]byte
	published  []uint32
	release    func(slot uint32)
	detached   bool
	failWrite  bool
	failPub    bool
	reserveErr error
}

func newMockTransport() *mockTransport {
	return &mockTransport{slots: make(map[uint32][]byte)}
}

func (m *mockTransport) Reserve(_ context.Context, n uint32, size int, release func(slot uint32)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.reserveErr != nil {
		return m.reserveErr
	}
	m.release = release
	return nil
}

func (m *mockTransport) Write(slot uint32, p []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrite {
		return errPublishRejected
	}
	m.slots[slot] = append([]byte(nil), p...)
	return nil
}

func (m *mockTransport) Publish(slot uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPub {
		return errPublishRejected
	}
	m.published = append(m.published, slot)
	return nil
}

func (m *mockTransport) Attached() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.detached
}

func (m *mockTransport) detach() {
	m.mu.Lock()
	m.detached = true
	m.mu.Unlock()
}

func (m *mockTransport) publishedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.published)
}

// consume decodes and recycles the oldest published slot.
func (m *mockTransport) consume() (watch.Record, error) {
	m.mu.Lock()
	if len(m.published) == 0 {
		m.mu.Unlock()
		return watch.Record{}, errors.New("nothing published")
	}
	slot := m.published[0]
	m.published = m.published[1:]
	data := m.slots[slot]
	release := m.release
	m.mu.Unlock()

	rec, err := watch.Decode(data)
	if err != nil {
		return watch.Record{}, err
	}
	if release != nil {
		release(slot)
	}
	return rec, nil
}
