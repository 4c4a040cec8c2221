package docstore

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Memory is the in-process store used as the default backend and in tests.
type Memory struct {
	mu       sync.Mutex
	docs     map[string]map[string][]byte // collection -> id -> body
	order    map[string][]string          // insertion order per collection
	notifier *notifier
}

func NewMemory() *Memory {
	return &Memory{
		docs:     make(map[string]map[string][]byte),
		order:    make(map[string][]string),
		notifier: newNotifier(),
	}
}

func (m *Memory) List(_ context.Context, collection string) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := m.order[collection]
	out := make([]Record, 0, len(ids))
	for _, id := range ids {
		body, ok := m.docs[collection][id]
		if !ok {
			continue
		}
		out = append(out, Record{ID: id, Data: cloneBytes(body)})
	}
	return out, nil
}

func (m *Memory) Get(_ context.Context, collection, id string) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	body, ok := m.docs[collection][id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return Record{ID: id, Data: cloneBytes(body)}, nil
}

func (m *Memory) Create(_ context.Context, collection string, data []byte) (string, error) {
	id := uuid.NewString()

	m.mu.Lock()
	if m.docs[collection] == nil {
		m.docs[collection] = make(map[string][]byte)
	}
	m.docs[collection][id] = cloneBytes(data)
	m.order[collection] = append(m.order[collection], id)
	m.mu.Unlock()

	m.notifier.publish(Event{Collection: collection, ID: id, Op: OpCreate})
	return id, nil
}

func (m *Memory) Update(_ context.Context, collection, id string, data []byte) error {
	m.mu.Lock()
	if _, ok := m.docs[collection][id]; !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	m.docs[collection][id] = cloneBytes(data)
	m.mu.Unlock()

	m.notifier.publish(Event{Collection: collection, ID: id, Op: OpUpdate})
	return nil
}

func (m *Memory) Delete(_ context.Context, collection, id string) error {
	m.mu.Lock()
	if _, ok := m.docs[collection][id]; !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	delete(m.docs[collection], id)
	ids := m.order[collection]
	for j, v := range ids {
		if v == id {
			m.order[collection] = append(ids[:j], ids[j+1:]...)
			break
		}
	}
	m.mu.Unlock()

	m.notifier.publish(Event{Collection: collection, ID: id, Op: OpDelete})
	return nil
}

func (m *Memory) Subscribe(collection string, fn func(Event)) func() {
	return m.notifier.subscribe(collection, fn)
}

func (m *Memory) Close() error { return nil }

func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
