package docstore

import "sync"

// notifier fans committed-write events out to per-collection subscribers.
// Shared by the memory and sqlite stores.
type notifier struct {
	mu   sync.Mutex
	next int
	subs map[string]map[int]func(Event)
}

func newNotifier() *notifier {
	return &notifier{subs: make(map[string]map[int]func(Event))}
}

func (n *notifier) subscribe(collection string, fn func(Event)) func() {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.next
	n.next++
	if n.subs[collection] == nil {
		n.subs[collection] = make(map[int]func(Event))
	}
	n.subs[collection][id] = fn

	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.subs[collection], id)
	}
}

func (n *notifier) publish(ev Event) {
	n.mu.Lock()
	fns := make([]func(Event), 0, len(n.subs[ev.Collection]))
	for _, fn := range n.subs[ev.Collection] {
		fns = append(fns, fn)
	}
	n.mu.Unlock()

	// Called without the lock so a subscriber may re-enter the store.
	for _, fn := range fns {
		fn(ev)
	}
}
