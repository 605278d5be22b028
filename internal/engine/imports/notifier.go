package imports

import (
	"context"
	"sync"
)

// Listener receives the documents invalidated by one change batch.
type Listener[T any] func(ctx context.Context, docs []T)

// notifier fans a change notification out to its subscribers.
type notifier[T any] struct {
	mu   sync.Mutex
	next int
	subs map[int]Listener[T]
}

func newNotifier[T any]() *notifier[T] {
	return &notifier[T]{subs: make(map[int]Listener[T])}
}

func (n *notifier[T]) subscribe(fn Listener[T]) func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	id := n.next
	n.next++
	n.subs[id] = fn
	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.subs, id)
	}
}

// emit calls every subscriber with docs. Subscribers run outside the lock and
// may unsubscribe from within the callback.
func (n *notifier[T]) emit(ctx context.Context, docs []T) {
	if len(docs) == 0 {
		return
	}
	n.mu.Lock()
	subs := make([]Listener[T], 0, len(n.subs))
	for _, fn := range n.subs {
		subs = append(subs, fn)
	}
	n.mu.Unlock()

	for _, fn := range subs {
		fn(ctx, docs)
	}
}
