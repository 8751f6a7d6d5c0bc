package notify

import (
	"context"
	"slices"
	"sync"
)

// LocalBus delivers events synchronously to subscribers in the same process.
// Subscribers run on the publisher's goroutine, in subscription order.
type LocalBus struct {
	mu     sync.RWMutex
	subs   map[string]map[int]func(Event)
	nextID int
	closed bool
}

func NewLocalBus() *LocalBus {
	return &LocalBus{subs: make(map[string]map[int]func(Event))}
}

func channelName(origin, topic string) string {
	return "storefront:" + origin + ":" + topic
}

func (b *LocalBus) Publish(_ context.Context, e Event) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrClosed
	}
	subs := b.subs[channelName(e.Origin, e.Topic)]
	ids := make([]int, 0, len(subs))
	for id := range subs {
		ids = append(ids, id)
	}
	fns := make([]func(Event), 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		fns = append(fns, subs[id])
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		fn(e)
	}
	return nil
}

func (b *LocalBus) Subscribe(origin, topic string, fn func(Event)) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}

	ch := channelName(origin, topic)
	if b.subs[ch] == nil {
		b.subs[ch] = make(map[int]func(Event))
	}
	id := b.nextID
	b.nextID++
	b.subs[ch][id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs[ch], id)
		})
	}, nil
}

func (b *LocalBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	b.subs = make(map[string]map[int]func(Event))
	return nil
}
