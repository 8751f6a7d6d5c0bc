package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/storefront/internal/logging"
	"github.com/redis/go-redis/v9"
)

// RedisBus fans events out over Redis pub/sub, one channel per
// (origin, topic). Instances in different processes see each other's writes.
type RedisBus struct {
	rdb *redis.Client
	log logging.Logger

	mu         sync.Mutex
	subs       map[*redis.PubSub]struct{}
	closed     bool
	ownsClient bool
}

func NewRedisBus(rdb *redis.Client, log logging.Logger) *RedisBus {
	return &RedisBus{rdb: rdb, log: log, subs: make(map[*redis.PubSub]struct{})}
}

func (b *RedisBus) Publish(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if err := b.rdb.Publish(ctx, channelName(e.Origin, e.Topic), payload).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// Subscribe waits for Redis to confirm the subscription before returning, so
// events published after Subscribe returns are not missed.
func (b *RedisBus) Subscribe(origin, topic string, fn func(Event)) (func(), error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrClosed
	}
	b.mu.Unlock()

	ctx := context.Background()
	ps := b.rdb.Subscribe(ctx, channelName(origin, topic))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("redis subscribe: %w", err)
	}

	b.mu.Lock()
	b.subs[ps] = struct{}{}
	b.mu.Unlock()

	go func() {
		for msg := range ps.Channel() {
			var e Event
			if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
				b.log.Warn(ctx, "dropping malformed change event", "channel", msg.Channel, "error", err)
				continue
			}
			fn(e)
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ps)
			b.mu.Unlock()
			_ = ps.Close()
		})
	}, nil
}

// Close stops every subscription. The Redis client is closed only when the
// bus created it (see Open).
func (b *RedisBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	for ps := range b.subs {
		_ = ps.Close()
	}
	b.subs = make(map[*redis.PubSub]struct{})
	if b.ownsClient {
		return b.rdb.Close()
	}
	return nil
}
